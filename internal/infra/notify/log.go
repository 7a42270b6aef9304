package notify

import (
	"context"
	"log/slog"

	"rentilia/internal/app/policies"
)

// LogNotifier is the dev-mode stand-in when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(_ context.Context, msg policies.Notification) error {
	n.Logger.Info("notification", "recipient", msg.RecipientID, "subject", msg.Subject, "body", msg.Body)
	return nil
}
