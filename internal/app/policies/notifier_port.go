package policies

import (
	"context"
	"log/slog"
)

// Notification is a best-effort message to a marketplace user.
type Notification struct {
	RecipientID string
	Subject     string
	Body        string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotifyBestEffort delivers a notification and swallows any failure; a
// notification must never fail the business transaction it follows.
func NotifyBestEffort(ctx context.Context, notifier Notifier, logger *slog.Logger, n Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Send(ctx, n); err != nil && logger != nil {
		logger.Warn("notification delivery failed", "recipient", n.RecipientID, "subject", n.Subject, "error", err)
	}
}
