package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentilia/internal/app/commands"
)

// Logging records every dispatched command with its outcome and latency.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if logger != nil {
				if err != nil {
					logger.Warn("command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				} else {
					logger.Info("command handled", "command", cmd.Key(), "duration", time.Since(start))
				}
			}
			return res, err
		})
	}
}
