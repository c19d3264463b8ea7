package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Timeout returns middleware that enforces a uniform execution deadline on
// every node handler. The engine itself never times out handlers; add this
// middleware when handlers must be bounded. When the deadline is exceeded
// the context is cancelled and the handler should return
// context.DeadlineExceeded.
func Timeout(logger *slog.Logger, d time.Duration) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		if d > 0 {
			logger.Debug("node execution deadline set",
				slog.String("instance_id", a.InstanceID),
				slog.String("node", a.Node),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
