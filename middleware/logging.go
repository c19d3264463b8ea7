package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs node execution start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *Attempt, next Handler) error {
		logger.Info("node execution started",
			slog.String("workflow", a.Workflow),
			slog.String("instance_id", a.InstanceID),
			slog.String("node", a.Node),
			slog.String("node_type", a.NodeType),
			slog.String("action", a.Action),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("node execution failed",
				slog.String("workflow", a.Workflow),
				slog.String("instance_id", a.InstanceID),
				slog.String("node", a.Node),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("node execution completed",
				slog.String("workflow", a.Workflow),
				slog.String("instance_id", a.InstanceID),
				slog.String("node", a.Node),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
