package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/traverse/backoff"
	"github.com/xraph/traverse/id"
)

// RetryTransition retries a transition while it fails on consumer code.
// The engine itself never retries; this helper is the consumer-side retry
// layer. Only handler failures are retried, because the instance stays at
// its node and the same action remains valid. Pause violations,
// structural dead ends, and unknown instances return immediately.
//
// maxAttempts counts total tries including the first. strategy may be nil
// to use backoff.DefaultStrategy. The last Result is returned alongside
// the terminal outcome.
func RetryTransition(ctx context.Context, r *Runner, instID id.InstanceID, action string, payload map[string]any, strategy backoff.Strategy, maxAttempts int) (*Result, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}

	var res *Result
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err = r.Transition(ctx, instID, action, payload)
		if err != nil {
			return nil, err
		}
		if res.Success || !IsHandlerError(res.Err) {
			return res, nil
		}
		if attempt == maxAttempts {
			break
		}

		delay := strategy.Delay(attempt)
		r.logger.Debug("retrying transition after handler failure",
			slog.String("instance_id", instID.String()),
			slog.String("action", action),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return res, fmt.Errorf("retry transition %q: %w", action, ctx.Err())
		case <-time.After(delay):
		}
	}

	return res, nil
}
