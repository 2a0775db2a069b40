// Package retry runs workflow operations under a bounded retry policy.
//
// Every failure is retried with a fixed backoff except usage errors, which
// are terminal by definition: retrying a malformed invocation can never
// succeed, so the supervisor surfaces those immediately.
package retry

import (
	"context"
	"log/slog"
	"time"

	"danmux/internal/logging"
	"danmux/internal/services"
)

// Operation is one attempt of a retryable unit of work. Each attempt must be
// independent; the supervisor never reuses state between attempts.
type Operation func(ctx context.Context) error

// Supervisor retries an operation up to MaxAttempts times.
type Supervisor struct {
	MaxAttempts int
	Backoff     time.Duration
	Logger      *slog.Logger
}

// New constructs a supervisor with the given policy.
func New(maxAttempts int, backoff time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Logger:      logging.NewComponentLogger(logger, "retry"),
	}
}

// Run invokes op until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The error from the final attempt is returned on
// exhaustion. Usage errors short-circuit without further attempts.
func (s *Supervisor) Run(ctx context.Context, op Operation) error {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if services.IsUsage(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		logger.Warn("attempt failed, retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("backoff", s.Backoff),
			logging.Error(lastErr),
		)
		if err := sleep(ctx, s.Backoff); err != nil {
			return err
		}
	}

	logger.Error("attempts exhausted",
		logging.Int("max_attempts", attempts),
		logging.Error(lastErr),
	)
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
