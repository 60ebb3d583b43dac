package utils

import (
	"fmt"
	"time"
)

// RetryConfig retries an operation with doubling back-off between attempts,
// optionally capped at MaxDelay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *Logger
}

// Do executes fn until it succeeds or MaxAttempts is exhausted.
func (r *RetryConfig) Do(op string, fn func() error) error {
	delay := r.BaseDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		if lastErr = fn(); lastErr == nil {
			if attempt > 1 {
				r.Logger.Info("[retry] %s succeeded on attempt %d/%d", op, attempt, r.MaxAttempts)
			}
			return nil
		}
		if attempt >= r.MaxAttempts {
			break
		}

		r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
			op, attempt, r.MaxAttempts, lastErr, delay)
		time.Sleep(delay)

		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, r.MaxAttempts, lastErr)
}
