package resilience

import (
	"context"
	"time"
)

// Backoff waits (attempt+1)*base before the next retry. It returns the context
// error when ctx ends first.
func Backoff(ctx context.Context, base time.Duration, attempt int) error {
	if base <= 0 {
		base = time.Second
	}
	timer := time.NewTimer(time.Duration(attempt+1) * base)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
