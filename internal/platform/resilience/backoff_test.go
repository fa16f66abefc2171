package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Backoff(ctx, time.Hour, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestBackoff_Waits(t *testing.T) {
	t.Parallel()

	started := time.Now()
	if err := Backoff(context.Background(), 5*time.Millisecond, 1); err != nil {
		t.Fatalf("unexpected backoff error: %v", err)
	}
	if elapsed := time.Since(started); elapsed < 10*time.Millisecond {
		t.Fatalf("backoff returned too early: %s", elapsed)
	}
}
