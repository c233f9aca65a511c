package renderer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardcap/internal/renderer"
	"cardcap/internal/services"
)

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := renderer.Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return renderer.ErrNotReady
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("Retry = %v after %d calls", err, calls)
	}
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := renderer.Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return renderer.ErrNotReady
	})
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, services.ErrTransientUI) {
		t.Fatalf("expected transient marker to survive, got %v", err)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := renderer.Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	if calls != 1 || !errors.Is(err, boom) {
		t.Fatalf("expected immediate failure, got %v after %d calls", err, calls)
	}
}

func TestRetryValue(t *testing.T) {
	calls := 0
	got, err := renderer.RetryValue(context.Background(), 2, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", renderer.ErrNotReady
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("RetryValue = %q, %v", got, err)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := renderer.Retry(ctx, 5, time.Hour, func(context.Context) error {
		return renderer.ErrNotReady
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
