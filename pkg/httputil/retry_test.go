package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errDown = errors.New("connection refused")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errDown)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, errDown) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if IsRetryable(errDown) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errDown)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("expected success on third call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func(context.Context) error {
		calls++
		return errDown
	})
	if !errors.Is(err, errDown) || calls != 1 {
		t.Errorf("non-retryable error should stop immediately, err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 0, time.Millisecond, func(context.Context) error {
		calls++
		return Retryable(errDown)
	})
	if !IsRetryable(err) || calls != 1 {
		t.Errorf("attempts below one should still run once, err=%v calls=%d", err, calls)
	}
}

func TestRetry_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Second, func(context.Context) error {
		return Retryable(errDown)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
