package apierr_test

// Notes:
// - Exact backoff timing is not asserted, only attempt counts and cancellation.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/vidsub/internal/apierr"
)

func fastRetry(n int) apierr.RetryConfig {
	return apierr.RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("success on first try", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := apierr.RetryWithBackoff(context.Background(), fastRetry(3),
			func() (int, error) { calls++; return 42, nil },
			func(error) bool { return true },
		)
		if err != nil || got != 42 {
			t.Fatalf("RetryWithBackoff() = (%d, %v), want (42, nil)", got, err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := apierr.RetryWithBackoff(context.Background(), fastRetry(5),
			func() (string, error) { calls++; return "", apierr.ErrAuthFailed },
			apierr.IsRetryable,
		)
		if !errors.Is(err, apierr.ErrAuthFailed) {
			t.Errorf("err = %v, want ErrAuthFailed", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries transient errors then succeeds", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := apierr.RetryWithBackoff(context.Background(), fastRetry(3),
			func() (string, error) {
				calls++
				if calls < 3 {
					return "", apierr.ErrRateLimit
				}
				return "ok", nil
			},
			apierr.IsRetryable,
		)
		if err != nil || got != "ok" {
			t.Fatalf("RetryWithBackoff() = (%q, %v), want (ok, nil)", got, err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("exhausted retries wrap last error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := apierr.RetryWithBackoff(context.Background(), fastRetry(2),
			func() (string, error) { calls++; return "", apierr.ErrTimeout },
			apierr.IsRetryable,
		)
		if !errors.Is(err, apierr.ErrTimeout) {
			t.Errorf("err = %v, want wrapping ErrTimeout", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3 (1 initial + 2 retries)", calls)
		}
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := apierr.RetryWithBackoff(ctx,
			apierr.RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Minute},
			func() (string, error) { calls++; return "", apierr.ErrRateLimit },
			apierr.IsRetryable,
		)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("negative MaxRetries means single attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, _ = apierr.RetryWithBackoff(context.Background(), apierr.RetryConfig{MaxRetries: -1},
			func() (string, error) { calls++; return "", apierr.ErrTimeout },
			apierr.IsRetryable,
		)
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
