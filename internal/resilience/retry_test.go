// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoff_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryConfig{MaxRetries: 3}, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_RetriesOnTransientError(t *testing.T) {
	calls := 0
	transient := NewTransientError("temporary failure", nil)

	err := RetryWithBackoff(context.Background(), RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Multiplier:      2.0,
	}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryConfig{MaxRetries: 5}, func(ctx context.Context) error {
		calls++
		return NewPermanentError("permanent failure", nil)
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retries on permanent error), got %d", calls)
	}
}

func TestAttempt_ExhaustsBudget(t *testing.T) {
	calls := 0
	out := Attempt(context.Background(), RetryConfig{}.WithAttempts(3), func(ctx context.Context) (string, error) {
		calls++
		return "", NewTransientError("always fails", nil)
	})

	if out.Succeeded() {
		t.Fatal("expected exhausted outcome")
	}
	if !out.Exhausted() {
		t.Error("Exhausted() should be true")
	}
	if calls != 3 || out.Attempts != 3 {
		t.Errorf("expected 3 calls and Attempts=3, got calls=%d attempts=%d", calls, out.Attempts)
	}
	if out.Err == nil || out.Err.Error() != "always fails" {
		t.Errorf("expected last error to be kept, got %v", out.Err)
	}
}

func TestAttempt_ReturnsValueAndAttempts(t *testing.T) {
	calls := 0
	out := Attempt(context.Background(), RetryConfig{MaxRetries: 2, Retryable: RetryUnlessPermanent},
		func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("malformed reply")
			}
			return "summary", nil
		})

	if !out.Succeeded() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Value != "summary" || out.Attempts != 2 {
		t.Errorf("got value=%q attempts=%d", out.Value, out.Attempts)
	}
}

func TestAttempt_DefaultPredicateDoesNotRetryUnknown(t *testing.T) {
	calls := 0
	out := Attempt(context.Background(), RetryConfig{MaxRetries: 4}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("something odd")
	})
	if calls != 1 || out.Attempts != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestAttempt_PerAttemptTimeout(t *testing.T) {
	out := Attempt(context.Background(), RetryConfig{MaxRetries: 1, AttemptTimeout: 5 * time.Millisecond},
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	if out.Attempts != 2 {
		t.Errorf("timeouts are retryable, expected 2 attempts, got %d", out.Attempts)
	}
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", out.Err)
	}
}

func TestAttempt_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	out := Attempt(ctx, RetryConfig{MaxRetries: 3}, func(ctx context.Context) (string, error) {
		calls++
		return "x", nil
	})
	if calls != 0 || out.Attempts != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
	if out.Succeeded() || !errors.Is(out.Err, context.Canceled) {
		t.Errorf("expected canceled outcome, got %+v", out)
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := RetryWithBackoff(ctx, RetryConfig{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      1.0,
		OnRetry: func(attempt int, err error) {
			cancel()
		},
	}, func(ctx context.Context) error {
		calls++
		return NewTransientError("fail", nil)
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetryWithBackoff_OnRetryCallback(t *testing.T) {
	var seen []int
	RetryWithBackoff(context.Background(), RetryConfig{
		MaxRetries: 2,
		OnRetry: func(attempt int, err error) {
			seen = append(seen, attempt)
		},
	}, func(ctx context.Context) error {
		return NewTransientError("fail", nil)
	})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected OnRetry for attempts [1 2], got %v", seen)
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := RetryConfig{InitialInterval: 10 * time.Millisecond, MaxInterval: 35 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 35 * time.Millisecond}
	for i, w := range want {
		if got := cfg.delay(i + 1); got != w {
			t.Errorf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
	if got := (RetryConfig{}).delay(3); got != 0 {
		t.Errorf("zero interval should retry immediately, got %v", got)
	}
}

func TestRetryConfig_WithAttempts(t *testing.T) {
	if got := (RetryConfig{}).WithAttempts(3).MaxRetries; got != 2 {
		t.Errorf("WithAttempts(3).MaxRetries = %d, want 2", got)
	}
	if got := (RetryConfig{}).WithAttempts(0).MaxRetries; got != 0 {
		t.Errorf("WithAttempts(0).MaxRetries = %d, want 0", got)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		t.Error("MaxRetries should be positive")
	}
	if cfg.Multiplier <= 1.0 {
		t.Error("Multiplier should be > 1.0 for exponential backoff")
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		t.Error("MaxInterval should be >= InitialInterval")
	}
}

func TestRetryWithCircuitBreaker_StopsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "llm", FailureThreshold: 1, Timeout: time.Hour})
	calls := 0
	out := RetryWithCircuitBreaker(context.Background(), RetryConfig{MaxRetries: 3, Retryable: RetryUnlessPermanent}, cb,
		func(ctx context.Context) (string, error) {
			calls++
			return "", NewTransientError("upstream down", nil)
		})

	if calls != 1 {
		t.Errorf("expected the breaker to stop after one call, got %d", calls)
	}
	if !IsCircuitBreakerError(out.Err) {
		t.Errorf("expected circuit breaker error, got %v", out.Err)
	}
	if out.Attempts != 2 {
		t.Errorf("expected 2 attempts (one rejected by the breaker), got %d", out.Attempts)
	}
}
