// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries      int                          // Retries after the first attempt
	InitialInterval time.Duration                // Delay before the first retry; zero retries immediately
	MaxInterval     time.Duration                // Cap on a single delay; zero means no cap
	Multiplier      float64                      // Exponential backoff multiplier (e.g. 2.0 doubles each attempt)
	MaxElapsedTime  time.Duration                // Stop retrying after this long; zero means no limit
	AttemptTimeout  time.Duration                // Deadline for each attempt; zero means none
	Jitter          bool                         // Add up to 25% random jitter to spread retries
	Retryable       func(error) bool             // Decides whether to retry; defaults to IsRetryable
	OnRetry         func(attempt int, err error) // Optional callback invoked before each retry
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  2 * time.Minute,
		Jitter:          true,
	}
}

// WithAttempts returns a copy of c allowing n calls in total.
func (c RetryConfig) WithAttempts(n int) RetryConfig {
	c.MaxRetries = max(0, n-1)
	return c
}

// delay returns the wait before retry number attempt (1-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	if c.InitialInterval <= 0 {
		return 0
	}
	d := float64(c.InitialInterval)
	mult := c.Multiplier
	if mult <= 0 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	if c.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	out := time.Duration(d)
	if c.MaxInterval > 0 {
		out = min(out, c.MaxInterval)
	}
	return out
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// RetryableFunc is a retryable function that returns a value.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// Outcome is the result of a bounded retry: either a value, or the last error
// once the budget is spent. Attempts counts calls actually made.
type Outcome[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// Succeeded reports whether some attempt returned without error.
func (o Outcome[T]) Succeeded() bool {
	return o.Err == nil && o.Attempts > 0
}

// Exhausted reports whether every attempt failed.
func (o Outcome[T]) Exhausted() bool {
	return !o.Succeeded()
}

// Attempt calls fn until it succeeds, returns a non-retryable error, the
// budget of MaxRetries+1 calls is spent or ctx is done. It never panics on
// failure; the caller decides what to substitute.
func Attempt[T any](ctx context.Context, config RetryConfig, fn RetryableFunc[T]) Outcome[T] {
	var out Outcome[T]
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	start := time.Now()

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if config.MaxElapsedTime > 0 && time.Since(start) >= config.MaxElapsedTime {
				return out
			}
			if config.OnRetry != nil {
				config.OnRetry(attempt, out.Err)
			}
			if err := wait(ctx, config.delay(attempt)); err != nil {
				out.Err = err
				return out
			}
		} else if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}

		out.Attempts++
		v, err := call(ctx, config.AttemptTimeout, fn)
		if err == nil {
			out.Value = v
			out.Err = nil
			return out
		}
		out.Err = err
		if !retryable(err) {
			return out
		}
	}
	return out
}

func call[T any](ctx context.Context, timeout time.Duration, fn RetryableFunc[T]) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

func wait(ctx context.Context, d time.Duration) error {
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

// RetryWithBackoff executes an operation with exponential backoff and optional jitter.
// The delay before attempt n is: InitialInterval * Multiplier^(n-1), capped at MaxInterval.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	return Attempt(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	}).Err
}

// RetryWithResult executes a function that returns a result and error with retry logic.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn RetryableFunc[T]) (T, error) {
	out := Attempt(ctx, config, fn)
	return out.Value, out.Err
}

// RetryWithCircuitBreaker combines retry logic with circuit breaker protection.
func RetryWithCircuitBreaker[T any](ctx context.Context, config RetryConfig, cb *CircuitBreaker, fn RetryableFunc[T]) Outcome[T] {
	return Attempt(ctx, config, func(ctx context.Context) (T, error) {
		var v T
		err := cb.Execute(ctx, func(ctx context.Context) error {
			var e error
			v, e = fn(ctx)
			return e
		})
		return v, err
	})
}
