// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	var transitions []string
	now := time.Unix(1000, 0)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "nvidia",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          10 * time.Second,
		MaxRequests:      1,
		OnStateChange: func(name string, from, to CircuitBreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = func() time.Time { return now }

	fail := func(ctx context.Context) error { return errors.New("boom") }
	ok := func(ctx context.Context) error { return nil }
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("expected OPEN after threshold, got %v", cb.State())
	}

	if err := cb.Execute(ctx, ok); !IsCircuitBreakerError(err) {
		t.Fatalf("expected fast failure while open, got %v", err)
	}

	now = now.Add(11 * time.Second)
	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("expected half-open probe to run, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected CLOSED after successful probe, got %v", cb.State())
	}

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("llm"))
	for i := 0; i < 10; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return NewPermanentError("bad key", nil)
		})
	}
	if cb.State() != StateClosed {
		t.Errorf("permanent errors should not open the breaker, got %v", cb.State())
	}
}

func TestCircuitBreaker_StatsAndReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "tavily", FailureThreshold: 1, Timeout: time.Hour})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("x") })

	stats := cb.Stats()
	if stats.State != StateOpen || stats.FailureCount != 1 || stats.Name != "tavily" {
		t.Errorf("unexpected stats %+v", stats)
	}

	cb.Reset()
	if cb.State() != StateClosed || cb.Stats().FailureCount != 0 {
		t.Errorf("Reset should close the breaker, got %+v", cb.Stats())
	}
}
