package resilience

import (
	"testing"
	"time"
)

func newTestBreaker(threshold int) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      15 * time.Second,
	})
}

func TestCircuitBreakerDisabledIsNilAndAdmitsEverything(t *testing.T) {
	breaker := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false})
	if breaker != nil {
		t.Fatal("disabled config must yield nil breaker")
	}

	// Nil receivers stay safe so callers never branch on enablement.
	if err := breaker.Allow(); err != nil {
		t.Fatalf("nil breaker rejected: %v", err)
	}
	breaker.RecordFailure()
	breaker.RecordSuccess()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	breaker := newTestBreaker(3)

	for i := 0; i < 3; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		breaker.RecordFailure()
	}

	if got := breaker.State(); got != CircuitStateOpen {
		t.Fatalf("state = %v, want open", got)
	}
	if err := breaker.Allow(); err == nil {
		t.Fatal("expected open breaker to reject")
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	breaker := newTestBreaker(2)

	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()

	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
}

func TestCircuitBreakerHalfOpenSingleProbe(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	breaker := newTestBreaker(1)
	breaker.now = func() time.Time { return now }

	breaker.RecordFailure()
	if err := breaker.Allow(); err == nil {
		t.Fatal("expected open breaker to reject")
	}

	now = now.Add(16 * time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("half-open probe rejected: %v", err)
	}
	if err := breaker.Allow(); err == nil {
		t.Fatal("second concurrent probe must be rejected")
	}

	breaker.RecordSuccess()
	if got := breaker.State(); got != CircuitStateClosed {
		t.Fatalf("state = %v, want closed after successful probe", got)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	breaker := newTestBreaker(1)
	breaker.now = func() time.Time { return now }

	breaker.RecordFailure()
	now = now.Add(16 * time.Second)

	if err := breaker.Allow(); err != nil {
		t.Fatalf("half-open probe rejected: %v", err)
	}
	breaker.RecordFailure()

	if err := breaker.Allow(); err == nil {
		t.Fatal("expected reopened breaker to reject")
	}
}
