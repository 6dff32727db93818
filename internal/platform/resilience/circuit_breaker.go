package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
}

// CircuitBreaker guards the upstream sports APIs. It opens after a run
// of consecutive failures, and while half-open it admits one probe
// request at a time: a success closes the breaker, a failure reopens
// it. A nil *CircuitBreaker is valid and admits everything, so callers
// never need to branch on whether the breaker is enabled.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool
	now                 func() time.Time
}

// NewCircuitBreaker returns nil when cfg.Enabled is false.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 15 * time.Second
	}

	return &CircuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.probeInFlight = false
	}

	if b.state == CircuitStateHalfOpen {
		if b.probeInFlight {
			return ErrCircuitOpen
		}
		b.probeInFlight = true
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		b.state = CircuitStateClosed
		b.consecutiveFailures = 0
		b.probeInFlight = false
		b.openedAt = time.Time{}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.open()
		}
	case CircuitStateHalfOpen:
		b.open()
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}

	return b.state
}

func (b *CircuitBreaker) open() {
	b.state = CircuitStateOpen
	b.openedAt = b.now()
	b.probeInFlight = false
}
