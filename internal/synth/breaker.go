package synth

import (
	"sync"
	"time"

	"github.com/bookowl/bookowl/internal/model"
)

// BreakerState is the circuit breaker state
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// Breaker is the one piece of process-wide mutable pipeline state.
// Constructed once at startup and injected into every synthesizer; all
// transitions happen under the mutex so concurrent callers cannot race
// the state machine into inconsistency.
type Breaker struct {
	mu               sync.Mutex
	state            BreakerState
	failures         int
	openedAt         time.Time
	failureThreshold int
	recoveryTimeout  time.Duration

	now func() time.Time // Injectable clock for tests
}

// NewBreaker creates a closed breaker from configuration
func NewBreaker(cfg model.BreakerConfig) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. While OPEN, calls are
// rejected until the recovery timeout elapses; the first call after that
// moves the breaker to HALF_OPEN and is the single allowed probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// Probe already in flight
		return false
	}
	return false
}

// OnSuccess records a successful call. In HALF_OPEN this closes the
// breaker; in CLOSED it resets the consecutive-failure counter.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

// OnFailure records a failed call. Reaching the threshold of consecutive
// failures opens the breaker; a failed HALF_OPEN probe re-opens it and
// restarts the recovery timer.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
}

// Release returns an unresolved probe. A call admitted by Allow that
// aborts before the provider answers (caller cancellation) says nothing
// about model health, so the breaker re-opens without restarting the
// recovery timer: the next caller may take the probe instead. In any
// other state this is a no-op.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
	}
}

// State returns the current breaker state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
