package errors

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned by Call without invoking fn while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOptions tunes a CircuitBreaker. Zero fields take the defaults.
type BreakerOptions struct {
	// ErrorThreshold is the failure ratio that opens the breaker.
	ErrorThreshold float64
	// MinRequests is the sample size needed before the ratio is evaluated.
	MinRequests int
	// OpenFor is how long the breaker rejects calls before probing again.
	OpenFor time.Duration
	// HalfOpenRequests is the number of successful probes needed to close again.
	HalfOpenRequests int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// CircuitBreaker stops calling a failing dependency for a while.
type CircuitBreaker struct {
	opts BreakerOptions

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	requests  int
	inFlight  int
	openedAt  time.Time
}

// NewCircuitBreaker builds a closed breaker.
func NewCircuitBreaker(opts BreakerOptions) *CircuitBreaker {
	if opts.ErrorThreshold <= 0 {
		opts.ErrorThreshold = 0.5
	}
	if opts.MinRequests <= 0 {
		opts.MinRequests = 10
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}
	if opts.HalfOpenRequests <= 0 {
		opts.HalfOpenRequests = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CircuitBreaker{opts: opts}
}

// Call runs fn unless the breaker is open, and records the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()
	cb.after(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return cb.state
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refreshLocked()
	switch cb.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.inFlight+cb.successes >= cb.opts.HalfOpenRequests {
			return ErrCircuitOpen
		}
	}
	cb.inFlight++
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.inFlight--
	cb.requests++

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen {
			cb.tripLocked()
			return
		}
		if cb.requests >= cb.opts.MinRequests && float64(cb.failures)/float64(cb.requests) >= cb.opts.ErrorThreshold {
			cb.tripLocked()
		}
		return
	}

	cb.successes++
	if cb.state == StateHalfOpen && cb.successes >= cb.opts.HalfOpenRequests {
		cb.state = StateClosed
		cb.resetLocked()
	}
}

// refreshLocked moves an open breaker to half-open once OpenFor has passed.
func (cb *CircuitBreaker) refreshLocked() {
	if cb.state == StateOpen && cb.opts.Now().Sub(cb.openedAt) >= cb.opts.OpenFor {
		cb.state = StateHalfOpen
		cb.resetLocked()
	}
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = StateOpen
	cb.openedAt = cb.opts.Now()
	cb.resetLocked()
}

func (cb *CircuitBreaker) resetLocked() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}
