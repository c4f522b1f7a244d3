package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen    = errors.New("circuit breaker is open")
	ErrCircuitTimeout = errors.New("circuit breaker timeout")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards a flaky upstream such as the reading feed. In half-open
// state at most HalfOpenMax probes run concurrently.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	timeout       time.Duration
	halfOpenMax   int
	isFailure     func(error) bool
	onStateChange func(name string, from, to State)

	mu           sync.RWMutex
	state        State
	failures     int
	successes    int
	probes       int
	lastFailTime time.Time
	now          func() time.Time
}

type CircuitBreakerConfig struct {
	Name        string
	MaxFailures int
	Timeout     time.Duration
	HalfOpenMax int
	// IsFailure decides which errors count against the breaker. Nil counts every
	// error except context cancellation.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}

	return &CircuitBreaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		timeout:       cfg.Timeout,
		halfOpenMax:   cfg.HalfOpenMax,
		isFailure:     cfg.IsFailure,
		onStateChange: cfg.OnStateChange,
		state:         StateClosed,
		now:           time.Now,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	return cb.ExecuteContext(context.Background(), func(context.Context) error {
		return fn()
	})
}

// ExecuteContext runs fn unless the circuit is open. A call whose context expires
// counts as a failure and returns ErrCircuitTimeout.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func(ctx context.Context) error) error {
	probe, ok := cb.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = errors.Join(ErrCircuitTimeout, err)
	}

	if err != nil && cb.isFailure(err) {
		cb.recordFailure(probe)
		return err
	}

	cb.recordSuccess(probe)
	return err
}

func (cb *CircuitBreaker) acquire() (probe bool, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, true

	case StateOpen:
		if cb.now().Sub(cb.lastFailTime) <= cb.timeout {
			return false, false
		}
		cb.transitionTo(StateHalfOpen)
	}

	if cb.probes >= cb.halfOpenMax {
		return false, false
	}
	cb.probes++
	return true, true
}

func (cb *CircuitBreaker) recordSuccess(probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe && cb.probes > 0 {
		cb.probes--
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0

	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.halfOpenMax {
			cb.transitionTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure(probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe && cb.probes > 0 {
		cb.probes--
	}
	cb.lastFailTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	if newState != StateHalfOpen {
		cb.probes = 0
	}

	if cb.onStateChange != nil && oldState != newState {
		go cb.onStateChange(cb.name, oldState, newState)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(StateClosed)
}

func (cb *CircuitBreaker) Stats() (state State, failures int, lastFail time.Time) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state, cb.failures, cb.lastFailTime
}
