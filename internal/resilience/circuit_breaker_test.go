package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFeed = errors.New("feed unavailable")

func trip(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errFeed })
	}
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        CircuitBreakerConfig
		setup         func(cb *CircuitBreaker)
		expectedState State
	}{
		{
			name:          "successful execution stays closed",
			config:        CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { _ = cb.Execute(func() error { return nil }) },
			expectedState: StateClosed,
		},
		{
			name:          "transition to open after max failures",
			config:        CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { trip(cb, 3) },
			expectedState: StateOpen,
		},
		{
			name:   "transition to half-open after timeout",
			config: CircuitBreakerConfig{MaxFailures: 3, Timeout: 50 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				trip(cb, 3)
				time.Sleep(100 * time.Millisecond)
				_ = cb.Execute(func() error { return nil })
			},
			expectedState: StateHalfOpen,
		},
		{
			name:   "transition from half-open to closed on success",
			config: CircuitBreakerConfig{MaxFailures: 3, Timeout: 50 * time.Millisecond, HalfOpenMax: 2},
			setup: func(cb *CircuitBreaker) {
				trip(cb, 3)
				time.Sleep(100 * time.Millisecond)
				for i := 0; i < 3; i++ {
					_ = cb.Execute(func() error { return nil })
				}
			},
			expectedState: StateClosed,
		},
		{
			name:   "half-open failure reopens",
			config: CircuitBreakerConfig{MaxFailures: 1, Timeout: 50 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				trip(cb, 1)
				time.Sleep(100 * time.Millisecond)
				trip(cb, 1)
			},
			expectedState: StateOpen,
		},
		{
			name:   "reset returns to closed",
			config: CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Hour},
			setup: func(cb *CircuitBreaker) {
				trip(cb, 3)
				cb.Reset()
			},
			expectedState: StateClosed,
		},
		{
			name: "ignored errors do not trip",
			config: CircuitBreakerConfig{
				MaxFailures: 1,
				IsFailure:   func(err error) bool { return !errors.Is(err, errFeed) },
			},
			setup:         func(cb *CircuitBreaker) { trip(cb, 5) },
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.config)

			tt.setup(cb)

			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpenState_RejectsRequest(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Hour})
	trip(cb, 3)

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_ExecuteContext_Timeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := cb.ExecuteContext(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, ErrCircuitTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_CancelledIsNotFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})

	err := cb.Execute(func() error { return context.Canceled })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []State
	done := make(chan struct{}, 1)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "collector",
		MaxFailures: 2,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "collector", name)
			transitions = append(transitions, to)
			done <- struct{}{}
		},
	})

	trip(cb, 2)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("state change callback not called")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transitions, 1)
	assert.Equal(t, StateOpen, transitions[0])
}
