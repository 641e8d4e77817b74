// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience guards flaky network work (redirect probes) with a
// consecutive-failure circuit breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Caij/iplayer/internal/metrics"
)

// State is a breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrCircuitOpen is returned instead of running the call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

// CircuitBreaker opens after threshold consecutive failures. Once cooldown
// has passed it admits one trial call; the trial's outcome closes or reopens
// it.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	neutral   func(error) bool

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithNeutral marks errors that count as neither success nor failure. The
// default treats context.Canceled as neutral.
func WithNeutral(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) { cb.neutral = fn }
}

func isCanceled(err error) bool { return errors.Is(err, context.Canceled) }

// NewCircuitBreaker returns a closed breaker. Non-positive threshold or
// cooldown fall back to 5 and 30s.
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		neutral:   isCanceled,
		state:     StateClosed,
	}
	if cb.threshold <= 0 {
		cb.threshold = defaultThreshold
	}
	if cb.cooldown <= 0 {
		cb.cooldown = defaultCooldown
	}
	for _, opt := range opts {
		opt(cb)
	}
	metrics.ObserveBreakerTransition(name, "", string(StateClosed))
	return cb
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		metrics.IncBreakerRejected(cb.name)
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(err)
	return err
}

// State returns the current state. An open breaker whose cooldown has passed
// still reports open until the next call is admitted.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return false
		}
		cb.setState(StateHalfOpen)
	case StateHalfOpen:
		if cb.trial {
			return false
		}
	default:
		return true
	}
	cb.trial = true
	return true
}

func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	wasTrial := cb.trial
	cb.trial = false
	switch {
	case err == nil:
		cb.failures = 0
		cb.setState(StateClosed)
	case cb.neutral != nil && cb.neutral(err):
		// Leaves the count alone; a half-open breaker admits the next call.
	case wasTrial || cb.state == StateHalfOpen:
		cb.setState(StateOpen)
	default:
		cb.failures++
		if cb.failures >= cb.threshold {
			cb.setState(StateOpen)
		}
	}
}

// setState requires cb.mu.
func (cb *CircuitBreaker) setState(next State) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if next == StateOpen {
		cb.openedAt = cb.now()
		cb.failures = 0
	}
	metrics.ObserveBreakerTransition(cb.name, string(prev), string(next))
}
