// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package looper marshals callbacks onto a single owning goroutine.
//
// A player posts every asynchronous completion (probe results, buffering
// ticks, engine callbacks) through a Dispatcher so that its state machine
// only ever observes one callback at a time, in posting order.
package looper

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/Caij/iplayer/internal/log"
)

// ErrClosed is reported by Post once a Looper has been closed.
var ErrClosed = errors.New("looper closed")

// Dispatcher schedules a callback on the owning goroutine.
// Post returns false if the callback was dropped.
type Dispatcher interface {
	Post(fn func()) bool
}

// Func adapts a host scheduling function (e.g. a UI toolkit's main-thread
// dispatch) to Dispatcher.
type Func func(fn func())

// Post implements Dispatcher.
func (f Func) Post(fn func()) bool {
	if f == nil || fn == nil {
		return false
	}
	f(fn)
	return true
}

// Inline runs callbacks synchronously on the posting goroutine. Intended
// for tests and single-threaded hosts.
type Inline struct{}

// Post implements Dispatcher.
func (Inline) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Looper owns one goroutine that runs posted callbacks in FIFO order.
// Post never blocks.
type Looper struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	closed  bool
	done    chan struct{}
	logger  zerolog.Logger
	running sync.WaitGroup
}

// New starts a looper goroutine.
func New() *Looper {
	l := &Looper{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: xglog.WithComponent("looper"),
	}
	l.running.Add(1)
	go l.loop()
	return l
}

// Post enqueues fn. It returns false after Close.
func (l *Looper) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

func (l *Looper) loop() {
	defer l.running.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if l.closed || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.run(fn)
		}
	}
}

func (l *Looper) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().
				Interface("panic", r).
				Str("event", "looper.callback_panic").
				Msg("recovered panic in posted callback")
		}
	}()
	fn()
}

// Close stops the looper and drops queued callbacks. It does not wait for a
// running callback, so it is safe to call from one; use Wait for that.
func (l *Looper) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.closed = true
	dropped := len(l.queue)
	l.queue = nil
	l.mu.Unlock()

	close(l.done)
	if dropped > 0 {
		l.logger.Debug().Int("dropped", dropped).Msg("looper closed with pending callbacks")
	}
	return nil
}

// Wait blocks until the looper goroutine has exited.
func (l *Looper) Wait() {
	l.running.Wait()
}
