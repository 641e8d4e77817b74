// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"sync"
	"time"
)

// executor runs submitted jobs one at a time, in order, on a single worker
// goroutine. The worker is started on demand and exits after idleTimeout
// without work.
type executor struct {
	mu          sync.Mutex
	queue       []func()
	running     bool
	closed      bool
	wake        chan struct{}
	idleTimeout time.Duration
	wg          sync.WaitGroup
}

func newExecutor(idleTimeout time.Duration) *executor {
	if idleTimeout <= 0 {
		idleTimeout = defaultWorkerIdleTimeout
	}
	return &executor{wake: make(chan struct{}, 1), idleTimeout: idleTimeout}
}

// submit queues fn. It returns false after shutdown.
func (e *executor) submit(fn func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, fn)
	if !e.running {
		e.running = true
		e.wg.Add(1)
		go e.work()
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

func (e *executor) work() {
	defer e.wg.Done()
	idle := time.NewTimer(e.idleTimeout)
	defer idle.Stop()

	for {
		e.mu.Lock()
		if e.closed {
			e.running = false
			e.mu.Unlock()
			return
		}
		if len(e.queue) > 0 {
			fn := e.queue[0]
			e.queue[0] = nil
			e.queue = e.queue[1:]
			e.mu.Unlock()

			fn()
			idle.Reset(e.idleTimeout)
			continue
		}
		e.mu.Unlock()

		select {
		case <-e.wake:
		case <-idle.C:
			e.mu.Lock()
			if e.closed || len(e.queue) == 0 {
				e.running = false
				e.mu.Unlock()
				return
			}
			e.mu.Unlock()
			idle.Reset(e.idleTimeout)
		}
	}
}

// active reports whether a worker goroutine exists.
func (e *executor) active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// shutdown drops queued jobs and stops the worker once the running job
// returns. It does not wait.
func (e *executor) shutdown() {
	e.mu.Lock()
	e.closed = true
	e.queue = nil
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// wait blocks until the worker has exited.
func (e *executor) wait() { e.wg.Wait() }
