// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"sync"
	"time"

	"github.com/Caij/iplayer/internal/looper"
)

// DefaultInterval is the buffering-update period.
const DefaultInterval = time.Second

// Repeater runs tick on the dispatcher every interval while started.
// Ticks already in flight when Stop is called are dropped. A tick returning
// false stops the repeater unless it was restarted meanwhile.
type Repeater struct {
	mu         sync.Mutex
	dispatcher looper.Dispatcher
	interval   time.Duration
	tick       func() bool
	timer      *time.Timer
	generation uint64
	running    bool
}

// NewRepeater creates a stopped repeater. A non-positive interval uses
// DefaultInterval.
func NewRepeater(d looper.Dispatcher, interval time.Duration, tick func() bool) *Repeater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Repeater{dispatcher: d, interval: interval, tick: tick}
}

// Start begins ticking. The first tick fires after one interval. Start on a
// running repeater is a no-op.
func (r *Repeater) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.generation++
	r.scheduleLocked(r.generation)
}

// Stop halts ticking. Stop on a stopped repeater is a no-op.
func (r *Repeater) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Running reports whether the repeater is started.
func (r *Repeater) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Repeater) scheduleLocked(gen uint64) {
	r.timer = time.AfterFunc(r.interval, func() { r.fire(gen) })
}

// fire runs on the timer goroutine and hands the tick to the dispatcher.
func (r *Repeater) fire(gen uint64) {
	if !r.current(gen) {
		return
	}
	posted := r.dispatcher.Post(func() {
		if !r.current(gen) {
			return
		}
		more := r.tick()
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.running || r.generation != gen {
			return
		}
		if !more {
			r.running = false
			r.generation++
			r.timer = nil
			return
		}
		r.scheduleLocked(gen)
	})
	if !posted {
		r.Stop()
	}
}

func (r *Repeater) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running && r.generation == gen
}
