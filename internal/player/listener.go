// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"sync"

	"github.com/Caij/iplayer/internal/engine"
)

// PreparedListener is told when the source is ready to play.
type PreparedListener interface {
	OnPrepared(p *Player)
}

// CompletionListener is told when playback reaches the end.
type CompletionListener interface {
	OnCompletion(p *Player)
}

// BufferingUpdateListener receives the buffered percentage periodically
// while the source is ready or buffering.
type BufferingUpdateListener interface {
	OnBufferingUpdate(p *Player, percent int)
}

// SeekCompleteListener is told when a seek has been applied.
type SeekCompleteListener interface {
	OnSeekComplete(p *Player)
}

// VideoSizeChangedListener receives the decoded video size.
type VideoSizeChangedListener interface {
	OnVideoSizeChanged(p *Player, width, height int)
}

// ErrorListener receives classified playback errors. The result is
// advisory; the player always reports the error as handled to the backend.
type ErrorListener interface {
	OnError(p *Player, kind engine.ErrorKind, extra int) bool
}

// InfoListener receives informational events.
type InfoListener interface {
	OnInfo(p *Player, kind engine.InfoKind, extra int) bool
}

// registry is an ordered, duplicate-permitting listener list. Elements must
// be comparable at runtime; pointer receivers are the usual choice.
type registry[T comparable] struct {
	mu    sync.Mutex
	items []T
}

func (r *registry[T]) add(l T) {
	r.mu.Lock()
	r.items = append(r.items, l)
	r.mu.Unlock()
}

// remove drops the first occurrence of l.
func (r *registry[T]) remove(l T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it == l {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry[T]) clear() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *registry[T]) at(i int) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.items) {
		var zero T
		return zero, false
	}
	return r.items[i], true
}

// each visits listeners in registration order, reading the list at call
// time. Listeners added during the pass may or may not be visited.
func (r *registry[T]) each(fn func(T)) int {
	n := 0
	for i := 0; ; i++ {
		l, ok := r.at(i)
		if !ok {
			return n
		}
		fn(l)
		n++
	}
}
