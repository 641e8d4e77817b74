// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package reconcile turns the level-triggered (playWhenReady, state) samples a
// backend reports into edge-triggered playback events.
//
// Backends repeat samples freely. The Reconciler keeps a short history of
// distinct canonical states and matches it against an ordered rule table, so
// each logical transition produces exactly one event no matter how often the
// backend repeats itself.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/Caij/iplayer/internal/engine"
)

// playWhenReadyFlag marks the playWhenReady bit in a Canonical value. It
// cannot collide with engine state values.
const playWhenReadyFlag Canonical = 0xF0000000

// HistorySize is the number of distinct canonical states retained.
const HistorySize = 4

// Canonical is a single integer encoding of a raw sample.
type Canonical uint32

// Encode folds playWhenReady into the high bits and the state into the low bits.
func Encode(playWhenReady bool, state engine.State) Canonical {
	c := Canonical(state) &^ playWhenReadyFlag
	if playWhenReady {
		c |= playWhenReadyFlag
	}
	return c
}

// PlayWhenReady reports the playWhenReady half of c.
func (c Canonical) PlayWhenReady() bool { return c&playWhenReadyFlag != 0 }

// State reports the engine state half of c.
func (c Canonical) State() engine.State { return engine.State(c &^ playWhenReadyFlag) }

func (c Canonical) String() string {
	return fmt.Sprintf("%t/%s", c.PlayWhenReady(), c.State())
}

// resetState is the value every history slot holds after Reset.
var resetState = Encode(false, engine.StateIdle)

// History is a fixed window of the last HistorySize distinct canonical
// states, oldest first.
type History [HistorySize]Canonical

// NewHistory returns a history in its reset state.
func NewHistory() History {
	var h History
	h.Reset()
	return h
}

// Reset fills every slot with Encode(false, StateIdle).
func (h *History) Reset() {
	for i := range h {
		h[i] = resetState
	}
}

// MostRecent returns the newest entry.
func (h *History) MostRecent() Canonical { return h[HistorySize-1] }

// push shifts the window left and appends c.
func (h *History) push(c Canonical) {
	copy(h[:], h[1:])
	h[HistorySize-1] = c
}

// endsWith reports whether the newest len(tail) entries equal tail.
func (h *History) endsWith(tail ...Canonical) bool {
	if len(tail) > HistorySize {
		return false
	}
	off := HistorySize - len(tail)
	for i, c := range tail {
		if h[off+i] != c {
			return false
		}
	}
	return true
}

func (h History) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Event is a semantic transition derived from the history.
type Event int

const (
	EventNone Event = iota
	EventPrepared
	EventBufferingStart
	EventBufferingEnd
	EventCompletion
)

func (e Event) String() string {
	switch e {
	case EventPrepared:
		return "prepared"
	case EventBufferingStart:
		return "buffering_start"
	case EventBufferingEnd:
		return "buffering_end"
	case EventCompletion:
		return "completion"
	default:
		return "none"
	}
}

// LoopAction tells the caller what to do with the buffering-update loop.
type LoopAction int

const (
	LoopKeep LoopAction = iota
	LoopStart
	LoopStop
)

func (a LoopAction) String() string {
	switch a {
	case LoopStart:
		return "start"
	case LoopStop:
		return "stop"
	default:
		return "keep"
	}
}

// Transition is the outcome of one observed sample. The zero value means the
// sample repeated the most recent state and changed nothing.
type Transition struct {
	Changed bool
	Event   Event
	Loop    LoopAction
	// Previous is the most recent state before the sample.
	Previous Canonical
	// Current is the canonical value of the sample.
	Current Canonical
}

// rule matches the updated history. Rules are evaluated in order and the
// first match wins.
type rule struct {
	event Event
	match func(h *History) bool
}

var rules = []rule{
	{EventCompletion, func(h *History) bool {
		return h.MostRecent() == Encode(true, engine.StateEnded)
	}},
	{EventPrepared, func(h *History) bool {
		return h.endsWith(
			Encode(false, engine.StateIdle),
			Encode(false, engine.StateBuffering),
			Encode(false, engine.StateReady),
		)
	}},
	{EventBufferingStart, func(h *History) bool {
		return h.endsWith(
			Encode(true, engine.StateReady),
			Encode(true, engine.StateBuffering),
		)
	}},
	{EventBufferingEnd, func(h *History) bool {
		return h.endsWith(
			Encode(true, engine.StateBuffering),
			Encode(true, engine.StateReady),
		)
	}},
}

// Reconciler owns one History. It is not safe for concurrent use; callers
// feed it from their owning goroutine.
type Reconciler struct {
	history History
}

// New returns a reconciler in its reset state.
func New() *Reconciler {
	return &Reconciler{history: NewHistory()}
}

// Observe feeds one raw sample. Repeating the most recent canonical state is
// a no-op and returns the zero Transition.
func (r *Reconciler) Observe(playWhenReady bool, state engine.State) Transition {
	next := Encode(playWhenReady, state)
	prev := r.history.MostRecent()
	if next == prev {
		return Transition{}
	}
	r.history.push(next)

	t := Transition{Changed: true, Previous: prev, Current: next}
	for _, rl := range rules {
		if rl.match(&r.history) {
			t.Event = rl.event
			break
		}
	}

	switch state {
	case engine.StateReady:
		t.Loop = LoopStart
	case engine.StateIdle, engine.StateEnded:
		t.Loop = LoopStop
	}
	return t
}

// Reset returns the history to its initial state.
func (r *Reconciler) Reset() { r.history.Reset() }

// MostRecent returns the newest canonical state.
func (r *Reconciler) MostRecent() Canonical { return r.history.MostRecent() }

// History returns a copy of the window.
func (r *Reconciler) History() History { return r.history }
