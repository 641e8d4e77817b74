// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine defines the capability surface every playback backend
// implements. The player never branches on which backend it drives.
package engine

import (
	"time"

	"github.com/Caij/iplayer/internal/media"
	"github.com/Caij/iplayer/internal/surface"
)

// State is the level-triggered playback state a backend reports.
type State int

const (
	StateIdle      State = 1
	StateBuffering State = 2
	StateReady     State = 3
	StateEnded     State = 4
)

// String returns a human-readable label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EventHandler receives raw backend callbacks. Backends deliver them on the
// dispatcher they were constructed with.
type EventHandler interface {
	// OnStateChanged may repeat the previous sample.
	OnStateChanged(playWhenReady bool, state State)
	// OnError reports a playback failure. The return value tells the
	// backend whether to skip its default error handling.
	OnError(err error) bool
	OnSeekProcessed()
	// OnVideoSizeChanged carries the rotation the backend did not apply.
	OnVideoSizeChanged(width, height, rotationDegrees int)
	OnRenderedFirstFrame()
}

// Engine is a playback backend.
type Engine interface {
	SetDataSource(src media.Source) error
	PrepareAsync() error
	Start() error
	Pause() error
	Stop() error
	SeekTo(pos time.Duration) error
	Reset()
	Release()

	Duration() time.Duration
	CurrentPosition() time.Duration
	VideoSize() (width, height int)
	IsPlaying() bool
	// BufferedPercentage is in 0..100.
	BufferedPercentage() int

	SetVolume(left, right float32)
	SetSpeed(rate float32)
	SetLooping(looping bool)

	// SetSurface points rendering at s; nil stops rendering immediately.
	SetSurface(s surface.Surface)

	// SetEventHandler replaces the single raw callback slot. nil detaches.
	SetEventHandler(h EventHandler)
}
