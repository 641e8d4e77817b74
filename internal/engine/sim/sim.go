// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sim is an in-memory playback backend. It never touches media; it
// reproduces the raw callback sequences a real backend emits, including
// repeated samples, so the player can be exercised without a decoder.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Caij/iplayer/internal/engine"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/media"
	"github.com/Caij/iplayer/internal/surface"
)

// Config describes the simulated media.
type Config struct {
	Duration time.Duration
	Width    int
	Height   int
	// Rotation is reported with the video size, in degrees.
	Rotation int
	// PrepareError, when set, is reported instead of reaching Ready.
	PrepareError error
	// BufferStep is how much the buffered percentage grows per Advance.
	BufferStep int
}

// DefaultConfig is a ten-second 1080p clip.
func DefaultConfig() Config {
	return Config{Duration: 10 * time.Second, Width: 1920, Height: 1080, BufferStep: 10}
}

// Engine is a simulated backend. Callbacks are posted on the dispatcher it
// was created with, in the order the state changes happen.
type Engine struct {
	mu         sync.Mutex
	cfg        Config
	dispatcher looper.Dispatcher
	handler    engine.EventHandler
	logger     zerolog.Logger

	source        media.Source
	hasSource     bool
	prepared      bool
	playWhenReady bool
	state         engine.State
	position      time.Duration
	buffered      int
	looping       bool
	speed         float32
	volume        [2]float32
	surface       surface.Surface
	firstFrame    bool
	released      bool

	// pending holds callbacks queued under mu, posted once mu is released.
	pending []func()
}

var _ engine.Engine = (*Engine)(nil)

// New creates an idle engine.
func New(cfg Config, d looper.Dispatcher) *Engine {
	if cfg.BufferStep <= 0 {
		cfg.BufferStep = 10
	}
	return &Engine{
		cfg:        cfg,
		dispatcher: d,
		logger:     xglog.WithComponent("engine.sim"),
		state:      engine.StateIdle,
		speed:      1,
		volume:     [2]float32{1, 1},
	}
}

// SetEventHandler implements engine.Engine.
func (e *Engine) SetEventHandler(h engine.EventHandler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// SetDataSource implements engine.Engine.
func (e *Engine) SetDataSource(src media.Source) error {
	return e.do(func() error {
		if e.released {
			return fmt.Errorf("set data source: %w", engine.ErrIllegalState)
		}
		if !src.Type.Known() {
			return engine.ErrUnrecognizedFormat
		}
		e.source = src
		e.hasSource = true
		e.logger.Debug().Str(xglog.FieldContentType, src.Type.String()).Msg("data source set")
		return nil
	})
}

// PrepareAsync implements engine.Engine. Without a data source it waits
// idle, the way a real backend waits for its media source.
func (e *Engine) PrepareAsync() error {
	return e.do(e.prepareLocked)
}

func (e *Engine) prepareLocked() error {
	if e.released {
		return fmt.Errorf("prepare: %w", engine.ErrIllegalState)
	}
	e.emitStateLocked()
	if !e.hasSource {
		return nil
	}

	if e.cfg.PrepareError != nil {
		err := e.cfg.PrepareError
		e.state = engine.StateIdle
		e.postLocked(func(h engine.EventHandler) { h.OnError(err) })
		return nil
	}

	e.setStateLocked(engine.StateBuffering)
	e.buffered = e.cfg.BufferStep
	e.setStateLocked(engine.StateReady)
	// Real backends repeat the ready sample once the renderers settle.
	e.emitStateLocked()
	e.prepared = true

	w, h, rot := e.cfg.Width, e.cfg.Height, e.cfg.Rotation
	if w > 0 && h > 0 {
		e.postLocked(func(l engine.EventHandler) { l.OnVideoSizeChanged(w, h, rot) })
	}
	e.maybeFirstFrameLocked()
	return nil
}

// Start implements engine.Engine.
func (e *Engine) Start() error { return e.setPlayWhenReady(true) }

// Pause implements engine.Engine.
func (e *Engine) Pause() error { return e.setPlayWhenReady(false) }

func (e *Engine) setPlayWhenReady(pwr bool) error {
	return e.do(func() error {
		if e.released {
			return engine.ErrIllegalState
		}
		e.playWhenReady = pwr
		if e.state == engine.StateEnded && pwr {
			e.position = 0
			e.setStateLocked(engine.StateBuffering)
			e.setStateLocked(engine.StateReady)
			return nil
		}
		e.emitStateLocked()
		return nil
	})
}

// Stop implements engine.Engine.
func (e *Engine) Stop() error {
	return e.do(func() error {
		if e.released {
			return engine.ErrIllegalState
		}
		e.prepared = false
		e.setStateLocked(engine.StateIdle)
		return nil
	})
}

// SeekTo implements engine.Engine.
func (e *Engine) SeekTo(pos time.Duration) error {
	return e.do(func() error {
		if e.released || !e.prepared {
			return engine.ErrIllegalState
		}
		if pos < 0 {
			pos = 0
		}
		if e.cfg.Duration > 0 && pos > e.cfg.Duration {
			pos = e.cfg.Duration
		}
		e.position = pos
		e.setStateLocked(engine.StateBuffering)
		e.setStateLocked(engine.StateReady)
		e.postLocked(func(h engine.EventHandler) { h.OnSeekProcessed() })
		return nil
	})
}

// Reset implements engine.Engine. No callbacks are emitted.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = media.Source{}
	e.hasSource = false
	e.prepared = false
	e.playWhenReady = false
	e.state = engine.StateIdle
	e.position = 0
	e.buffered = 0
	e.firstFrame = false
}

// Release implements engine.Engine. Pending callbacks are dropped.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
	e.handler = nil
	e.surface = nil
	e.pending = nil
}

// Duration implements engine.Engine.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared {
		return 0
	}
	return e.cfg.Duration
}

// CurrentPosition implements engine.Engine.
func (e *Engine) CurrentPosition() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// VideoSize implements engine.Engine.
func (e *Engine) VideoSize() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared {
		return 0, 0
	}
	return e.cfg.Width, e.cfg.Height
}

// IsPlaying implements engine.Engine.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playWhenReady && (e.state == engine.StateReady || e.state == engine.StateBuffering)
}

// BufferedPercentage implements engine.Engine.
func (e *Engine) BufferedPercentage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffered
}

// SetVolume implements engine.Engine.
func (e *Engine) SetVolume(left, right float32) {
	e.mu.Lock()
	e.volume = [2]float32{left, right}
	e.mu.Unlock()
}

// Volume returns the last volume set.
func (e *Engine) Volume() (float32, float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume[0], e.volume[1]
}

// SetSpeed implements engine.Engine.
func (e *Engine) SetSpeed(rate float32) {
	if rate <= 0 {
		return
	}
	e.mu.Lock()
	e.speed = rate
	e.mu.Unlock()
}

// Speed returns the playback rate.
func (e *Engine) Speed() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetLooping implements engine.Engine.
func (e *Engine) SetLooping(looping bool) {
	e.mu.Lock()
	e.looping = looping
	e.mu.Unlock()
}

// SetSurface implements engine.Engine.
func (e *Engine) SetSurface(s surface.Surface) {
	_ = e.do(func() error {
		if e.released {
			return nil
		}
		e.surface = s
		e.maybeFirstFrameLocked()
		return nil
	})
}

// Surface returns the surface currently rendered to.
func (e *Engine) Surface() surface.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// Source returns the data source set.
func (e *Engine) Source() media.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Advance moves the playhead by d while playing. Reaching the end either
// loops or reports Ended.
func (e *Engine) Advance(d time.Duration) {
	_ = e.do(func() error {
		e.advanceLocked(d)
		return nil
	})
}

func (e *Engine) advanceLocked(d time.Duration) {
	if e.released || !e.prepared {
		return
	}
	if e.buffered < 100 {
		e.buffered += e.cfg.BufferStep
		if e.buffered > 100 {
			e.buffered = 100
		}
	}
	if !e.playWhenReady || e.state != engine.StateReady {
		return
	}
	e.position += time.Duration(float64(d) * float64(e.speed))
	if e.cfg.Duration <= 0 || e.position < e.cfg.Duration {
		return
	}
	if e.looping {
		e.position = 0
		return
	}
	e.position = e.cfg.Duration
	e.buffered = 100
	e.setStateLocked(engine.StateEnded)
	// The ended sample repeats until the application reacts.
	e.emitStateLocked()
}

// Rebuffer simulates a stall: Buffering, then Ready again.
func (e *Engine) Rebuffer() {
	_ = e.do(func() error {
		if e.released || e.state != engine.StateReady {
			return nil
		}
		e.setStateLocked(engine.StateBuffering)
		e.emitStateLocked()
		e.setStateLocked(engine.StateReady)
		return nil
	})
}

// Fail reports err as a playback error.
func (e *Engine) Fail(err error) {
	_ = e.do(func() error {
		if !e.released {
			e.postLocked(func(h engine.EventHandler) { h.OnError(err) })
		}
		return nil
	})
}

// Ended reports whether playback reached the end.
func (e *Engine) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == engine.StateEnded
}

// Run advances the playhead every step until ctx is done, playback ends or
// the engine is released.
func (e *Engine) Run(ctx context.Context, step time.Duration) error {
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Advance(step)
			e.mu.Lock()
			done := e.released || e.state == engine.StateEnded
			e.mu.Unlock()
			if done {
				return nil
			}
		}
	}
}

func (e *Engine) setStateLocked(s engine.State) {
	e.state = s
	e.emitStateLocked()
}

func (e *Engine) emitStateLocked() {
	pwr, s := e.playWhenReady, e.state
	e.postLocked(func(h engine.EventHandler) { h.OnStateChanged(pwr, s) })
}

func (e *Engine) maybeFirstFrameLocked() {
	if e.firstFrame || !e.prepared || e.surface == nil {
		return
	}
	e.firstFrame = true
	e.postLocked(func(h engine.EventHandler) { h.OnRenderedFirstFrame() })
}

// do runs fn under mu, then posts the callbacks fn queued. Handlers may
// call back into the engine.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	err := fn()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, p := range pending {
		e.dispatcher.Post(p)
	}
	return err
}

// postLocked queues fn for the handler installed at delivery time.
func (e *Engine) postLocked(fn func(engine.EventHandler)) {
	e.pending = append(e.pending, func() {
		e.mu.Lock()
		h := e.handler
		released := e.released
		e.mu.Unlock()
		if h == nil || released {
			return
		}
		fn(h)
	})
}
