// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"github.com/Caij/iplayer/internal/engine"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/metrics"
	"github.com/Caij/iplayer/internal/reconcile"
)

// engineEvents is the player's single registration on the engine.
type engineEvents struct {
	p *Player
}

var _ engine.EventHandler = (*engineEvents)(nil)

func (h *engineEvents) OnStateChanged(playWhenReady bool, state engine.State) {
	h.p.onStateChanged(playWhenReady, state)
}

func (h *engineEvents) OnError(err error) bool {
	if !h.p.running() {
		return false
	}
	h.p.handleError(err)
	return true
}

func (h *engineEvents) OnSeekProcessed() {
	p := h.p
	if !p.running() {
		return
	}
	metrics.IncPlayerEvent("seek_complete")
	p.seekComplete.each(func(l SeekCompleteListener) { l.OnSeekComplete(p) })
}

func (h *engineEvents) OnVideoSizeChanged(width, height, rotationDegrees int) {
	p := h.p
	p.mu.Lock()
	if !p.status.running() {
		p.mu.Unlock()
		return
	}
	p.width, p.height = width, height
	p.mu.Unlock()

	metrics.IncPlayerEvent("video_size_changed")
	p.sizeChanged.each(func(l VideoSizeChangedListener) { l.OnVideoSizeChanged(p, width, height) })
	if rotationDegrees > 0 {
		p.emitInfo(engine.InfoRotationChanged, rotationDegrees)
	}
}

func (h *engineEvents) OnRenderedFirstFrame() {
	if !h.p.running() {
		return
	}
	h.p.emitInfo(engine.InfoVideoRenderingStart, 0)
}

func (p *Player) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.running()
}

func (p *Player) onStateChanged(playWhenReady bool, state engine.State) {
	p.mu.Lock()
	if !p.status.running() {
		p.mu.Unlock()
		return
	}
	t := p.reconciler.Observe(playWhenReady, state)
	if !t.Changed {
		p.mu.Unlock()
		return
	}
	if t.Event == reconcile.EventPrepared && p.status == StatusPreparing {
		p.setStatusLocked(StatusPrepared)
	}
	p.mu.Unlock()

	p.logger.Trace().
		Str(xglog.FieldOldState, t.Previous.String()).
		Str(xglog.FieldNewState, t.Current.String()).
		Str(xglog.FieldEvent, t.Event.String()).
		Msg("engine state")

	switch t.Loop {
	case reconcile.LoopStart:
		if p.bufferingUpdate.len() > 0 {
			p.repeater.Start()
		}
	case reconcile.LoopStop:
		p.repeater.Stop()
	}

	switch t.Event {
	case reconcile.EventPrepared:
		metrics.IncPlayerEvent("prepared")
		p.prepared.each(func(l PreparedListener) { l.OnPrepared(p) })
	case reconcile.EventCompletion:
		metrics.IncPlayerEvent("completion")
		p.completion.each(func(l CompletionListener) { l.OnCompletion(p) })
	case reconcile.EventBufferingStart:
		p.emitInfo(engine.InfoBufferingStart, p.engine.BufferedPercentage())
	case reconcile.EventBufferingEnd:
		p.emitInfo(engine.InfoBufferingEnd, p.engine.BufferedPercentage())
	}
}

// handleError stops the buffering loop and reports err once to every error
// listener.
func (p *Player) handleError(err error) {
	p.repeater.Stop()
	kind, extra := engine.Classify(err)
	metrics.IncPlayerError(kind.String())
	p.logger.Warn().
		Err(err).
		Str(xglog.FieldErrorKind, kind.String()).
		Int(xglog.FieldErrorExtra, extra).
		Msg("playback error")
	p.errorListeners.each(func(l ErrorListener) { _ = l.OnError(p, kind, extra) })
}

func (p *Player) emitInfo(kind engine.InfoKind, extra int) {
	metrics.IncPlayerEvent(kind.String())
	p.info.each(func(l InfoListener) { _ = l.OnInfo(p, kind, extra) })
}

// onBufferingTick runs on the dispatcher. Returning false stops the loop.
func (p *Player) onBufferingTick() bool {
	p.mu.Lock()
	status := p.status
	state := p.reconciler.MostRecent().State()
	p.mu.Unlock()

	if status == StatusReleased || p.bufferingUpdate.len() == 0 ||
		(state != engine.StateReady && state != engine.StateBuffering) {
		return false
	}
	percent := p.engine.BufferedPercentage()
	metrics.IncPlayerEvent("buffering_update")
	p.bufferingUpdate.each(func(l BufferingUpdateListener) { l.OnBufferingUpdate(p, percent) })
	return true
}

// maybeStartBufferingLoop starts the loop when a listener arrives while the
// source is ready or buffering.
func (p *Player) maybeStartBufferingLoop() {
	p.mu.Lock()
	status := p.status
	state := p.reconciler.MostRecent().State()
	p.mu.Unlock()
	if status.running() && (state == engine.StateReady || state == engine.StateBuffering) {
		p.repeater.Start()
	}
}
