// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package shutter binds a video widget to a player: it blanks the widget
// with a shutter until the first frame is ready, keeps the widget's aspect
// ratio in step with the video and attaches the widget's drawing surface.
package shutter

import (
	"fmt"
	"sync"

	"github.com/Caij/iplayer/internal/engine"
	"github.com/Caij/iplayer/internal/player"
	"github.com/Caij/iplayer/internal/surface"
)

// View is the widget side of a binding.
type View interface {
	SetShutterVisible(visible bool)
	SetAspectRatio(widthHeightRatio float64)
	// Display returns the drawing view: a surface.SurfaceView or a
	// surface.TextureView.
	Display() any
}

// Binder connects one player to at most one View at a time.
type Binder struct {
	player *player.Player

	mu   sync.Mutex
	view View
}

// NewBinder registers the binder's listeners on p.
func NewBinder(p *player.Player) *Binder {
	b := &Binder{player: p}
	p.Observe(b)
	return b
}

// Bind shows v's shutter and attaches its display to the player. If the
// player is already playing, the shutter is lifted at once.
func (b *Binder) Bind(v View) error {
	if v == nil {
		return b.Unbind()
	}
	v.SetShutterVisible(true)
	if b.player.IsPlaying() {
		if w, h := b.player.VideoSize(); h > 0 {
			v.SetAspectRatio(float64(w) / float64(h))
		}
		v.SetShutterVisible(false)
	}

	var err error
	switch d := v.Display().(type) {
	case surface.SurfaceView:
		err = b.player.SetSurfaceView(d)
	case surface.TextureView:
		err = b.player.SetTextureView(d)
	default:
		err = fmt.Errorf("unsupported display %T", d)
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
	return nil
}

// Unbind detaches the bound view's display, if any.
func (b *Binder) Unbind() error {
	b.mu.Lock()
	v := b.view
	b.view = nil
	b.mu.Unlock()
	if v == nil {
		return nil
	}

	switch d := v.Display().(type) {
	case surface.SurfaceView:
		return b.player.ClearSurfaceView(d)
	case surface.TextureView:
		return b.player.ClearTextureView(d)
	}
	return nil
}

// Close unregisters the binder's listeners.
func (b *Binder) Close() {
	b.player.Unobserve(b)
}

func (b *Binder) current() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// OnInfo implements player.InfoListener.
func (b *Binder) OnInfo(_ *player.Player, kind engine.InfoKind, _ int) bool {
	if kind == engine.InfoVideoRenderingStart {
		if v := b.current(); v != nil {
			v.SetShutterVisible(false)
		}
	}
	return false
}

// OnVideoSizeChanged implements player.VideoSizeChangedListener.
func (b *Binder) OnVideoSizeChanged(_ *player.Player, width, height int) {
	if height <= 0 {
		return
	}
	if v := b.current(); v != nil {
		v.SetAspectRatio(float64(width) / float64(height))
	}
}

// OnPrepared implements player.PreparedListener. Some backends never report
// the first rendered frame, so preparing also lifts the shutter.
func (b *Binder) OnPrepared(*player.Player) {
	if v := b.current(); v != nil {
		v.SetShutterVisible(false)
	}
}
