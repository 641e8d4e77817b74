// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package surface

import (
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/metrics"
)

// Binding is the current output target.
type Binding struct {
	Surface Surface
	// Owned is true when the Manager created the handle and must release it.
	Owned bool
}

// Manager keeps at most one current Binding and swaps it as view providers
// come and go. All methods and view callbacks are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sink     Sink
	logger   zerolog.Logger
	current  Binding
	holder   Holder
	texView  TextureView
	reg      *registration
	released bool
}

// NewManager creates a manager that pushes every binding into sink.
func NewManager(sink Sink, logger *zerolog.Logger) *Manager {
	l := xglog.WithComponent("surface")
	if logger != nil {
		l = logger.With().Str(xglog.FieldComponent, "surface").Logger()
	}
	return &Manager{sink: sink, logger: l}
}

// SetSurfaceView binds the view's holder; nil detaches.
func (m *Manager) SetSurfaceView(v SurfaceView) error {
	var h Holder
	if v != nil {
		h = v.Holder()
	}
	return m.SetHolder(h)
}

// SetHolder registers for h's callbacks and binds its current surface, if
// valid. nil detaches and binds nil.
func (m *Manager) SetHolder(h Holder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrReleased
	}

	m.removeCallbacksLocked()
	if h == nil {
		m.bindLocked(nil, false, "holder_cleared")
		return nil
	}

	m.holder = h
	m.reg = &registration{m: m, holder: h}
	h.AddCallback(m.reg)

	s := h.Surface()
	if s != nil && !s.Valid() {
		s = nil
	}
	m.bindLocked(s, false, "holder_set")
	return nil
}

// SetTextureView registers for v's texture callbacks and binds a surface
// created from its texture, if available. nil detaches and binds nil.
func (m *Manager) SetTextureView(v TextureView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrReleased
	}

	m.removeCallbacksLocked()
	if v == nil {
		m.bindLocked(nil, true, "texture_view_cleared")
		return nil
	}

	m.texView = v
	m.reg = &registration{m: m, texView: v}
	v.SetTextureListener(m.reg)

	var s Surface
	if t := v.Texture(); t != nil {
		s = t.NewSurface()
	}
	m.bindLocked(s, true, "texture_view_set")
	return nil
}

// ClearSurfaceView detaches only if v is the currently bound surface view.
func (m *Manager) ClearSurfaceView(v SurfaceView) error {
	if v == nil {
		return nil
	}
	m.mu.Lock()
	match := m.holder != nil && v.Holder() == m.holder
	m.mu.Unlock()
	if !match {
		return nil
	}
	return m.SetHolder(nil)
}

// ClearTextureView detaches only if v is the currently bound texture view.
func (m *Manager) ClearTextureView(v TextureView) error {
	if v == nil {
		return nil
	}
	m.mu.Lock()
	match := m.texView != nil && m.texView == v
	m.mu.Unlock()
	if !match {
		return nil
	}
	return m.SetTextureView(nil)
}

// Clear detaches whichever view provider is bound.
func (m *Manager) Clear() error {
	m.mu.Lock()
	hasTexture := m.texView != nil
	hasHolder := m.holder != nil
	m.mu.Unlock()

	switch {
	case hasTexture:
		return m.SetTextureView(nil)
	case hasHolder:
		return m.SetHolder(nil)
	}
	return nil
}

// Current returns the current binding.
func (m *Manager) Current() Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Release removes view registrations and releases an owned surface without
// touching the sink. Further binding calls return ErrReleased and late view
// callbacks are ignored. Release is idempotent.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return
	}
	m.released = true

	m.removeCallbacksLocked()
	if m.current.Surface != nil && m.current.Owned {
		m.current.Surface.Release()
		metrics.IncSurfaceRelease("release")
		m.logger.Debug().Str("event", "surface.released").Msg("released owned surface")
	}
	m.current = Binding{}
}

// bindLocked hands s to the sink, then releases the previous handle if the
// manager owned it and it differs from s.
func (m *Manager) bindLocked(s Surface, owned bool, origin string) {
	m.sink.SetSurface(s)

	prev := m.current
	if prev.Surface != nil && prev.Surface != s && prev.Owned {
		prev.Surface.Release()
		metrics.IncSurfaceRelease("rebind")
	}
	m.current = Binding{Surface: s, Owned: owned}

	m.logger.Debug().
		Str(xglog.FieldOrigin, origin).
		Bool(xglog.FieldSurface, s != nil).
		Bool(xglog.FieldOwned, owned).
		Msg("surface bound")
}

// removeCallbacksLocked makes callback registration exclusive: the previous
// provider is detached before a new one is attached.
func (m *Manager) removeCallbacksLocked() {
	if m.reg != nil {
		m.reg.detached = true
	}
	if m.texView != nil {
		if m.texView.TextureListener() != TextureListener(m.reg) {
			m.logger.Warn().Msg("texture listener already unset or replaced")
		} else {
			m.texView.SetTextureListener(nil)
		}
		m.texView = nil
	}
	if m.holder != nil {
		m.holder.RemoveCallback(m.reg)
		m.holder = nil
	}
	m.reg = nil
}

// callback handles a view event for reg, ignoring it when reg is stale.
func (m *Manager) callback(reg *registration, s Surface, owned bool, origin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released || reg.detached || reg != m.reg {
		m.logger.Debug().Str(xglog.FieldOrigin, origin).Msg("ignoring stale surface callback")
		if owned && s != nil {
			s.Release()
		}
		return
	}
	m.bindLocked(s, owned, origin)
}

// registration is the callback identity handed to one view provider.
// Guarded by Manager.mu.
type registration struct {
	m        *Manager
	holder   Holder
	texView  TextureView
	detached bool
}

func (r *registration) SurfaceCreated(h Holder) {
	r.m.callback(r, h.Surface(), false, "surface_created")
}

func (r *registration) SurfaceChanged(Holder, int, int, int) {}

func (r *registration) SurfaceDestroyed(Holder) {
	r.m.callback(r, nil, false, "surface_destroyed")
}

func (r *registration) TextureAvailable(t Texture, _, _ int) {
	r.m.callback(r, t.NewSurface(), true, "texture_available")
}

func (r *registration) TextureSizeChanged(Texture, int, int) {}

func (r *registration) TextureDestroyed(Texture) bool {
	r.m.callback(r, nil, true, "texture_destroyed")
	return false
}

func (r *registration) TextureUpdated(Texture) {}
