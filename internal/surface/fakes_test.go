// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package surface

import (
	"fmt"
	"sync"
)

// callLog records sink and release calls in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeSurface struct {
	name     string
	log      *callLog
	mu       sync.Mutex
	released int
	invalid  bool
}

func (s *fakeSurface) Valid() bool { return !s.invalid }

func (s *fakeSurface) Release() {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
	s.log.add("release:" + s.name)
}

func (s *fakeSurface) Released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type fakeSink struct{ log *callLog }

func (k *fakeSink) SetSurface(s Surface) {
	if s == nil {
		k.log.add("sink:nil")
		return
	}
	k.log.add("sink:" + s.(*fakeSurface).name)
}

type fakeHolder struct {
	surface   Surface
	callbacks []HolderCallback
}

func (h *fakeHolder) AddCallback(cb HolderCallback) { h.callbacks = append(h.callbacks, cb) }

func (h *fakeHolder) RemoveCallback(cb HolderCallback) {
	for i, c := range h.callbacks {
		if c == cb {
			h.callbacks = append(h.callbacks[:i], h.callbacks[i+1:]...)
			return
		}
	}
}

func (h *fakeHolder) Surface() Surface { return h.surface }

func (h *fakeHolder) created() {
	for _, cb := range append([]HolderCallback(nil), h.callbacks...) {
		cb.SurfaceCreated(h)
	}
}

func (h *fakeHolder) destroyed() {
	for _, cb := range append([]HolderCallback(nil), h.callbacks...) {
		cb.SurfaceDestroyed(h)
	}
}

type fakeSurfaceView struct{ holder *fakeHolder }

func (v *fakeSurfaceView) Holder() Holder { return v.holder }

type fakeTexture struct {
	log *callLog
	mu  sync.Mutex
	n   int
	// made records every surface handed out.
	made []*fakeSurface
	name string
}

func (t *fakeTexture) NewSurface() Surface {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	s := &fakeSurface{name: fmt.Sprintf("%s#%d", t.name, t.n), log: t.log}
	t.made = append(t.made, s)
	return s
}

func (t *fakeTexture) surfaces() []*fakeSurface {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*fakeSurface(nil), t.made...)
}

type fakeTextureView struct {
	mu       sync.Mutex
	texture  *fakeTexture
	listener TextureListener
}

func (v *fakeTextureView) SetTextureListener(l TextureListener) {
	v.mu.Lock()
	v.listener = l
	v.mu.Unlock()
}

func (v *fakeTextureView) TextureListener() TextureListener {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listener
}

func (v *fakeTextureView) Texture() Texture {
	if v.texture == nil {
		return nil
	}
	return v.texture
}

func (v *fakeTextureView) available(t *fakeTexture) {
	v.texture = t
	if l := v.TextureListener(); l != nil {
		l.TextureAvailable(t, 1920, 1080)
	}
}

func (v *fakeTextureView) destroyed() {
	t := v.texture
	v.texture = nil
	if l := v.TextureListener(); l != nil {
		l.TextureDestroyed(t)
	}
}
