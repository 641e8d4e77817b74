// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"sync"

	"github.com/Caij/iplayer/internal/surface"
)

// offscreen is a texture view whose texture exists from the start.
type offscreen struct {
	mu       sync.Mutex
	listener surface.TextureListener
}

func (o *offscreen) SetTextureListener(l surface.TextureListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

func (o *offscreen) TextureListener() surface.TextureListener {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listener
}

func (o *offscreen) Texture() surface.Texture { return offscreenTexture{} }

type offscreenTexture struct{}

func (offscreenTexture) NewSurface() surface.Surface { return &offscreenSurface{} }

type offscreenSurface struct {
	mu       sync.Mutex
	released bool
}

func (s *offscreenSurface) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.released
}

func (s *offscreenSurface) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}
