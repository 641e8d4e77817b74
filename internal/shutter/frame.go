// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shutter

import "sync"

// Frame is a headless View: it records shutter visibility and aspect ratio
// and lays the video out in a fixed viewport.
type Frame struct {
	mu             sync.Mutex
	display        any
	mode           ResizeMode
	viewportWidth  int
	viewportHeight int
	aspect         float64
	shutterVisible bool
}

// NewFrame creates a frame around display for a width x height viewport.
func NewFrame(display any, mode ResizeMode, width, height int) *Frame {
	return &Frame{display: display, mode: mode, viewportWidth: width, viewportHeight: height}
}

// Display implements View.
func (f *Frame) Display() any { return f.display }

// SetShutterVisible implements View.
func (f *Frame) SetShutterVisible(visible bool) {
	f.mu.Lock()
	f.shutterVisible = visible
	f.mu.Unlock()
}

// ShutterVisible reports whether the shutter is shown.
func (f *Frame) ShutterVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutterVisible
}

// SetAspectRatio implements View.
func (f *Frame) SetAspectRatio(ratio float64) {
	f.mu.Lock()
	f.aspect = ratio
	f.mu.Unlock()
}

// AspectRatio returns the last aspect ratio set.
func (f *Frame) AspectRatio() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aspect
}

// SetResizeMode changes how the video is fitted.
func (f *Frame) SetResizeMode(mode ResizeMode) {
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
}

// Layout returns the video box inside the viewport.
func (f *Frame) Layout() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Measure(f.mode, f.aspect, f.viewportWidth, f.viewportHeight)
}
