// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shutter

import (
	"fmt"
	"math"
	"strings"
)

// ResizeMode selects how the video box is fitted into the viewport.
type ResizeMode int

const (
	// ResizeFit shrinks one dimension to match the video aspect ratio.
	ResizeFit ResizeMode = iota
	// ResizeFixedWidth keeps the width and derives the height.
	ResizeFixedWidth
	// ResizeFixedHeight keeps the height and derives the width.
	ResizeFixedHeight
	// ResizeFill ignores the video aspect ratio.
	ResizeFill
	// ResizeZoom grows one dimension to match the video aspect ratio.
	ResizeZoom
)

// maxAspectDeformation is the relative aspect mismatch below which the
// viewport is used unchanged.
const maxAspectDeformation = 0.01

var resizeModeNames = []string{"fit", "fixed_width", "fixed_height", "fill", "zoom"}

func (m ResizeMode) String() string {
	if int(m) >= 0 && int(m) < len(resizeModeNames) {
		return resizeModeNames[m]
	}
	return "unknown"
}

// ParseResizeMode parses a mode name as printed by String.
func ParseResizeMode(s string) (ResizeMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range resizeModeNames {
		if n == name {
			return ResizeMode(i), nil
		}
	}
	return ResizeFit, fmt.Errorf("unknown resize mode %q", s)
}

// Measure returns the video box for a width x height viewport. A
// non-positive aspect ratio leaves the viewport unchanged.
func Measure(mode ResizeMode, videoAspect float64, width, height int) (int, int) {
	if videoAspect <= 0 || width <= 0 || height <= 0 {
		return width, height
	}
	viewAspect := float64(width) / float64(height)
	deformation := videoAspect/viewAspect - 1
	if math.Abs(deformation) <= maxAspectDeformation {
		return width, height
	}

	switch mode {
	case ResizeFixedWidth:
		height = int(float64(width) / videoAspect)
	case ResizeFixedHeight:
		width = int(float64(height) * videoAspect)
	case ResizeZoom:
		if deformation > 0 {
			width = int(float64(height) * videoAspect)
		} else {
			height = int(float64(width) / videoAspect)
		}
	case ResizeFit:
		if deformation > 0 {
			height = int(float64(width) / videoAspect)
		} else {
			width = int(float64(height) * videoAspect)
		}
	case ResizeFill:
	}
	return width, height
}
