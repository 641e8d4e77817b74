// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

// InfoKind is an informational event delivered to observers.
type InfoKind int

const (
	// InfoBufferingStart carries the buffered percentage.
	InfoBufferingStart InfoKind = iota + 1
	// InfoBufferingEnd carries the buffered percentage.
	InfoBufferingEnd
	// InfoVideoRenderingStart fires once the first frame reaches the surface.
	InfoVideoRenderingStart
	// InfoRotationChanged carries the rotation in degrees.
	InfoRotationChanged
)

func (k InfoKind) String() string {
	switch k {
	case InfoBufferingStart:
		return "buffering_start"
	case InfoBufferingEnd:
		return "buffering_end"
	case InfoVideoRenderingStart:
		return "video_rendering_start"
	case InfoRotationChanged:
		return "rotation_changed"
	default:
		return "unknown"
	}
}
