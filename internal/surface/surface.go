// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package surface owns the video output target and hands it between view
// providers without leaking or double-releasing a handle.
package surface

// Surface is an opaque drawing target frames are rendered into.
type Surface interface {
	Valid() bool
	Release()
}

// Sink is the consumer of the current surface, normally the playback engine.
type Sink interface {
	SetSurface(s Surface)
}

// HolderCallback receives lifecycle events from a Holder.
type HolderCallback interface {
	SurfaceCreated(h Holder)
	SurfaceChanged(h Holder, format, width, height int)
	SurfaceDestroyed(h Holder)
}

// Holder hands out a surface it owns. Surfaces from a Holder are never
// released by the Manager. AddCallback and RemoveCallback must not invoke
// callbacks synchronously.
type Holder interface {
	AddCallback(cb HolderCallback)
	RemoveCallback(cb HolderCallback)
	// Surface returns the current surface, or nil.
	Surface() Surface
}

// SurfaceView is a view that renders through a Holder.
type SurfaceView interface {
	Holder() Holder
}

// Texture produces surfaces. Each call returns a new handle the caller owns.
type Texture interface {
	NewSurface() Surface
}

// TextureListener receives lifecycle events from a TextureView.
type TextureListener interface {
	TextureAvailable(t Texture, width, height int)
	TextureSizeChanged(t Texture, width, height int)
	// TextureDestroyed reports whether the view may free the texture itself.
	TextureDestroyed(t Texture) bool
	TextureUpdated(t Texture)
}

// TextureView is a view that renders through a Texture. SetTextureListener
// must not invoke the listener synchronously.
type TextureView interface {
	SetTextureListener(l TextureListener)
	TextureListener() TextureListener
	// Texture returns the texture if available, or nil.
	Texture() Texture
}
