// Package scene is a small retained-mode scene graph: a Stage holding a
// stack of actors, redraw-region tracking, and frame-driven timelines.
//
// Everything in this package runs on the compositor's event-loop goroutine
// and does no locking.
package scene

import "github.com/1broseidon/compshell/internal/platform"

// Texture is a renderer-side binding of a window-system pixmap.
type Texture interface {
	// UpdateArea refreshes the given sub-rectangle (texture coordinates)
	// from the underlying pixmap.
	UpdateArea(r platform.Rect)
	// Release drops the binding. The pixmap itself is not freed.
	Release()
}

// Renderer draws a frame. Calls to DrawTexture happen between Begin and End,
// back to front.
type Renderer interface {
	BindPixmap(p platform.Pixmap, format platform.PixelFormat, width, height int) (Texture, error)
	Begin(background uint32, clip []platform.Rect)
	DrawTexture(t Texture, dst platform.Rect, opacity uint8)
	End()
}
