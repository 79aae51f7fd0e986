package compositor

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

// WindowActor displays the live contents of one client window. It owns the
// pixmap bound to it: rebinding, unbinding and destroying all free the
// previous pixmap after releasing its texture.
type WindowActor struct {
	scene.Node

	ws     platform.Compositing
	logger *slog.Logger
	record *Record

	pixmap   platform.Pixmap
	format   platform.PixelFormat
	border   int
	texture  scene.Texture
	renderer scene.Renderer
}

var _ scene.Actor = (*WindowActor)(nil)

// NewWindowActor returns a hidden actor for win.
func NewWindowActor(ws platform.Compositing, win platform.WindowID, logger *slog.Logger) *WindowActor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowActor{
		Node:   scene.NewNode(fmt.Sprintf("0x%x", uint32(win))),
		ws:     ws,
		logger: logger,
	}
}

// SetBoundCompositedWindow sets the record activation is forwarded to.
func (a *WindowActor) SetBoundCompositedWindow(r *Record) {
	a.record = r
}

// Record returns the bound record, or nil.
func (a *WindowActor) Record() *Record {
	return a.record
}

// Activate forwards to the bound record.
func (a *WindowActor) Activate() {
	if a.record == nil {
		return
	}
	a.record.Activate()
}

// Pixmap returns the bound pixmap, zero if none.
func (a *WindowActor) Pixmap() platform.Pixmap {
	return a.pixmap
}

// Bound reports whether a texture is currently bound.
func (a *WindowActor) Bound() bool {
	return a.texture != nil
}

// SetPixmap takes ownership of p, replacing any previous pixmap.
func (a *WindowActor) SetPixmap(p platform.Pixmap, format platform.PixelFormat) {
	if p == a.pixmap {
		return
	}
	a.UnsetPixmap()
	a.pixmap = p
	a.format = format
	a.bind()
	a.QueueRedraw()
}

// UnsetPixmap releases the texture and frees the bound pixmap.
func (a *WindowActor) UnsetPixmap() {
	a.releaseTexture()
	if a.pixmap != 0 {
		a.ws.FreePixmap(a.pixmap)
		a.pixmap = 0
	}
}

// SetBorderWidth sets the window border. The named pixmap includes it, so
// damage, which is relative to the inside of the border, is shifted by it.
func (a *WindowActor) SetBorderWidth(bw int) {
	a.border = bw
}

// BorderWidth returns the window border width.
func (a *WindowActor) BorderWidth() int { return a.border }

// UpdateArea refreshes r, given relative to the inside of the window border,
// and schedules it for repaint.
func (a *WindowActor) UpdateArea(r platform.Rect) {
	r = r.Translate(a.border, a.border)
	if a.texture != nil {
		a.texture.UpdateArea(r)
	}
	a.QueueRedrawArea(r)
}

func (a *WindowActor) Paint(r scene.Renderer) {
	if a.texture == nil {
		return
	}
	r.DrawTexture(a.texture, a.Geometry(), a.Opacity())
}

func (a *WindowActor) Realize(r scene.Renderer) {
	a.renderer = r
	a.bind()
}

func (a *WindowActor) Unrealize() {
	a.releaseTexture()
	a.renderer = nil
}

// Destroy takes the actor off its stage and frees its pixmap.
func (a *WindowActor) Destroy() {
	if st := a.Stage(); st != nil {
		st.Remove(a)
	}
	a.UnsetPixmap()
	a.record = nil
}

func (a *WindowActor) bind() {
	if a.renderer == nil || a.pixmap == 0 || a.texture != nil {
		return
	}
	g := a.Geometry()
	t, err := a.renderer.BindPixmap(a.pixmap, a.format, g.Width, g.Height)
	if err != nil {
		a.logger.Warn("failed to bind window pixmap", "window", a.Name(), "error", err)
		return
	}
	a.texture = t
}

func (a *WindowActor) releaseTexture() {
	if a.texture == nil {
		return
	}
	a.texture.Release()
	a.texture = nil
}
