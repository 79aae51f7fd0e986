// Package xrender paints the scene with the X Render extension. Frames are
// built in an off-screen back buffer and copied to the stage surface in one
// request, so the surface never shows a half-drawn frame.
package xrender

import (
	"fmt"

	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
	"github.com/1broseidon/compshell/internal/x11"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
)

// Renderer implements scene.Renderer on top of Render pictures.
type Renderer struct {
	conn    *x11.Connection
	formats *x11.PictFormats
	width   int
	height  int

	surface  render.Picture
	back     xproto.Pixmap
	backPic  render.Picture
	masks    map[uint8]render.Picture
	clip     []xproto.Rectangle
	textures map[*texture]struct{}
}

var _ scene.Renderer = (*Renderer)(nil)

// New creates a renderer drawing into the surface window.
func New(conn *x11.Connection, surface platform.WindowID, width, height int) (*Renderer, error) {
	formats, err := conn.QueryPictFormats()
	if err != nil {
		return nil, err
	}
	rootFormat, ok := formats.ForVisual(uint32(conn.Screen.RootVisual))
	if !ok {
		return nil, fmt.Errorf("no picture format for root visual 0x%x", conn.Screen.RootVisual)
	}

	r := &Renderer{
		conn:     conn,
		formats:  formats,
		width:    width,
		height:   height,
		masks:    make(map[uint8]render.Picture),
		textures: make(map[*texture]struct{}),
	}

	r.surface, err = conn.CreatePicture(xproto.Drawable(surface), rootFormat)
	if err != nil {
		return nil, err
	}
	r.back, err = conn.CreatePixmap(width, height)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.backPic, err = conn.CreatePicture(xproto.Drawable(r.back), rootFormat)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// BindPixmap wraps a window pixmap in a picture of the window's format.
func (r *Renderer) BindPixmap(p platform.Pixmap, format platform.PixelFormat, width, height int) (scene.Texture, error) {
	pf, ok := r.formats.ForVisual(format.Visual)
	if !ok {
		return nil, fmt.Errorf("no picture format for visual 0x%x (depth %d)", format.Visual, format.Depth)
	}
	pic, err := r.conn.CreatePicture(xproto.Drawable(p), pf)
	if err != nil {
		return nil, err
	}
	t := &texture{r: r, pic: pic, width: width, height: height}
	r.textures[t] = struct{}{}
	return t, nil
}

// Begin restricts the frame to clip and paints the background there.
func (r *Renderer) Begin(background uint32, clip []platform.Rect) {
	r.clip = r.clip[:0]
	for _, c := range clip {
		r.clip = append(r.clip, xproto.Rectangle{
			X:      int16(c.X),
			Y:      int16(c.Y),
			Width:  uint16(c.Width),
			Height: uint16(c.Height),
		})
	}
	r.conn.SetClip(r.backPic, r.clip)
	r.conn.FillRectangles(r.backPic, background, r.clip)
}

// DrawTexture blends t into the back buffer at dst.
func (r *Renderer) DrawTexture(st scene.Texture, dst platform.Rect, opacity uint8) {
	t, ok := st.(*texture)
	if !ok || t.pic == 0 || opacity == 0 {
		return
	}
	var mask render.Picture
	if opacity < 0xff {
		mask = r.mask(opacity)
	}
	w := min(dst.Width, t.width)
	h := min(dst.Height, t.height)
	r.conn.Blend(t.pic, mask, r.backPic, dst.X, dst.Y, w, h)
}

// End copies the repainted area to the surface.
func (r *Renderer) End() {
	r.conn.SetClip(r.surface, r.clip)
	r.conn.Copy(r.backPic, r.surface, r.width, r.height)
}

func (r *Renderer) mask(opacity uint8) render.Picture {
	if m, ok := r.masks[opacity]; ok {
		return m
	}
	m, err := r.conn.CreateAlphaMask(opacity)
	if err != nil {
		return 0
	}
	r.masks[opacity] = m
	return m
}

// Close frees every server-side resource the renderer created, including
// textures still bound.
func (r *Renderer) Close() {
	for t := range r.textures {
		t.Release()
	}
	for _, m := range r.masks {
		r.conn.FreePicture(m)
	}
	clear(r.masks)
	if r.backPic != 0 {
		r.conn.FreePicture(r.backPic)
		r.backPic = 0
	}
	if r.back != 0 {
		r.conn.FreePixmap(r.back)
		r.back = 0
	}
	if r.surface != 0 {
		r.conn.FreePicture(r.surface)
		r.surface = 0
	}
}

type texture struct {
	r      *Renderer
	pic    render.Picture
	width  int
	height int
}

// UpdateArea has nothing to copy: a picture samples its pixmap directly, so
// the next composite already sees the new contents.
func (t *texture) UpdateArea(platform.Rect) {}

func (t *texture) Release() {
	if t.pic == 0 {
		return
	}
	t.r.conn.FreePicture(t.pic)
	t.pic = 0
	delete(t.r.textures, t)
}
