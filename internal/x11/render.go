package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
)

// PictFormats maps visuals to Render picture formats.
type PictFormats struct {
	byVisual map[xproto.Visualid]render.Pictformat
}

// ForVisual returns the picture format matching visual.
func (f *PictFormats) ForVisual(visual uint32) (render.Pictformat, bool) {
	pf, ok := f.byVisual[xproto.Visualid(visual)]
	return pf, ok
}

// QueryPictFormats fetches the server's visual to picture format table.
func (c *Connection) QueryPictFormats() (*PictFormats, error) {
	reply, err := render.QueryPictFormats(c.XUtil.Conn()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query picture formats: %w", err)
	}
	f := &PictFormats{byVisual: make(map[xproto.Visualid]render.Pictformat)}
	for _, screen := range reply.Screens {
		for _, depth := range screen.Depths {
			for _, v := range depth.Visuals {
				f.byVisual[v.Visual] = v.Format
			}
		}
	}
	return f, nil
}

// CreatePixmap creates a pixmap of the root depth.
func (c *Connection) CreatePixmap(width, height int) (xproto.Pixmap, error) {
	conn := c.XUtil.Conn()
	pid, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreatePixmapChecked(conn, c.Screen.RootDepth, pid,
		xproto.Drawable(c.Root), uint16(width), uint16(height)).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create %dx%d pixmap: %w", width, height, err)
	}
	return pid, nil
}

// CreatePicture wraps a window or pixmap in a Render picture.
func (c *Connection) CreatePicture(drawable xproto.Drawable, format render.Pictformat) (render.Picture, error) {
	conn := c.XUtil.Conn()
	pid, err := render.NewPictureId(conn)
	if err != nil {
		return 0, err
	}
	if err := render.CreatePictureChecked(conn, pid, drawable, format, 0, nil).Check(); err != nil {
		return 0, fmt.Errorf("failed to create picture for 0x%x: %w", drawable, err)
	}
	return pid, nil
}

// CreateAlphaMask returns a solid-fill picture usable as a constant
// opacity mask.
func (c *Connection) CreateAlphaMask(alpha uint8) (render.Picture, error) {
	conn := c.XUtil.Conn()
	pid, err := render.NewPictureId(conn)
	if err != nil {
		return 0, err
	}
	a := uint16(alpha) * 0x101
	color := render.Color{Red: 0, Green: 0, Blue: 0, Alpha: a}
	if err := render.CreateSolidFillChecked(conn, pid, color).Check(); err != nil {
		return 0, fmt.Errorf("failed to create alpha mask: %w", err)
	}
	return pid, nil
}

// FreePicture releases a picture. The underlying drawable is untouched.
func (c *Connection) FreePicture(p render.Picture) {
	render.FreePicture(c.XUtil.Conn(), p)
}

// SetClip restricts drawing to pic to rects. An empty list clips everything.
func (c *Connection) SetClip(pic render.Picture, rects []xproto.Rectangle) {
	render.SetPictureClipRectangles(c.XUtil.Conn(), pic, 0, 0, rects)
}

// FillRectangles paints rects on dst with a solid 0xRRGGBB color.
func (c *Connection) FillRectangles(dst render.Picture, rgb uint32, rects []xproto.Rectangle) {
	color := render.Color{
		Red:   uint16((rgb>>16)&0xff) * 0x101,
		Green: uint16((rgb>>8)&0xff) * 0x101,
		Blue:  uint16(rgb&0xff) * 0x101,
		Alpha: 0xffff,
	}
	render.FillRectangles(c.XUtil.Conn(), render.PictOpSrc, dst, color, rects)
}

// Blend composites src over dst through an optional mask (zero for none).
func (c *Connection) Blend(src, mask, dst render.Picture, dstX, dstY, width, height int) {
	render.Composite(c.XUtil.Conn(), render.PictOpOver, src, mask, dst,
		0, 0, 0, 0, int16(dstX), int16(dstY), uint16(width), uint16(height))
}

// Copy replaces the dst area with src.
func (c *Connection) Copy(src, dst render.Picture, width, height int) {
	render.Composite(c.XUtil.Conn(), render.PictOpSrc, src, 0, dst,
		0, 0, 0, 0, 0, 0, uint16(width), uint16(height))
}
