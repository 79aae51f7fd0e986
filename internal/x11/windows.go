package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// WindowInfo is the part of a window's attributes and geometry the
// compositor cares about.
type WindowInfo struct {
	Window      xproto.Window
	X, Y        int
	Width       int
	Height      int
	BorderWidth int
	Depth       int
	Visual      xproto.Visualid
	Viewable    bool
	InputOnly   bool
}

// Toplevels returns root's children in stacking order, bottom first.
// Windows that disappear while being queried are skipped.
func (c *Connection) Toplevels() ([]WindowInfo, error) {
	conn := c.XUtil.Conn()

	tree, err := xproto.QueryTree(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query root tree: %w", err)
	}

	// Send every request before waiting on any reply: one round trip.
	attrCookies := make([]xproto.GetWindowAttributesCookie, len(tree.Children))
	geomCookies := make([]xproto.GetGeometryCookie, len(tree.Children))
	for i, win := range tree.Children {
		attrCookies[i] = xproto.GetWindowAttributes(conn, win)
		geomCookies[i] = xproto.GetGeometry(conn, xproto.Drawable(win))
	}

	infos := make([]WindowInfo, 0, len(tree.Children))
	for i, win := range tree.Children {
		attrs, aerr := attrCookies[i].Reply()
		geom, gerr := geomCookies[i].Reply()
		if aerr != nil || gerr != nil {
			continue
		}
		infos = append(infos, windowInfo(win, attrs, geom))
	}
	return infos, nil
}

// WindowInfo queries one window.
func (c *Connection) WindowInfo(win xproto.Window) (WindowInfo, error) {
	conn := c.XUtil.Conn()

	attrCookie := xproto.GetWindowAttributes(conn, win)
	geomCookie := xproto.GetGeometry(conn, xproto.Drawable(win))
	attrs, err := attrCookie.Reply()
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to get attributes of window 0x%x: %w", win, err)
	}
	geom, err := geomCookie.Reply()
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to get geometry of window 0x%x: %w", win, err)
	}
	return windowInfo(win, attrs, geom), nil
}

func windowInfo(win xproto.Window, attrs *xproto.GetWindowAttributesReply, geom *xproto.GetGeometryReply) WindowInfo {
	return WindowInfo{
		Window:      win,
		X:           int(geom.X),
		Y:           int(geom.Y),
		Width:       int(geom.Width),
		Height:      int(geom.Height),
		BorderWidth: int(geom.BorderWidth),
		Depth:       int(geom.Depth),
		Visual:      attrs.Visual,
		Viewable:    attrs.MapState == xproto.MapStateViewable,
		InputOnly:   attrs.Class == xproto.WindowClassInputOnly,
	}
}

// ClientWindow returns the ICCCM client inside win: win itself when it
// carries WM_STATE, otherwise the first child that does. When nothing
// carries WM_STATE, win is returned.
func (c *Connection) ClientWindow(win xproto.Window) xproto.Window {
	if _, err := icccm.WmStateGet(c.XUtil, win); err == nil {
		return win
	}

	tree, err := xproto.QueryTree(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return win
	}
	for _, child := range tree.Children {
		if _, err := icccm.WmStateGet(c.XUtil, child); err == nil {
			return child
		}
	}
	return win
}

// WindowTypes returns the raw atoms of _NET_WM_WINDOW_TYPE.
func (c *Connection) WindowTypes(win xproto.Window) []xproto.Atom {
	nums, err := xprop.PropValNums(xprop.GetProperty(c.XUtil, win, "_NET_WM_WINDOW_TYPE"))
	if err != nil {
		return nil
	}
	types := make([]xproto.Atom, 0, len(nums))
	for _, n := range nums {
		types = append(types, xproto.Atom(n))
	}
	return types
}

// WindowOpacity returns _NET_WM_WINDOW_OPACITY (0..0xffffffff), if set.
func (c *Connection) WindowOpacity(win xproto.Window) (uint32, bool) {
	v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, win, "_NET_WM_WINDOW_OPACITY"))
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// WatchWindow selects property changes on win so opacity and type updates
// reach the event loop.
func (c *Connection) WatchWindow(win xproto.Window) error {
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		win,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check()
}

// InternAtoms interns every name with one batched round trip and returns
// the atoms in the same order.
func (c *Connection) InternAtoms(names []string, onlyIfExists bool) ([]xproto.Atom, error) {
	conn := c.XUtil.Conn()

	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, onlyIfExists, uint16(len(name)), name)
	}

	atoms := make([]xproto.Atom, len(names))
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to intern %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atoms, nil
}
