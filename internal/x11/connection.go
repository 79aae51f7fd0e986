package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and the extensions a compositing
// manager depends on.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Screen *xproto.ScreenInfo
}

// NewConnection connects to display (empty means $DISPLAY) and initializes
// the Composite, Damage, XFixes and Render extensions.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		XUtil:  xu,
		Root:   xu.RootWin(),
		Screen: xu.Screen(),
	}
	if err := c.initExtensions(); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) initExtensions() error {
	conn := c.XUtil.Conn()

	if err := composite.Init(conn); err != nil {
		return fmt.Errorf("composite extension unavailable: %w", err)
	}
	cv, err := composite.QueryVersion(conn, 0, 4).Reply()
	if err != nil {
		return fmt.Errorf("composite version query failed: %w", err)
	}
	// NameWindowPixmap needs 0.2, GetOverlayWindow needs 0.3.
	if cv.MajorVersion == 0 && cv.MinorVersion < 3 {
		return fmt.Errorf("composite %d.%d is too old, need 0.3", cv.MajorVersion, cv.MinorVersion)
	}

	// XFixes must be negotiated before Damage: damage regions are XFixes regions.
	if err := xfixes.Init(conn); err != nil {
		return fmt.Errorf("xfixes extension unavailable: %w", err)
	}
	if _, err := xfixes.QueryVersion(conn, 2, 0).Reply(); err != nil {
		return fmt.Errorf("xfixes version query failed: %w", err)
	}

	if err := damage.Init(conn); err != nil {
		return fmt.Errorf("damage extension unavailable: %w", err)
	}
	if _, err := damage.QueryVersion(conn, 1, 1).Reply(); err != nil {
		return fmt.Errorf("damage version query failed: %w", err)
	}

	if err := render.Init(conn); err != nil {
		return fmt.Errorf("render extension unavailable: %w", err)
	}
	rv, err := render.QueryVersion(conn, 0, 11).Reply()
	if err != nil {
		return fmt.Errorf("render version query failed: %w", err)
	}
	// Solid fills (used as opacity masks) arrived in 0.10.
	if rv.MajorVersion == 0 && rv.MinorVersion < 10 {
		return fmt.Errorf("render %d.%d is too old, need 0.10", rv.MajorVersion, rv.MinorVersion)
	}

	return nil
}

// ScreenSize returns the root window size in pixels.
func (c *Connection) ScreenSize() (int, int) {
	return int(c.Screen.WidthInPixels), int(c.Screen.HeightInPixels)
}

// ScreenNumber returns the default screen index of the connection.
func (c *Connection) ScreenNumber() int {
	return c.XUtil.Conn().DefaultScreen
}

// RedirectSubwindows puts every child of the root window into manual
// redirection, so their contents only reach the screen through us.
func (c *Connection) RedirectSubwindows() error {
	err := composite.RedirectSubwindowsChecked(c.XUtil.Conn(), c.Root, composite.RedirectManual).Check()
	if err != nil {
		return fmt.Errorf("failed to redirect root subwindows (another compositor running?): %w", err)
	}
	return nil
}

// UnredirectSubwindows undoes RedirectSubwindows.
func (c *Connection) UnredirectSubwindows() {
	composite.UnredirectSubwindows(c.XUtil.Conn(), c.Root, composite.RedirectManual)
}

// SelectRootEvents subscribes to structure changes of root's children.
func (c *Connection) SelectRootEvents() error {
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		c.Root,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange},
	).Check()
}

// MainPing starts the xgbutil event loop in its own goroutine. Callbacks run
// between a receive on before and a receive on after, so a caller selecting
// on these channels never runs concurrently with event processing.
func (c *Connection) MainPing() (before, after, quit chan struct{}) {
	return xevent.MainPing(c.XUtil)
}

// Quit stops the event loop started by MainPing.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Sync flushes the request queue and waits for the server to process it.
func (c *Connection) Sync() {
	c.XUtil.Sync()
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
