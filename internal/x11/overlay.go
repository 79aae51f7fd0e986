package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
)

// SurfaceEventMask is what the stage surface listens to: pointer and keyboard
// interaction plus exposure of the surface itself.
const SurfaceEventMask = xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow

const pointerGrabMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion

// OverlayWindow returns the Composite overlay window of the root window.
// The server maps it on first request.
func (c *Connection) OverlayWindow() (xproto.Window, error) {
	reply, err := composite.GetOverlayWindow(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get composite overlay window: %w", err)
	}
	return reply.OverlayWin, nil
}

// ReleaseOverlayWindow hands the overlay window back to the server.
func (c *Connection) ReleaseOverlayWindow(overlay xproto.Window) {
	composite.ReleaseOverlayWindow(c.XUtil.Conn(), overlay)
}

// CreateSurfaceWindow creates an unmapped InputOutput window of the root
// depth and visual, as a child of root.
func (c *Connection) CreateSurfaceWindow(width, height int) (xproto.Window, error) {
	conn := c.XUtil.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	err = xproto.CreateWindowChecked(
		conn,
		c.Screen.RootDepth,
		wid,
		c.Root,
		0, 0,
		uint16(width), uint16(height),
		0,
		xproto.WindowClassInputOutput,
		c.Screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		// Value list order follows the mask bits, low to high.
		[]uint32{0, 1},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create surface window: %w", err)
	}
	return wid, nil
}

// Reparent moves win under parent at the origin.
func (c *Connection) Reparent(win, parent xproto.Window) error {
	if err := xproto.ReparentWindowChecked(c.XUtil.Conn(), win, parent, 0, 0).Check(); err != nil {
		return fmt.Errorf("failed to reparent 0x%x into 0x%x: %w", win, parent, err)
	}
	return nil
}

// SelectInput replaces the event mask of win.
func (c *Connection) SelectInput(win xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), win, xproto.CwEventMask, []uint32{mask}).Check()
}

// MapWindow maps win.
func (c *Connection) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
}

// DestroyWindow destroys win.
func (c *Connection) DestroyWindow(win xproto.Window) {
	xproto.DestroyWindow(c.XUtil.Conn(), win)
}

// GrabPointer takes an exclusive, asynchronous pointer grab on win.
func (c *Connection) GrabPointer(win xproto.Window) error {
	reply, err := xproto.GrabPointer(
		c.XUtil.Conn(),
		false, // owner_events: everything is reported to win
		win,
		pointerGrabMask,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone, // confine_to
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return err
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("pointer grab failed with status %d", reply.Status)
	}
	return nil
}

// UngrabPointer releases a grab taken by GrabPointer.
func (c *Connection) UngrabPointer() {
	xproto.UngrabPointer(c.XUtil.Conn(), xproto.TimeCurrentTime)
}
