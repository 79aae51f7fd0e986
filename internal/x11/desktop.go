package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// ActivateWindow raises and focuses a client window.
//
// With an EWMH window manager running, the request goes through a
// _NET_ACTIVE_WINDOW client message so the manager applies its own policy.
// Without one, the window is raised and given input focus directly.
func (c *Connection) ActivateWindow(win xproto.Window) error {
	if _, err := ewmh.SupportingWmCheckGet(c.XUtil, c.Root); err == nil {
		return c.requestActiveWindow(win)
	}

	conn := c.XUtil.Conn()
	err := xproto.ConfigureWindowChecked(
		conn,
		win,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to raise window 0x%x: %w", win, err)
	}
	err = xproto.SetInputFocusChecked(conn, xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("failed to focus window 0x%x: %w", win, err)
	}
	return nil
}

// requestActiveWindow sends _NET_ACTIVE_WINDOW to the root window.
// The message is built by hand: the xgbutil ewmh request helpers panic on
// this library version.
func (c *Connection) requestActiveWindow(win xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// ActiveWindow returns _NET_ACTIVE_WINDOW, or 0 when unset.
func (c *Connection) ActiveWindow() xproto.Window {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0
	}
	return win
}

// AcquireCompositorSelection takes ownership of _NET_WM_CM_S<screen> for
// owner. It fails when another compositing manager already holds it.
func (c *Connection) AcquireCompositorSelection(owner xproto.Window) error {
	conn := c.XUtil.Conn()
	name := fmt.Sprintf("_NET_WM_CM_S%d", c.ScreenNumber())

	atomReply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", name, err)
	}

	ownerReply, err := xproto.GetSelectionOwner(conn, atomReply.Atom).Reply()
	if err != nil {
		return fmt.Errorf("failed to get %s owner: %w", name, err)
	}
	if ownerReply.Owner != xproto.WindowNone {
		return fmt.Errorf("%s already owned by window 0x%x", name, ownerReply.Owner)
	}

	if err := xproto.SetSelectionOwnerChecked(conn, owner, atomReply.Atom, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to acquire %s: %w", name, err)
	}
	return nil
}
