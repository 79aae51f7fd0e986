//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/compshell/internal/x11"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform interfaces.
type LinuxBackend struct {
	conn *x11.Connection
}

var (
	_ Compositing = (*LinuxBackend)(nil)
	_ Tracking    = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() WindowID {
	if b == nil || b.conn == nil {
		return 0
	}
	return WindowID(b.conn.Root)
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

func (b *LinuxBackend) NameWindowPixmap(win WindowID) (Pixmap, error) {
	p, err := b.conn.NameWindowPixmap(xproto.Window(win))
	return Pixmap(p), err
}

func (b *LinuxBackend) FreePixmap(p Pixmap) {
	if p != 0 {
		b.conn.FreePixmap(xproto.Pixmap(p))
	}
}

func (b *LinuxBackend) WindowFormat(win WindowID) (PixelFormat, error) {
	info, err := b.conn.WindowInfo(xproto.Window(win))
	if err != nil {
		return PixelFormat{}, err
	}
	return PixelFormat{Visual: uint32(info.Visual), Depth: info.Depth}, nil
}

func (b *LinuxBackend) CreateDamage(win WindowID) (Damage, error) {
	d, err := b.conn.CreateDamage(xproto.Window(win))
	return Damage(d), err
}

func (b *LinuxBackend) DestroyDamage(d Damage) {
	if d != 0 {
		b.conn.DestroyDamage(damage.Damage(d))
	}
}

func (b *LinuxBackend) CreateRegion() (Region, error) {
	r, err := b.conn.CreateRegion()
	return Region(r), err
}

func (b *LinuxBackend) DestroyRegion(r Region) {
	if r != 0 {
		b.conn.DestroyRegion(xfixes.Region(r))
	}
}

func (b *LinuxBackend) SubtractDamage(d Damage, parts Region) error {
	return b.conn.SubtractDamage(damage.Damage(d), xfixes.Region(parts))
}

func (b *LinuxBackend) FetchRegion(r Region) ([]Rect, error) {
	xrects, err := b.conn.FetchRegion(xfixes.Region(r))
	if err != nil {
		return nil, err
	}
	rects := make([]Rect, 0, len(xrects))
	for _, xr := range xrects {
		rects = append(rects, Rect{
			X:      int(xr.X),
			Y:      int(xr.Y),
			Width:  int(xr.Width),
			Height: int(xr.Height),
		})
	}
	return rects, nil
}

func (b *LinuxBackend) RaiseAndFocus(win WindowID) error {
	return b.conn.ActivateWindow(xproto.Window(win))
}

// Toplevels lists root's children, bottom of the stack first.
func (b *LinuxBackend) Toplevels() ([]WindowState, error) {
	infos, err := b.conn.Toplevels()
	if err != nil {
		return nil, err
	}
	states := make([]WindowState, 0, len(infos))
	for _, info := range infos {
		states = append(states, windowStateFromInfo(info))
	}
	return states, nil
}

func (b *LinuxBackend) WindowState(win WindowID) (WindowState, error) {
	info, err := b.conn.WindowInfo(xproto.Window(win))
	if err != nil {
		return WindowState{}, err
	}
	return windowStateFromInfo(info), nil
}

func (b *LinuxBackend) ClientWindow(win WindowID) WindowID {
	return WindowID(b.conn.ClientWindow(xproto.Window(win)))
}

func (b *LinuxBackend) WindowTypes(win WindowID) []Atom {
	raw := b.conn.WindowTypes(xproto.Window(win))
	types := make([]Atom, 0, len(raw))
	for _, a := range raw {
		types = append(types, Atom(a))
	}
	return types
}

func (b *LinuxBackend) WindowOpacity(win WindowID) (uint32, bool) {
	return b.conn.WindowOpacity(xproto.Window(win))
}

func (b *LinuxBackend) WatchWindow(win WindowID) error {
	return b.conn.WatchWindow(xproto.Window(win))
}

// InternAtoms interns names in one batched round trip.
func (b *LinuxBackend) InternAtoms(names []string, onlyIfExists bool) ([]Atom, error) {
	raw, err := b.conn.InternAtoms(names, onlyIfExists)
	if err != nil {
		return nil, err
	}
	atoms := make([]Atom, len(raw))
	for i, a := range raw {
		atoms[i] = Atom(a)
	}
	return atoms, nil
}

// OverlayWindow returns the Composite overlay window.
func (b *LinuxBackend) OverlayWindow() (WindowID, error) {
	w, err := b.conn.OverlayWindow()
	return WindowID(w), err
}

// ScreenSize returns the root window size.
func (b *LinuxBackend) ScreenSize() (int, int) {
	return b.conn.ScreenSize()
}

// CreateSurface creates the stage surface window, reparents it into parent
// and selects the interaction event mask on it. The window is left unmapped.
func (b *LinuxBackend) CreateSurface(parent WindowID, width, height int) (WindowID, error) {
	win, err := b.conn.CreateSurfaceWindow(width, height)
	if err != nil {
		return 0, err
	}
	if err := b.conn.Reparent(win, xproto.Window(parent)); err != nil {
		b.conn.DestroyWindow(win)
		return 0, err
	}
	if err := b.conn.SelectInput(win, x11.SurfaceEventMask); err != nil {
		b.conn.DestroyWindow(win)
		return 0, fmt.Errorf("failed to select surface input: %w", err)
	}
	return WindowID(win), nil
}

// MapWindow maps win.
func (b *LinuxBackend) MapWindow(win WindowID) error {
	return b.conn.MapWindow(xproto.Window(win))
}

// GrabPointer takes an exclusive pointer grab on win.
func (b *LinuxBackend) GrabPointer(win WindowID) error {
	return b.conn.GrabPointer(xproto.Window(win))
}

// UngrabPointer releases the pointer grab.
func (b *LinuxBackend) UngrabPointer() {
	b.conn.UngrabPointer()
}

func windowStateFromInfo(info x11.WindowInfo) WindowState {
	return WindowState{
		ID: WindowID(info.Window),
		Bounds: Rect{
			X:      info.X,
			Y:      info.Y,
			Width:  info.Width,
			Height: info.Height,
		},
		BorderWidth: info.BorderWidth,
		Viewable:    info.Viewable,
		InputOnly:   info.InputOnly,
	}
}
