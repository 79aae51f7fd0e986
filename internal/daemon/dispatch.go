package daemon

import (
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/compshell/internal/platform"
)

// eventSink receives window-system notifications. *compositor.Manager
// implements it.
type eventSink interface {
	HandleCreate(st platform.WindowState)
	HandleMap(win platform.WindowID)
	HandleUnmap(win platform.WindowID)
	HandleConfigure(st platform.WindowState, above platform.WindowID)
	HandleDestroy(win platform.WindowID)
	HandleReparent(st platform.WindowState, parent, root platform.WindowID)
	HandleDamage(win platform.WindowID, d platform.Damage)
	HandleProperty(win platform.WindowID, atom platform.Atom)
}

// windowStater queries current window state for events that carry too
// little of it.
type windowStater interface {
	WindowState(win platform.WindowID) (platform.WindowState, error)
}

// dispatcher translates X events into eventSink calls.
type dispatcher struct {
	sink   eventSink
	ws     windowStater
	root   platform.WindowID
	logger *slog.Logger
}

// dispatch handles one event and reports whether it was relevant.
func (d *dispatcher) dispatch(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.CreateNotifyEvent:
		if platform.WindowID(e.Parent) != d.root {
			return false
		}
		st, err := d.ws.WindowState(platform.WindowID(e.Window))
		if err != nil {
			d.logger.Debug("created window vanished", "window", e.Window, "error", err)
			return true
		}
		d.sink.HandleCreate(st)
	case xproto.MapNotifyEvent:
		if platform.WindowID(e.Event) != d.root {
			return false
		}
		d.sink.HandleMap(platform.WindowID(e.Window))
	case xproto.UnmapNotifyEvent:
		if platform.WindowID(e.Event) != d.root {
			return false
		}
		d.sink.HandleUnmap(platform.WindowID(e.Window))
	case xproto.ConfigureNotifyEvent:
		if platform.WindowID(e.Event) != d.root || platform.WindowID(e.Window) == d.root {
			return false
		}
		st := platform.WindowState{
			ID:          platform.WindowID(e.Window),
			Bounds:      platform.Rect{X: int(e.X), Y: int(e.Y), Width: int(e.Width), Height: int(e.Height)},
			BorderWidth: int(e.BorderWidth),
		}
		d.sink.HandleConfigure(st, platform.WindowID(e.AboveSibling))
	case xproto.DestroyNotifyEvent:
		if platform.WindowID(e.Event) != d.root {
			return false
		}
		d.sink.HandleDestroy(platform.WindowID(e.Window))
	case xproto.ReparentNotifyEvent:
		if platform.WindowID(e.Event) != d.root {
			return false
		}
		st := platform.WindowState{ID: platform.WindowID(e.Window)}
		if platform.WindowID(e.Parent) == d.root {
			var err error
			if st, err = d.ws.WindowState(st.ID); err != nil {
				d.logger.Debug("reparented window vanished", "window", e.Window, "error", err)
				return true
			}
		}
		d.sink.HandleReparent(st, platform.WindowID(e.Parent), d.root)
	case xproto.PropertyNotifyEvent:
		d.sink.HandleProperty(platform.WindowID(e.Window), platform.Atom(e.Atom))
	case damage.NotifyEvent:
		d.sink.HandleDamage(platform.WindowID(e.Drawable), platform.Damage(e.Damage))
	default:
		return false
	}
	return true
}
