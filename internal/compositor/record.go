package compositor

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/refcount"
)

// ErrNoActor is returned by NewRecord when no actor is supplied.
var ErrNoActor = errors.New("composited window requires an actor")

// EventKind selects the transition played by Effect.
type EventKind int

const (
	EventNone EventKind = iota
	EventMap
	EventUnmap
)

func (k EventKind) String() string {
	switch k {
	case EventMap:
		return "map"
	case EventUnmap:
		return "unmap"
	default:
		return "none"
	}
}

// CompositedClient is the lifecycle contract the window-tracking dispatcher
// drives for every composited window.
type CompositedClient interface {
	Show()
	Hide()
	Repair()
	Configure()
	Effect(kind EventKind)
	Activate()
	Destroy()
}

// Window identifies a tracked top-level window. ID is the child of root.
// When a window manager has reparented the client, ID is the frame and
// Frame equals ID; otherwise Client equals ID and Frame is zero.
type Window struct {
	ID     platform.WindowID
	Client platform.WindowID
	Frame  platform.WindowID
}

// Target is the window whose contents get composited.
func (w Window) Target() platform.WindowID {
	if w.Frame != 0 {
		return w.Frame
	}
	return w.ID
}

// WindowInfo is a snapshot of a record for status reporting.
type WindowInfo struct {
	Window   platform.WindowID
	Client   platform.WindowID
	Frame    platform.WindowID
	Bounds   platform.Rect
	Role     Role
	Shown    bool
	Visible  bool
	Opacity  uint8
	Refs     int
	Damage   platform.Damage
	Pixmap   platform.Pixmap
	Teardown bool
}

// Record is the composited state of one client window: it owns the window's
// actor and damage object and implements CompositedClient.
type Record struct {
	ws         platform.Compositing
	win        Window
	actor      *WindowActor
	transition Transition
	logger     *slog.Logger

	damage platform.Damage
	region platform.Region

	shown            bool
	destroyRequested bool
	destroyed        bool
	role             Role
	opacity          uint8

	refs  *refcount.Counted
	owner *refcount.Handle

	// OnDestroyed runs once, after teardown.
	OnDestroyed func(*Record)
}

var _ CompositedClient = (*Record)(nil)

// NewRecord binds actor to a new record for win. The record starts with one
// reference, released by Destroy.
func NewRecord(ws platform.Compositing, win Window, actor *WindowActor, logger *slog.Logger) (*Record, error) {
	if actor == nil {
		return nil, ErrNoActor
	}
	if win.Client == 0 {
		win.Client = win.ID
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Record{
		ws:      ws,
		win:     win,
		actor:   actor,
		logger:  logger,
		opacity: 0xff,
	}
	r.refs, r.owner = refcount.New(r.teardown)
	actor.SetBoundCompositedWindow(r)
	return r, nil
}

func (r *Record) Window() Window          { return r.win }
func (r *Record) Actor() *WindowActor     { return r.actor }
func (r *Record) Shown() bool             { return r.shown }
func (r *Record) Destroyed() bool         { return r.destroyed }
func (r *Record) Damage() platform.Damage { return r.damage }
func (r *Record) Role() Role              { return r.role }
func (r *Record) Refs() int               { return r.refs.Count() }

// SetRole records the window's classification.
func (r *Record) SetRole(role Role) { r.role = role }

// TargetOpacity is the opacity the window asks for, fully opaque by default.
func (r *Record) TargetOpacity() uint8 { return r.opacity }

// SetTargetOpacity updates the requested opacity. A shown, idle actor takes
// it immediately.
func (r *Record) SetTargetOpacity(o uint8) {
	r.opacity = o
	if r.shown && !r.actor.Animating() {
		r.actor.SetOpacity(o)
	}
}

// SetTransition installs the behavior played by Effect.
func (r *Record) SetTransition(t Transition) { r.transition = t }

// Ref takes an extra reference, keeping the record alive past Destroy until
// the handle is released. It returns nil once teardown has run.
func (r *Record) Ref() *refcount.Handle {
	return r.refs.Acquire()
}

// Show names the window's pixmap, binds it to the actor and starts damage
// tracking. It does nothing while shown.
func (r *Record) Show() {
	if r.shown || r.destroyed {
		return
	}
	target := r.win.Target()

	p, format, ok := r.namePixmap(target)
	if !ok {
		return
	}

	r.actor.SetPixmap(p, format)
	r.actor.Show()

	// Shown implies a live damage handle; on failure the next Show retries.
	r.dropDamage()
	d, err := r.ws.CreateDamage(target)
	if err != nil {
		r.logger.Warn("failed to create damage", "window", target, "error", err)
		return
	}
	r.damage = d
	region, err := r.ws.CreateRegion()
	if err != nil {
		r.logger.Warn("failed to create damage region", "window", target, "error", err)
		r.dropDamage()
		return
	}
	r.region = region

	r.shown = true
}

// Hide clears the shown state. Resources and actor visibility are left
// alone; the next Show re-acquires.
func (r *Record) Hide() {
	r.shown = false
}

// Repair drains accumulated damage and refreshes the changed areas. A pixmap
// lost to a failed Configure is fetched again first.
func (r *Record) Repair() {
	if !r.shown || r.damage == 0 || r.region == 0 {
		return
	}
	if r.actor.Pixmap() == 0 {
		r.rebind()
	}
	if err := r.ws.SubtractDamage(r.damage, r.region); err != nil {
		r.logger.Warn("failed to subtract damage", "window", r.win.Target(), "error", err)
		return
	}
	rects, err := r.ws.FetchRegion(r.region)
	if err != nil {
		r.logger.Warn("failed to fetch damage region", "window", r.win.Target(), "error", err)
		return
	}
	for _, rect := range rects {
		r.actor.UpdateArea(rect)
	}
}

// Configure rebinds a fresh pixmap after a resize; the old one is stale.
func (r *Record) Configure() {
	if !r.shown {
		return
	}
	r.actor.UnsetPixmap()
	r.rebind()
}

// NeedsPixmap reports a shown record whose actor has nothing bound.
func (r *Record) NeedsPixmap() bool {
	return r.shown && r.actor.Pixmap() == 0
}

func (r *Record) rebind() {
	p, format, ok := r.namePixmap(r.win.Target())
	if !ok {
		return
	}
	r.actor.SetPixmap(p, format)
}

// Effect plays the installed transition for kind.
func (r *Record) Effect(kind EventKind) {
	if r.transition == nil || r.destroyed {
		return
	}
	switch kind {
	case EventMap:
		r.transition.OnMapEvent(r)
	case EventUnmap:
		r.transition.OnUnmapEvent(r)
	}
}

// Activate raises and focuses the client window.
func (r *Record) Activate() {
	if r.actor == nil || r.destroyed {
		return
	}
	if err := r.ws.RaiseAndFocus(r.win.Client); err != nil {
		r.logger.Warn("failed to activate window", "window", r.win.Client, "error", err)
	}
}

// Destroy releases the owner reference. Teardown happens when no effect
// holds the record any more. Calls after the first do nothing.
func (r *Record) Destroy() {
	if r.destroyRequested {
		return
	}
	r.destroyRequested = true
	r.owner.Release()
}

// DestroyRequested reports whether Destroy has been called.
func (r *Record) DestroyRequested() bool { return r.destroyRequested }

// Info returns a snapshot for status reporting.
func (r *Record) Info() WindowInfo {
	return WindowInfo{
		Window:   r.win.ID,
		Client:   r.win.Client,
		Frame:    r.win.Frame,
		Bounds:   r.actor.Geometry(),
		Role:     r.role,
		Shown:    r.shown,
		Visible:  r.actor.Visible(),
		Opacity:  r.actor.Opacity(),
		Refs:     r.refs.Count(),
		Damage:   r.damage,
		Pixmap:   r.actor.Pixmap(),
		Teardown: r.destroyRequested && !r.destroyed,
	}
}

func (r *Record) namePixmap(target platform.WindowID) (platform.Pixmap, platform.PixelFormat, bool) {
	p, err := r.ws.NameWindowPixmap(target)
	if err != nil {
		r.logger.Warn("failed to name window pixmap", "window", target, "error", err)
		return 0, platform.PixelFormat{}, false
	}
	format, err := r.ws.WindowFormat(target)
	if err != nil {
		r.logger.Warn("failed to query window format", "window", target, "error", err)
		r.ws.FreePixmap(p)
		return 0, platform.PixelFormat{}, false
	}
	return p, format, true
}

func (r *Record) dropDamage() {
	if r.region != 0 {
		r.ws.DestroyRegion(r.region)
		r.region = 0
	}
	if r.damage != 0 {
		r.ws.DestroyDamage(r.damage)
		r.damage = 0
	}
}

func (r *Record) teardown() {
	r.dropDamage()
	r.actor.Destroy()
	r.shown = false
	r.destroyed = true
	r.logger.Debug("composited window torn down", "window", r.win.ID)
	if r.OnDestroyed != nil {
		r.OnDestroyed(r)
	}
}
