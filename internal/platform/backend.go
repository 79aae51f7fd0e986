package platform

// WindowID is a window-system window handle.
type WindowID uint32

// Pixmap is a window-system pixmap handle. Zero means no pixmap.
type Pixmap uint32

// Damage is a window-system damage-tracking handle. Zero means none.
type Damage uint32

// Region is a server-side region handle used to drain damage.
type Region uint32

// Atom is an interned property identifier.
type Atom uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Intersect returns the overlap of r and o, or an empty Rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the smallest Rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// WindowState describes a top-level window as seen from the root window.
type WindowState struct {
	ID          WindowID
	Bounds      Rect
	BorderWidth int
	Viewable    bool
	InputOnly   bool
}

// OuterBounds includes the border, which is part of a named pixmap.
func (s WindowState) OuterBounds() Rect {
	return Rect{
		X:      s.Bounds.X,
		Y:      s.Bounds.Y,
		Width:  s.Bounds.Width + 2*s.BorderWidth,
		Height: s.Bounds.Height + 2*s.BorderWidth,
	}
}

// PixelFormat identifies how a window's pixels are laid out, so a renderer
// can bind its pixmap.
type PixelFormat struct {
	Visual uint32
	Depth  int
}

// Compositing is the window-system surface used by the compositing core.
// All calls are synchronous and fallible.
type Compositing interface {
	NameWindowPixmap(win WindowID) (Pixmap, error)
	FreePixmap(p Pixmap)
	WindowFormat(win WindowID) (PixelFormat, error)

	CreateDamage(win WindowID) (Damage, error)
	DestroyDamage(d Damage)
	CreateRegion() (Region, error)
	DestroyRegion(r Region)
	SubtractDamage(d Damage, parts Region) error
	FetchRegion(r Region) ([]Rect, error)

	RaiseAndFocus(win WindowID) error
}

// Tracking is the window-system surface used to discover and classify
// top-level windows.
type Tracking interface {
	Toplevels() ([]WindowState, error)
	WindowState(win WindowID) (WindowState, error)
	ClientWindow(win WindowID) WindowID
	WindowTypes(win WindowID) []Atom
	WindowOpacity(win WindowID) (uint32, bool)
	WatchWindow(win WindowID) error
}
