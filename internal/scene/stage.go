package scene

import (
	"slices"
	"time"

	"github.com/1broseidon/compshell/internal/platform"
)

// maxRedrawRects bounds the redraw list; beyond it the list collapses into
// its bounding box.
const maxRedrawRects = 32

// Stage is the root of the scene: a bottom-to-top stack of actors painted
// through a Renderer.
type Stage struct {
	renderer   Renderer
	width      int
	height     int
	background uint32

	children  []Actor
	redraw    []platform.Rect
	timelines []*Timeline

	lastFrame time.Time
	frames    uint64
}

// NewStage returns an empty stage covering width x height. The first frame
// repaints everything.
func NewStage(r Renderer, width, height int) *Stage {
	s := &Stage{renderer: r, width: width, height: height}
	s.QueueFullRedraw()
	return s
}

func (s *Stage) Bounds() platform.Rect {
	return platform.Rect{Width: s.width, Height: s.height}
}

// Resize changes the stage size and schedules a full repaint.
func (s *Stage) Resize(width, height int) {
	s.width, s.height = width, height
	s.QueueFullRedraw()
}

// SetBackground sets the 0xRRGGBB color painted under all actors.
func (s *Stage) SetBackground(rgb uint32) {
	if rgb == s.background {
		return
	}
	s.background = rgb
	s.QueueFullRedraw()
}

func (s *Stage) Background() uint32 { return s.background }

// Children returns the actors bottom to top.
func (s *Stage) Children() []Actor {
	return slices.Clone(s.children)
}

// Frames returns the number of frames painted so far.
func (s *Stage) Frames() uint64 { return s.frames }

// Add puts a on top of the stack and realizes it.
func (s *Stage) Add(a Actor) {
	n := a.Base()
	if n.stage == s {
		return
	}
	if n.stage != nil {
		n.stage.Remove(a)
	}
	n.stage = s
	s.children = append(s.children, a)
	a.Realize(s.renderer)
	n.QueueRedraw()
}

// Remove takes a off the stage. A running animation on a is completed first.
func (s *Stage) Remove(a Actor) {
	n := a.Base()
	if n.stage != s {
		return
	}
	CompleteAnimation(a)
	i := s.index(a)
	if i < 0 {
		return
	}
	if n.visible {
		n.QueueRedraw()
	}
	s.children = slices.Delete(s.children, i, i+1)
	a.Unrealize()
	n.stage = nil
}

// Raise moves a to the top of the stack.
func (s *Stage) Raise(a Actor) {
	s.RestackAbove(a, s.top(a))
}

// RestackAbove places a directly above sibling. A nil sibling, or one not on
// the stage, puts a at the bottom.
func (s *Stage) RestackAbove(a, sibling Actor) {
	i := s.index(a)
	if i < 0 || sibling == a {
		return
	}
	s.children = slices.Delete(s.children, i, i+1)
	pos := 0
	if sibling != nil {
		if j := s.index(sibling); j >= 0 {
			pos = j + 1
		}
	}
	s.children = slices.Insert(s.children, pos, a)
	if i != pos {
		a.Base().QueueRedraw()
	}
}

func (s *Stage) top(except Actor) Actor {
	for i := len(s.children) - 1; i >= 0; i-- {
		if s.children[i] != except {
			return s.children[i]
		}
	}
	return nil
}

func (s *Stage) index(a Actor) int {
	return slices.Index(s.children, a)
}

// QueueRedrawArea adds r, in stage coordinates, to the next frame's repaint
// region.
func (s *Stage) QueueRedrawArea(r platform.Rect) {
	r = r.Intersect(s.Bounds())
	if r.Empty() {
		return
	}
	for _, have := range s.redraw {
		if have.Intersect(r) == r {
			return
		}
	}
	s.redraw = append(s.redraw, r)
	if len(s.redraw) > maxRedrawRects {
		var box platform.Rect
		for _, d := range s.redraw {
			box = box.Union(d)
		}
		s.redraw = append(s.redraw[:0], box)
	}
}

// QueueFullRedraw schedules a repaint of the whole stage.
func (s *Stage) QueueFullRedraw() {
	s.redraw = append(s.redraw[:0], s.Bounds())
}

// Dirty reports whether the next Paint will draw anything.
func (s *Stage) Dirty() bool { return len(s.redraw) > 0 }

// Animating reports whether any timeline is running.
func (s *Stage) Animating() bool {
	for _, t := range s.timelines {
		if !t.done {
			return true
		}
	}
	return false
}

// Advance moves every running timeline forward by d. Timelines started from
// callbacks during the advance begin on the next one.
func (s *Stage) Advance(d time.Duration) {
	running := s.timelines
	s.timelines = nil
	for _, t := range running {
		t.advance(d)
	}
	kept := running[:0]
	for _, t := range running {
		if !t.done {
			kept = append(kept, t)
		}
	}
	for _, t := range s.timelines {
		if !t.done {
			kept = append(kept, t)
		}
	}
	s.timelines = kept
}

// Frame advances timelines by the time since the previous frame and paints
// if anything changed.
func (s *Stage) Frame(now time.Time) {
	if !s.lastFrame.IsZero() {
		s.Advance(now.Sub(s.lastFrame))
	}
	s.lastFrame = now
	s.Paint()
}

// Paint draws the pending redraw region, if any.
func (s *Stage) Paint() {
	if len(s.redraw) == 0 || s.renderer == nil {
		return
	}
	clip := s.redraw
	s.redraw = nil

	s.renderer.Begin(s.background, clip)
	for _, a := range s.children {
		n := a.Base()
		if !n.visible || n.opacity == 0 || !touches(n.geometry, clip) {
			continue
		}
		a.Paint(s.renderer)
	}
	s.renderer.End()
	s.frames++
}

func touches(r platform.Rect, clip []platform.Rect) bool {
	for _, c := range clip {
		if !r.Intersect(c).Empty() {
			return true
		}
	}
	return false
}
