package scene

import "github.com/1broseidon/compshell/internal/platform"

// Actor is a node the stage can paint.
type Actor interface {
	Base() *Node
	// Paint draws the actor at its geometry. Only called for visible
	// actors with non-zero opacity.
	Paint(r Renderer)
	// Realize is called when the actor joins a stage, Unrealize when it
	// leaves. Renderer resources belong between the two.
	Realize(r Renderer)
	Unrealize()
}

// Node carries the state shared by all actors. Embed it and implement the
// rest of Actor.
type Node struct {
	name     string
	stage    *Stage
	geometry platform.Rect
	visible  bool
	opacity  uint8
	anim     *Animation
}

// NewNode returns a hidden, fully opaque node.
func NewNode(name string) Node {
	return Node{name: name, opacity: 0xff}
}

func (n *Node) Base() *Node { return n }

func (n *Node) Name() string { return n.name }

// Stage returns the stage the node is on, or nil.
func (n *Node) Stage() *Stage { return n.stage }

func (n *Node) Geometry() platform.Rect { return n.geometry }

// SetGeometry moves and resizes the node, redrawing both old and new areas.
func (n *Node) SetGeometry(r platform.Rect) {
	if r == n.geometry {
		return
	}
	n.QueueRedraw()
	n.geometry = r
	n.QueueRedraw()
}

func (n *Node) Visible() bool { return n.visible }

func (n *Node) Show() {
	if n.visible {
		return
	}
	n.visible = true
	n.QueueRedraw()
}

func (n *Node) Hide() {
	if !n.visible {
		return
	}
	n.QueueRedraw()
	n.visible = false
}

func (n *Node) Opacity() uint8 { return n.opacity }

func (n *Node) SetOpacity(o uint8) {
	if o == n.opacity {
		return
	}
	n.opacity = o
	if n.visible {
		n.QueueRedraw()
	}
}

// Animating reports whether an animation is running on the node.
func (n *Node) Animating() bool { return n.anim != nil }

// QueueRedraw marks the whole node area for repaint.
func (n *Node) QueueRedraw() {
	if n.stage == nil {
		return
	}
	n.stage.QueueRedrawArea(n.geometry)
}

// QueueRedrawArea marks r, in node coordinates, for repaint.
func (n *Node) QueueRedrawArea(r platform.Rect) {
	if n.stage == nil || !n.visible {
		return
	}
	area := r.Translate(n.geometry.X, n.geometry.Y).Intersect(n.geometry)
	n.stage.QueueRedrawArea(area)
}
