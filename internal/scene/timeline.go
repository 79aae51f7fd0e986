package scene

import "time"

// Timeline reports progress in [0, 1] over a fixed duration, driven by the
// stage's frame clock.
type Timeline struct {
	duration time.Duration
	elapsed  time.Duration
	onFrame  func(progress float64)
	onDone   func()
	done     bool
}

// StartTimeline registers a timeline with the stage. onFrame runs on every
// advance, onDone once when the timeline ends or is completed early.
func (s *Stage) StartTimeline(d time.Duration, onFrame func(float64), onDone func()) *Timeline {
	t := &Timeline{duration: d, onFrame: onFrame, onDone: onDone}
	s.timelines = append(s.timelines, t)
	return t
}

func (t *Timeline) Done() bool { return t.done }

func (t *Timeline) advance(d time.Duration) {
	if t.done {
		return
	}
	t.elapsed += d
	p := 1.0
	if t.duration > 0 && t.elapsed < t.duration {
		p = float64(t.elapsed) / float64(t.duration)
	}
	if t.onFrame != nil {
		t.onFrame(p)
	}
	if p >= 1 {
		t.finish()
	}
}

// Complete jumps to the end: the final frame is applied and onDone runs, if
// the timeline has not already finished.
func (t *Timeline) Complete() {
	if t.done {
		return
	}
	if t.onFrame != nil {
		t.onFrame(1)
	}
	t.finish()
}

func (t *Timeline) finish() {
	t.done = true
	if t.onDone != nil {
		t.onDone()
	}
}

// Animation is an opacity transition on a single node.
type Animation struct {
	node *Node
	tl   *Timeline
}

// Complete finishes the animation now.
func (a *Animation) Complete() {
	if a == nil || a.tl == nil {
		return
	}
	a.tl.Complete()
}

// CompleteAnimation finishes the animation running on actor, if any.
func CompleteAnimation(actor Actor) {
	actor.Base().anim.Complete()
}

// AnimateOpacity fades actor from one opacity to another. A running
// animation on the same actor is completed first, so its done callback runs
// before this one starts. Actors that are not on a stage, and zero
// durations, complete synchronously and return nil.
func AnimateOpacity(actor Actor, from, to uint8, d time.Duration, done func()) *Animation {
	n := actor.Base()
	CompleteAnimation(actor)

	if n.stage == nil || d <= 0 {
		n.SetOpacity(to)
		if done != nil {
			done()
		}
		return nil
	}

	n.SetOpacity(from)
	a := &Animation{node: n}
	a.tl = n.stage.StartTimeline(d,
		func(p float64) {
			n.SetOpacity(lerp(from, to, p))
		},
		func() {
			if n.anim == a {
				n.anim = nil
			}
			if done != nil {
				done()
			}
		})
	n.anim = a
	return a
}

func lerp(from, to uint8, p float64) uint8 {
	v := float64(from) + (float64(to)-float64(from))*p
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
