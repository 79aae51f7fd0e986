package compositor

import (
	"time"

	"github.com/1broseidon/compshell/internal/scene"
)

// DefaultEffectDuration is the length of map and unmap fades.
const DefaultEffectDuration = 200 * time.Millisecond

// Transition is played by Record.Effect.
type Transition interface {
	OnMapEvent(r *Record)
	OnUnmapEvent(r *Record)
}

// Effects fades windows in on map and out on unmap. Every animation it
// starts holds one reference on the record until the animation completes,
// so an unmapped window keeps its last pixels on screen while it fades even
// if the record was destroyed meanwhile.
type Effects struct {
	Enabled   bool
	Duration  time.Duration
	SkipRoles map[Role]bool
}

var _ Transition = (*Effects)(nil)

// NewEffects returns enabled effects with the default duration.
func NewEffects() *Effects {
	return &Effects{Enabled: true, Duration: DefaultEffectDuration}
}

// Configure replaces the effect settings. Running animations keep theirs.
func (e *Effects) Configure(enabled bool, d time.Duration, skip []Role) {
	e.Enabled = enabled
	e.Duration = d
	e.SkipRoles = make(map[Role]bool, len(skip))
	for _, role := range skip {
		e.SkipRoles[role] = true
	}
}

func (e *Effects) animates(r *Record) bool {
	return e.Enabled && e.Duration > 0 && !e.SkipRoles[r.Role()]
}

// OnMapEvent fades the window from transparent to its target opacity.
func (e *Effects) OnMapEvent(r *Record) {
	a := r.Actor()
	if a == nil {
		return
	}
	target := r.TargetOpacity()
	if !e.animates(r) {
		scene.CompleteAnimation(a)
		a.SetOpacity(target)
		return
	}

	ref := r.Ref()
	if ref == nil {
		return
	}
	scene.AnimateOpacity(a, 0, target, e.Duration, ref.Release)
}

// OnUnmapEvent fades the window out. The actor is hidden at the end unless
// the window was shown again in the meantime.
func (e *Effects) OnUnmapEvent(r *Record) {
	a := r.Actor()
	if a == nil {
		return
	}
	if !e.animates(r) {
		scene.CompleteAnimation(a)
		a.SetOpacity(0)
		if !r.Shown() {
			a.Hide()
		}
		return
	}

	ref := r.Ref()
	if ref == nil {
		return
	}
	scene.AnimateOpacity(a, r.TargetOpacity(), 0, e.Duration, func() {
		if !r.Shown() {
			a.Hide()
		}
		ref.Release()
	})
}
