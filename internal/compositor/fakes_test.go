package compositor

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/compshell/internal/atoms"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

var errGone = errors.New("BadWindow")

// fakeWS is an in-memory window system. Damage accumulates per damage
// object until SubtractDamage moves it into a region.
type fakeWS struct {
	next uint32

	failName   map[platform.WindowID]bool
	failDamage bool
	failRegion bool
	named      []platform.WindowID
	freed      []platform.Pixmap

	damageFor        map[platform.Damage]platform.WindowID
	createdDamage    []platform.Damage
	destroyedDamage  []platform.Damage
	destroyedRegions []platform.Region
	pendingDamage    map[platform.Damage][]platform.Rect
	regions          map[platform.Region][]platform.Rect

	raised []platform.WindowID

	toplevels []platform.WindowState
	clients   map[platform.WindowID]platform.WindowID
	types     map[platform.WindowID][]platform.Atom
	opacity   map[platform.WindowID]uint32
	watched   []platform.WindowID
}

func newFakeWS() *fakeWS {
	return &fakeWS{
		next:          0x100,
		failName:      make(map[platform.WindowID]bool),
		damageFor:     make(map[platform.Damage]platform.WindowID),
		pendingDamage: make(map[platform.Damage][]platform.Rect),
		regions:       make(map[platform.Region][]platform.Rect),
		clients:       make(map[platform.WindowID]platform.WindowID),
		types:         make(map[platform.WindowID][]platform.Atom),
		opacity:       make(map[platform.WindowID]uint32),
	}
}

func (f *fakeWS) id() uint32 {
	f.next++
	return f.next
}

func (f *fakeWS) NameWindowPixmap(win platform.WindowID) (platform.Pixmap, error) {
	if f.failName[win] {
		return 0, errGone
	}
	f.named = append(f.named, win)
	return platform.Pixmap(f.id()), nil
}

func (f *fakeWS) FreePixmap(p platform.Pixmap) { f.freed = append(f.freed, p) }

func (f *fakeWS) WindowFormat(platform.WindowID) (platform.PixelFormat, error) {
	return platform.PixelFormat{Visual: 0x21, Depth: 24}, nil
}

func (f *fakeWS) CreateDamage(win platform.WindowID) (platform.Damage, error) {
	if f.failDamage {
		return 0, errGone
	}
	d := platform.Damage(f.id())
	f.damageFor[d] = win
	f.createdDamage = append(f.createdDamage, d)
	return d, nil
}

func (f *fakeWS) DestroyDamage(d platform.Damage) {
	delete(f.damageFor, d)
	f.destroyedDamage = append(f.destroyedDamage, d)
}

func (f *fakeWS) CreateRegion() (platform.Region, error) {
	if f.failRegion {
		return 0, errors.New("BadAlloc")
	}
	return platform.Region(f.id()), nil
}

func (f *fakeWS) DestroyRegion(r platform.Region) {
	f.destroyedRegions = append(f.destroyedRegions, r)
}

func (f *fakeWS) SubtractDamage(d platform.Damage, parts platform.Region) error {
	f.regions[parts] = f.pendingDamage[d]
	delete(f.pendingDamage, d)
	return nil
}

func (f *fakeWS) FetchRegion(r platform.Region) ([]platform.Rect, error) {
	return f.regions[r], nil
}

func (f *fakeWS) RaiseAndFocus(win platform.WindowID) error {
	f.raised = append(f.raised, win)
	return nil
}

func (f *fakeWS) Toplevels() ([]platform.WindowState, error) {
	return f.toplevels, nil
}

func (f *fakeWS) WindowState(win platform.WindowID) (platform.WindowState, error) {
	for _, st := range f.toplevels {
		if st.ID == win {
			return st, nil
		}
	}
	return platform.WindowState{}, errGone
}

func (f *fakeWS) ClientWindow(win platform.WindowID) platform.WindowID {
	if c, ok := f.clients[win]; ok {
		return c
	}
	return win
}

func (f *fakeWS) WindowTypes(win platform.WindowID) []platform.Atom { return f.types[win] }

func (f *fakeWS) WindowOpacity(win platform.WindowID) (uint32, bool) {
	v, ok := f.opacity[win]
	return v, ok
}

func (f *fakeWS) WatchWindow(win platform.WindowID) error {
	f.watched = append(f.watched, win)
	return nil
}

// damageWindow reports r as changed on every live damage object of win.
func (f *fakeWS) damageWindow(win platform.WindowID, r platform.Rect) {
	for d, w := range f.damageFor {
		if w == win {
			f.pendingDamage[d] = append(f.pendingDamage[d], r)
		}
	}
}

func (f *fakeWS) liveDamage() int {
	return len(f.damageFor)
}

type fakeTexture struct {
	pixmap   platform.Pixmap
	updates  []platform.Rect
	released bool
}

func (t *fakeTexture) UpdateArea(r platform.Rect) { t.updates = append(t.updates, r) }
func (t *fakeTexture) Release()                   { t.released = true }

type fakeRenderer struct {
	textures []*fakeTexture
	draws    int
	clips    [][]platform.Rect
}

func (f *fakeRenderer) BindPixmap(p platform.Pixmap, _ platform.PixelFormat, _, _ int) (scene.Texture, error) {
	t := &fakeTexture{pixmap: p}
	f.textures = append(f.textures, t)
	return t, nil
}

func (f *fakeRenderer) Begin(_ uint32, clip []platform.Rect) {
	f.clips = append(f.clips, append([]platform.Rect(nil), clip...))
}

func (f *fakeRenderer) DrawTexture(scene.Texture, platform.Rect, uint8) { f.draws++ }

func (f *fakeRenderer) End() {}

func (f *fakeRenderer) last() *fakeTexture {
	if len(f.textures) == 0 {
		return nil
	}
	return f.textures[len(f.textures)-1]
}

type seqInterner struct{}

func (seqInterner) InternAtoms(names []string, _ bool) ([]platform.Atom, error) {
	out := make([]platform.Atom, len(names))
	for i := range out {
		out[i] = platform.Atom(1000 + i)
	}
	return out, nil
}

func newTable(t *testing.T) *atoms.Table {
	t.Helper()
	table := &atoms.Table{}
	if err := atoms.InitAtoms(seqInterner{}, table); err != nil {
		t.Fatalf("init atoms: %v", err)
	}
	return table
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is one record on a stage.
type fixture struct {
	ws       *fakeWS
	renderer *fakeRenderer
	stage    *scene.Stage
	actor    *WindowActor
	record   *Record
}

func newFixture(t *testing.T, win platform.WindowID) *fixture {
	t.Helper()
	ws := newFakeWS()
	r := &fakeRenderer{}
	st := scene.NewStage(r, 800, 480)
	actor := NewWindowActor(ws, win, quietLogger())
	actor.SetGeometry(platform.Rect{X: 100, Y: 50, Width: 200, Height: 100})
	st.Add(actor)
	rec, err := NewRecord(ws, Window{ID: win}, actor, quietLogger())
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	return &fixture{ws: ws, renderer: r, stage: st, actor: actor, record: rec}
}
