package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/compshell/internal/compositor"
	"github.com/1broseidon/compshell/internal/config"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWS is a window system with a fixed set of top-level windows.
type fakeWS struct {
	next      uint32
	toplevels []platform.WindowState
	raised    []platform.WindowID
}

func (f *fakeWS) id() uint32 {
	f.next++
	return 0x1000 + f.next
}

func (f *fakeWS) NameWindowPixmap(platform.WindowID) (platform.Pixmap, error) {
	return platform.Pixmap(f.id()), nil
}
func (f *fakeWS) FreePixmap(platform.Pixmap) {}
func (f *fakeWS) WindowFormat(platform.WindowID) (platform.PixelFormat, error) {
	return platform.PixelFormat{Visual: 0x21, Depth: 24}, nil
}
func (f *fakeWS) CreateDamage(platform.WindowID) (platform.Damage, error) {
	return platform.Damage(f.id()), nil
}
func (f *fakeWS) DestroyDamage(platform.Damage) {}
func (f *fakeWS) CreateRegion() (platform.Region, error) {
	return platform.Region(f.id()), nil
}
func (f *fakeWS) DestroyRegion(platform.Region)                         {}
func (f *fakeWS) SubtractDamage(platform.Damage, platform.Region) error { return nil }
func (f *fakeWS) FetchRegion(platform.Region) ([]platform.Rect, error)  { return nil, nil }
func (f *fakeWS) RaiseAndFocus(win platform.WindowID) error {
	f.raised = append(f.raised, win)
	return nil
}

func (f *fakeWS) Toplevels() ([]platform.WindowState, error) { return f.toplevels, nil }
func (f *fakeWS) WindowState(win platform.WindowID) (platform.WindowState, error) {
	for _, st := range f.toplevels {
		if st.ID == win {
			return st, nil
		}
	}
	return platform.WindowState{}, errors.New("BadWindow")
}
func (f *fakeWS) ClientWindow(win platform.WindowID) platform.WindowID { return win }
func (f *fakeWS) WindowTypes(platform.WindowID) []platform.Atom       { return nil }
func (f *fakeWS) WindowOpacity(platform.WindowID) (uint32, bool)      { return 0, false }
func (f *fakeWS) WatchWindow(platform.WindowID) error                 { return nil }

type nopTexture struct{}

func (nopTexture) UpdateArea(platform.Rect) {}
func (nopTexture) Release()                 {}

type nopRenderer struct{ begins int }

func (r *nopRenderer) BindPixmap(platform.Pixmap, platform.PixelFormat, int, int) (scene.Texture, error) {
	return nopTexture{}, nil
}
func (r *nopRenderer) Begin(uint32, []platform.Rect)                   { r.begins++ }
func (r *nopRenderer) DrawTexture(scene.Texture, platform.Rect, uint8) {}
func (r *nopRenderer) End()                                            {}

func newCore(t *testing.T, ws *fakeWS) *core {
	t.Helper()
	st := scene.NewStage(&nopRenderer{}, 1280, 800)
	effects := compositor.NewEffects()
	m := compositor.NewManager(ws, nil, st, effects, quietLogger())
	if err := m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	c := &core{
		manager: m,
		stage:   st,
		effects: effects,
		logger:  quietLogger(),
		level:   new(slog.LevelVar),
		display: ":5",
	}
	c.applyConfig(&config.LoadResult{Config: config.DefaultConfig()})
	return c
}

// startLoop runs l until the test ends.
func startLoop(t *testing.T, l *loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.run(ctx, pinger{}, nil)
		close(l.done)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func twoWindows() *fakeWS {
	return &fakeWS{toplevels: []platform.WindowState{
		{ID: 0x400001, Bounds: platform.Rect{X: 10, Y: 10, Width: 300, Height: 200}, Viewable: true},
		{ID: 0x500001, Bounds: platform.Rect{X: 50, Y: 60, Width: 100, Height: 100}},
	}}
}

func TestController_RunsOnLoop(t *testing.T) {
	ws := twoWindows()
	c := newCore(t, ws)
	l := &loop{core: c, work: newWorkQueue(), done: make(chan struct{})}
	startLoop(t, l)
	ctrl := &controller{core: c, work: l.work, done: l.done}

	st := ctrl.Status()
	if st.Display != ":5" || st.Tracked != 2 || st.Shown != 1 || st.FrameRate != 60 || !st.EffectsEnabled {
		t.Fatalf("unexpected status %+v", st)
	}

	windows := ctrl.Windows()
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].ID != 0x400001 || windows[0].Width != 300 || !windows[0].Shown || windows[0].Role != "normal" {
		t.Fatalf("unexpected first window %+v", windows[0])
	}
	if windows[1].Shown {
		t.Fatalf("unmapped window reported shown")
	}

	if err := ctrl.Activate(0x400001); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := ctrl.Activate(0x999); !errors.Is(err, compositor.ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
	if err := ctrl.Repaint(); err != nil {
		t.Fatalf("repaint: %v", err)
	}
	if err := ctrl.Reload(); err == nil {
		t.Fatalf("reload without a loader should fail")
	}
}

func TestController_StoppedLoop(t *testing.T) {
	c := newCore(t, twoWindows())
	done := make(chan struct{})
	close(done)
	ctrl := &controller{core: c, work: newWorkQueue(), done: done}
	if err := ctrl.Repaint(); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if st := ctrl.Status(); st.Tracked != 0 {
		t.Fatalf("expected zero status after stop, got %+v", st)
	}
}

func TestCore_ReloadAppliesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "log_level: debug\nframe_rate: 30\nbackground: \"#336699\"\neffects:\n  enabled: false\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := newCore(t, twoWindows())
	var frameRate int
	c.onConfig = func(cfg *config.Config) { frameRate = cfg.FrameRate }
	c.load = func() (*config.LoadResult, error) { return config.LoadFromPath(path) }

	if err := c.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if c.level.Level() != slog.LevelDebug {
		t.Fatalf("log level not applied: %v", c.level.Level())
	}
	if c.stage.Background() != 0x336699 {
		t.Fatalf("background not applied: 0x%x", c.stage.Background())
	}
	if c.effects.Enabled || frameRate != 30 || len(c.files) != 1 {
		t.Fatalf("effects=%v frameRate=%d files=%v", c.effects.Enabled, frameRate, c.files)
	}

	if err := os.WriteFile(path, []byte("frame_rate: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.reload(); err == nil {
		t.Fatalf("expected invalid config to fail")
	}
	if c.cfg.FrameRate != 30 {
		t.Fatalf("failed reload replaced the running config")
	}
}

func TestLoop_SubmitAfterStop(t *testing.T) {
	l := &loop{core: newCore(t, twoWindows()), work: newWorkQueue(), done: make(chan struct{})}
	close(l.done)
	if l.submit(func() error { return nil }) {
		t.Fatalf("submit should fail once the loop is done")
	}
}

func TestLoop_FramesPaintDirtyStage(t *testing.T) {
	c := newCore(t, twoWindows())
	l := &loop{core: c, work: newWorkQueue(), done: make(chan struct{})}
	c.onConfig = l.configChanged
	cfg := config.DefaultConfig()
	cfg.FrameRate = 200
	l.core.cfg = cfg
	startLoop(t, l)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frames, _ := call(&controller{core: c, work: l.work, done: l.done}, func() (uint64, error) {
			return c.stage.Frames(), nil
		})
		if frames > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("stage was never painted")
}

type recordingSink struct {
	calls []string
	state platform.WindowState
	above platform.WindowID
	atom  platform.Atom
	dmg   platform.Damage
}

func (r *recordingSink) HandleCreate(st platform.WindowState) {
	r.calls = append(r.calls, "create")
	r.state = st
}
func (r *recordingSink) HandleMap(platform.WindowID)   { r.calls = append(r.calls, "map") }
func (r *recordingSink) HandleUnmap(platform.WindowID) { r.calls = append(r.calls, "unmap") }
func (r *recordingSink) HandleConfigure(st platform.WindowState, above platform.WindowID) {
	r.calls = append(r.calls, "configure")
	r.state, r.above = st, above
}
func (r *recordingSink) HandleDestroy(platform.WindowID) { r.calls = append(r.calls, "destroy") }
func (r *recordingSink) HandleReparent(st platform.WindowState, parent, root platform.WindowID) {
	r.calls = append(r.calls, "reparent")
	r.state = st
}
func (r *recordingSink) HandleDamage(_ platform.WindowID, d platform.Damage) {
	r.calls = append(r.calls, "damage")
	r.dmg = d
}
func (r *recordingSink) HandleProperty(_ platform.WindowID, a platform.Atom) {
	r.calls = append(r.calls, "property")
	r.atom = a
}

func TestDispatch_TranslatesEvents(t *testing.T) {
	const root = 0x100
	ws := twoWindows()
	sink := &recordingSink{}
	d := &dispatcher{sink: sink, ws: ws, root: root, logger: quietLogger()}

	if !d.dispatch(xproto.CreateNotifyEvent{Parent: root, Window: 0x400001}) {
		t.Fatalf("create not handled")
	}
	if sink.state.Bounds.Width != 300 {
		t.Fatalf("create should query full window state, got %+v", sink.state)
	}

	d.dispatch(xproto.MapNotifyEvent{Event: root, Window: 0x400001})
	d.dispatch(xproto.ConfigureNotifyEvent{Event: root, Window: 0x400001, AboveSibling: 0x500001, X: 5, Y: 6, Width: 70, Height: 80, BorderWidth: 2})
	if sink.above != 0x500001 || sink.state.Bounds != (platform.Rect{X: 5, Y: 6, Width: 70, Height: 80}) || sink.state.BorderWidth != 2 {
		t.Fatalf("unexpected configure %+v above 0x%x", sink.state, sink.above)
	}
	d.dispatch(xproto.UnmapNotifyEvent{Event: root, Window: 0x400001})
	d.dispatch(xproto.PropertyNotifyEvent{Window: 0x400001, Atom: 77})
	d.dispatch(damage.NotifyEvent{Drawable: 0x400001, Damage: 0x2001})
	d.dispatch(xproto.ReparentNotifyEvent{Event: root, Window: 0x400001, Parent: 0x777})
	d.dispatch(xproto.DestroyNotifyEvent{Event: root, Window: 0x400001})

	want := []string{"create", "map", "configure", "unmap", "property", "damage", "reparent", "destroy"}
	if len(sink.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", sink.calls, want)
	}
	for i := range want {
		if sink.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", sink.calls, want)
		}
	}
	if sink.atom != 77 || sink.dmg != 0x2001 {
		t.Fatalf("atom=%d damage=0x%x", sink.atom, sink.dmg)
	}
}

func TestDispatch_IgnoresNonRootEvents(t *testing.T) {
	const root = 0x100
	sink := &recordingSink{}
	d := &dispatcher{sink: sink, ws: twoWindows(), root: root, logger: quietLogger()}

	handled := []bool{
		d.dispatch(xproto.MapNotifyEvent{Event: 0x400001, Window: 0x400002}),
		d.dispatch(xproto.CreateNotifyEvent{Parent: 0x400001, Window: 0x400002}),
		d.dispatch(xproto.ConfigureNotifyEvent{Event: root, Window: root}),
		d.dispatch(xproto.KeyPressEvent{}),
	}
	for i, h := range handled {
		if h {
			t.Fatalf("event %d should be ignored", i)
		}
	}
	// A window that vanished before we could query it is consumed silently.
	if !d.dispatch(xproto.CreateNotifyEvent{Parent: root, Window: 0xdead}) {
		t.Fatalf("vanished create should be consumed")
	}
	if len(sink.calls) != 0 {
		t.Fatalf("unexpected calls %v", sink.calls)
	}
}

func TestReconciler_SubmitsAndRecovers(t *testing.T) {
	var passes atomic.Int32
	submitted := make(chan func() error, 4)
	r := NewReconciler(ReconcilerConfig{Interval: 10 * time.Millisecond, Logger: quietLogger()},
		func() (int, int, error) {
			if passes.Add(1) == 1 {
				panic("boom")
			}
			return 1, 0, nil
		},
		func(fn func() error) bool {
			select {
			case submitted <- fn:
				return true
			default:
				return true
			}
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case fn := <-submitted:
			fn()
		case <-time.After(2 * time.Second):
			t.Fatalf("reconciler never submitted work")
		}
	}
	if passes.Load() != 2 {
		t.Fatalf("expected 2 passes, got %d", passes.Load())
	}
}

func TestReconciler_DisabledAndStoppedLoop(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, func() (int, int, error) { return 0, 0, nil }, nil)
	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled reconciler should return immediately")
	}

	r = NewReconciler(ReconcilerConfig{Interval: time.Millisecond, Logger: quietLogger()},
		func() (int, int, error) { return 0, 0, nil },
		func(func() error) bool { return false })
	done = make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("reconciler should stop when the loop refuses work")
	}
}

func TestBatch_JoinsErrors(t *testing.T) {
	var order []int
	b := &batch{work: []func() error{
		func() error { order = append(order, 1); return errors.New("a") },
		func() error { order = append(order, 2); return nil },
		func() error { order = append(order, 3); return errors.New("b") },
	}}
	err := b.run()
	if err == nil || len(order) != 3 || order[2] != 3 {
		t.Fatalf("err=%v order=%v", err, order)
	}
}
