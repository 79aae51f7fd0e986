package compositor

import (
	"errors"
	"testing"

	"github.com/1broseidon/compshell/internal/atoms"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

type managerFixture struct {
	ws      *fakeWS
	table   *atoms.Table
	stage   *scene.Stage
	effects *Effects
	m       *Manager
}

func newManagerFixture(t *testing.T, toplevels ...platform.WindowState) *managerFixture {
	t.Helper()
	ws := newFakeWS()
	ws.toplevels = toplevels
	table := newTable(t)
	st := scene.NewStage(&fakeRenderer{}, 800, 480)
	effects := NewEffects()
	return &managerFixture{
		ws:      ws,
		table:   table,
		stage:   st,
		effects: effects,
		m:       NewManager(ws, table, st, effects, quietLogger()),
	}
}

func window(id platform.WindowID, viewable bool) platform.WindowState {
	return platform.WindowState{
		ID:       id,
		Bounds:   platform.Rect{X: 10, Y: 20, Width: 300, Height: 200},
		Viewable: viewable,
	}
}

func ids(infos []WindowInfo) []platform.WindowID {
	out := make([]platform.WindowID, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Window)
	}
	return out
}

func TestManager_ScanTracksAndShowsViewable(t *testing.T) {
	inputOnly := window(0x30, true)
	inputOnly.InputOnly = true
	f := newManagerFixture(t, window(0x10, true), window(0x20, false), inputOnly, window(0x40, true))
	f.m.Ignore(0x40)

	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := ids(f.m.Records())
	if len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Fatalf("expected 0x10 and 0x20 tracked bottom to top, got %v", got)
	}
	rec, _ := f.m.Lookup(0x10)
	if !rec.Shown() {
		t.Fatalf("viewable window should be shown by the scan")
	}
	rec, _ = f.m.Lookup(0x20)
	if rec.Shown() {
		t.Fatalf("unmapped window should not be shown")
	}
	if rec.Refs() != 1 {
		t.Fatalf("scan must not play effects, got %d refs", rec.Refs())
	}
	if s := f.m.Stats(); s.Tracked != 2 || s.Shown != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestManager_MapUnmapDestroyLifecycle(t *testing.T) {
	f := newManagerFixture(t)
	st := window(0x10, false)
	f.m.HandleCreate(st)
	f.ws.toplevels = []platform.WindowState{st}

	f.m.HandleMap(0x10)
	rec, ok := f.m.Lookup(0x10)
	if !ok || !rec.Shown() {
		t.Fatalf("mapped window should be shown")
	}
	if rec.Refs() != 2 {
		t.Fatalf("map should start a fade holding a reference, got %d", rec.Refs())
	}
	f.stage.Advance(DefaultEffectDuration)

	f.m.HandleUnmap(0x10)
	f.m.HandleDestroy(0x10)
	if _, ok := f.m.Lookup(0x10); ok {
		t.Fatalf("destroyed window should be forgotten")
	}
	if rec.Destroyed() {
		t.Fatalf("record should survive until the fade-out completes")
	}
	if s := f.m.Stats(); s.PendingTeardown != 1 {
		t.Fatalf("expected one pending teardown, got %+v", s)
	}

	f.stage.Advance(DefaultEffectDuration)
	if !rec.Destroyed() {
		t.Fatalf("record should be torn down after the fade-out")
	}
	if s := f.m.Stats(); s.PendingTeardown != 0 || s.TornDown != 1 {
		t.Fatalf("unexpected stats after teardown %+v", s)
	}
	if len(f.stage.Children()) != 0 {
		t.Fatalf("actor should leave the stage")
	}
}

func TestManager_MapUntrackedWindow(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true))
	f.m.HandleMap(0x10)
	if rec, ok := f.m.Lookup(0x10); !ok || !rec.Shown() {
		t.Fatalf("map of an unknown window should track and show it")
	}

	f.m.HandleMap(0x99)
	if _, ok := f.m.Lookup(0x99); ok {
		t.Fatalf("vanished window must not be tracked")
	}
}

func TestManager_ConfigureOnlyRebindsOnResize(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	named := len(f.ws.named)

	moved := window(0x10, true)
	moved.Bounds.X += 50
	f.m.HandleConfigure(moved, 0)
	if len(f.ws.named) != named {
		t.Fatalf("a move must not rename the pixmap")
	}
	rec, _ := f.m.Lookup(0x10)
	if rec.Actor().Geometry().X != moved.Bounds.X {
		t.Fatalf("actor geometry not updated")
	}

	resized := moved
	resized.Bounds.Width = 640
	f.m.HandleConfigure(resized, 0)
	if len(f.ws.named) != named+1 {
		t.Fatalf("a resize should rename the pixmap once")
	}
	if len(f.ws.createdDamage) != 1 {
		t.Fatalf("configure must not create damage")
	}
}

func TestManager_MoveRetriesFailedRebind(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	rec, _ := f.m.Lookup(0x10)

	resized := window(0x10, true)
	resized.Bounds.Width = 640
	f.ws.failName[0x10] = true
	f.m.HandleConfigure(resized, 0)
	if !rec.NeedsPixmap() {
		t.Fatalf("failed rebind should leave the record without a pixmap")
	}

	delete(f.ws.failName, 0x10)
	moved := resized
	moved.Bounds.X += 30
	f.m.HandleConfigure(moved, 0)
	if rec.NeedsPixmap() || !rec.Actor().Bound() {
		t.Fatalf("same-size configure should retry the rebind, pixmap=%v", rec.Actor().Pixmap())
	}
}

func TestManager_TracksBorderWidth(t *testing.T) {
	st := window(0x10, true)
	st.BorderWidth = 2
	f := newManagerFixture(t, st)
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	rec, _ := f.m.Lookup(0x10)
	if rec.Actor().BorderWidth() != 2 {
		t.Fatalf("border width not tracked")
	}
	if g := rec.Actor().Geometry(); g.Width != 304 || g.Height != 204 {
		t.Fatalf("geometry should include the border, got %+v", g)
	}

	st.BorderWidth = 0
	f.m.HandleConfigure(st, 0)
	if rec.Actor().BorderWidth() != 0 {
		t.Fatalf("configure should update the border width")
	}
}

func TestManager_ConfigureRestacks(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true), window(0x20, true), window(0x30, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	f.m.HandleConfigure(window(0x10, true), 0x30)
	got := ids(f.m.Records())
	if len(got) != 3 || got[0] != 0x20 || got[1] != 0x30 || got[2] != 0x10 {
		t.Fatalf("expected 0x10 on top, got %v", got)
	}

	f.m.HandleConfigure(window(0x30, true), 0)
	got = ids(f.m.Records())
	if got[0] != 0x30 {
		t.Fatalf("expected 0x30 at the bottom, got %v", got)
	}
}

func TestManager_DamageRouting(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	rec, _ := f.m.Lookup(0x10)
	current := rec.Damage()

	f.ws.damageWindow(0x10, platform.Rect{Width: 5, Height: 5})
	f.m.HandleDamage(0x10, current+1000)
	if len(f.ws.pendingDamage[current]) != 1 {
		t.Fatalf("stale damage notification must not drain the current damage")
	}

	f.m.HandleDamage(0x10, current)
	if len(f.ws.pendingDamage[current]) != 0 {
		t.Fatalf("damage should be drained")
	}
}

func TestManager_PropertyChanges(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	rec, _ := f.m.Lookup(0x10)

	f.ws.opacity[0x10] = 0x80000000
	f.m.HandleProperty(0x10, f.table.Get(atoms.NetWMWindowOpacity))
	if rec.TargetOpacity() != 0x80 || rec.Actor().Opacity() != 0x80 {
		t.Fatalf("opacity not applied: target=%d actor=%d", rec.TargetOpacity(), rec.Actor().Opacity())
	}

	f.ws.types[0x10] = []platform.Atom{f.table.Get(atoms.HildonWMWindowTypeStatusArea)}
	f.m.HandleProperty(0x10, f.table.Get(atoms.NetWMWindowType))
	if rec.Role() != RoleStatusArea {
		t.Fatalf("expected status-area role, got %v", rec.Role())
	}
}

func TestManager_ReparentedClient(t *testing.T) {
	f := newManagerFixture(t)
	client := window(0x400001, false)
	frame := window(0x10, false)

	f.m.HandleCreate(client)
	f.m.HandleCreate(frame)
	f.ws.clients[0x10] = 0x400001
	f.m.HandleReparent(client, 0x10, 0x1)

	if _, ok := f.m.records[0x400001]; ok {
		t.Fatalf("client reparented into a frame must not stay a top-level")
	}
	rec, ok := f.m.Lookup(0x400001)
	if !ok || rec.Window().ID != 0x10 || rec.Window().Frame != 0x10 {
		t.Fatalf("client should resolve to its frame, got %+v %v", rec, ok)
	}

	f.ws.toplevels = []platform.WindowState{frame}
	f.m.HandleMap(0x10)
	if f.ws.named[len(f.ws.named)-1] != 0x10 {
		t.Fatalf("the frame should be composited")
	}
	if err := f.m.Activate(0x400001); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if f.ws.raised[0] != 0x400001 {
		t.Fatalf("activation should target the client, got %v", f.ws.raised)
	}
}

func TestManager_ActivateUnknown(t *testing.T) {
	f := newManagerFixture(t)
	if err := f.m.Activate(0x77); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestManager_Reconcile(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true), window(0x20, true))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	f.ws.toplevels = []platform.WindowState{window(0x20, true), window(0x30, true)}
	added, removed, err := f.m.Reconcile()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if added != 1 || removed != 1 {
		t.Fatalf("expected 1 added and 1 removed, got %d/%d", added, removed)
	}
	if _, ok := f.m.Lookup(0x10); ok {
		t.Fatalf("vanished window should be forgotten")
	}
	if rec, ok := f.m.Lookup(0x30); !ok || !rec.Shown() {
		t.Fatalf("missed window should be tracked and shown")
	}
}

func TestManager_ShutdownTearsEverythingDown(t *testing.T) {
	f := newManagerFixture(t, window(0x10, true), window(0x20, false))
	if err := f.m.Scan(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	f.m.HandleMap(0x20)

	f.m.Shutdown()
	if s := f.m.Stats(); s.Tracked != 0 || s.PendingTeardown != 0 || s.TornDown != 2 {
		t.Fatalf("unexpected stats after shutdown %+v", s)
	}
	if f.ws.liveDamage() != 0 {
		t.Fatalf("damage objects leaked: %d", f.ws.liveDamage())
	}
}

func TestResolveRole(t *testing.T) {
	table := newTable(t)
	tests := []struct {
		name  string
		types []platform.Atom
		want  Role
	}{
		{name: "none", want: RoleNormal},
		{name: "dock", types: []platform.Atom{table.Get(atoms.NetWMWindowTypeDock)}, want: RoleDock},
		{name: "unknown first", types: []platform.Atom{9999, table.Get(atoms.NetWMWindowTypeDialog)}, want: RoleDialog},
		{name: "popup menu", types: []platform.Atom{table.Get(atoms.NetWMWindowTypePopupMenu)}, want: RoleMenu},
		{name: "home applet", types: []platform.Atom{table.Get(atoms.HildonWMWindowTypeHomeApplet)}, want: RoleHomeApplet},
		{name: "non-type atom", types: []platform.Atom{table.Get(atoms.WMState)}, want: RoleNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRole(table, tt.types); got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
	if ResolveRole(nil, nil) != RoleNormal {
		t.Fatalf("nil table should resolve to normal")
	}
}

func TestParseRole(t *testing.T) {
	for _, name := range RoleNames() {
		role, err := ParseRole(name)
		if err != nil || role.String() != name {
			t.Fatalf("round trip of %q failed: %v %v", name, role, err)
		}
	}
	if _, err := ParseRole("bogus"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
