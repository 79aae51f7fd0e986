package compositor

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/compshell/internal/atoms"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

// ErrUnknownWindow is returned for windows the manager does not track.
var ErrUnknownWindow = errors.New("window is not composited")

// WindowSystem is everything the manager needs from the window system.
type WindowSystem interface {
	platform.Compositing
	platform.Tracking
}

// Manager tracks root's children and drives one Record per window from
// window-system notifications.
type Manager struct {
	ws         WindowSystem
	atoms      *atoms.Table
	stage      *scene.Stage
	transition Transition
	logger     *slog.Logger

	ignored map[platform.WindowID]bool
	records map[platform.WindowID]*Record
	pending map[*Record]struct{}
	torn    uint64
}

// NewManager creates a manager painting into stage. transition may be nil.
func NewManager(ws WindowSystem, table *atoms.Table, stage *scene.Stage, transition Transition, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ws:         ws,
		atoms:      table,
		stage:      stage,
		transition: transition,
		logger:     logger,
		ignored:    make(map[platform.WindowID]bool),
		records:    make(map[platform.WindowID]*Record),
		pending:    make(map[*Record]struct{}),
	}
}

// Ignore excludes win from compositing, e.g. the compositor's own windows.
func (m *Manager) Ignore(win platform.WindowID) {
	m.ignored[win] = true
}

// Scan tracks every existing top-level window and shows the viewable ones.
func (m *Manager) Scan() error {
	states, err := m.ws.Toplevels()
	if err != nil {
		return err
	}
	for _, st := range states {
		rec := m.track(st)
		if rec != nil && st.Viewable {
			rec.Show()
		}
	}
	m.logger.Info("initial scan complete", "windows", len(m.records))
	return nil
}

// Lookup finds a record by top-level or client window.
func (m *Manager) Lookup(win platform.WindowID) (*Record, bool) {
	if rec, ok := m.records[win]; ok {
		return rec, true
	}
	for _, rec := range m.records {
		if rec.Window().Client == win {
			return rec, true
		}
	}
	return nil, false
}

// Records returns a snapshot of all tracked windows, bottom of the stack
// first.
func (m *Manager) Records() []WindowInfo {
	out := make([]WindowInfo, 0, len(m.records))
	for _, a := range m.stage.Children() {
		wa, ok := a.(*WindowActor)
		if !ok || wa.Record() == nil {
			continue
		}
		rec := wa.Record()
		if m.records[rec.Window().ID] != rec {
			continue
		}
		out = append(out, rec.Info())
	}
	return out
}

// Stats is a summary of the manager state.
type Stats struct {
	Tracked         int
	Shown           int
	PendingTeardown int
	TornDown        uint64
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Tracked:         len(m.records),
		PendingTeardown: len(m.pending),
		TornDown:        m.torn,
	}
	for _, rec := range m.records {
		if rec.Shown() {
			s.Shown++
		}
	}
	return s
}

// Activate raises and focuses a tracked window.
func (m *Manager) Activate(win platform.WindowID) error {
	rec, ok := m.Lookup(win)
	if !ok {
		return ErrUnknownWindow
	}
	rec.Activate()
	return nil
}

// HandleCreate starts tracking a new child of root.
func (m *Manager) HandleCreate(st platform.WindowState) {
	m.track(st)
}

// HandleMap shows the window and plays the map effect.
func (m *Manager) HandleMap(win platform.WindowID) {
	rec, ok := m.records[win]
	if !ok {
		st, err := m.ws.WindowState(win)
		if err != nil {
			m.logger.Debug("mapped window vanished", "window", win, "error", err)
			return
		}
		if rec = m.track(st); rec == nil {
			return
		}
	}
	m.refreshClient(rec)
	rec.Show()
	if rec.Shown() {
		rec.Effect(EventMap)
	}
}

// HandleUnmap hides the window and plays the unmap effect.
func (m *Manager) HandleUnmap(win platform.WindowID) {
	rec, ok := m.records[win]
	if !ok {
		return
	}
	rec.Hide()
	rec.Effect(EventUnmap)
}

// HandleConfigure applies new geometry and stacking. above is the sibling
// the window now sits on, zero for the bottom of the stack.
func (m *Manager) HandleConfigure(st platform.WindowState, above platform.WindowID) {
	rec, ok := m.records[st.ID]
	if !ok {
		return
	}
	actor := rec.Actor()
	old := actor.Geometry()
	bounds := st.OuterBounds()
	actor.SetGeometry(bounds)
	actor.SetBorderWidth(st.BorderWidth)

	if above == 0 {
		m.stage.RestackAbove(actor, nil)
	} else if sib, ok := m.records[above]; ok {
		m.stage.RestackAbove(actor, sib.Actor())
	}

	if old.Width != bounds.Width || old.Height != bounds.Height || rec.NeedsPixmap() {
		rec.Configure()
	}
}

// HandleDestroy forgets the window and releases its record.
func (m *Manager) HandleDestroy(win platform.WindowID) {
	rec, ok := m.records[win]
	if !ok {
		return
	}
	m.forget(rec)
}

// HandleReparent tracks windows reparented to root and forgets windows
// reparented away from it.
func (m *Manager) HandleReparent(st platform.WindowState, parent, root platform.WindowID) {
	if parent != root {
		m.HandleDestroy(st.ID)
		if frame, ok := m.records[parent]; ok {
			m.refreshClient(frame)
		}
		return
	}
	rec := m.track(st)
	if rec != nil && st.Viewable {
		rec.Show()
	}
}

// HandleDamage repairs the window the damage belongs to. Notifications for
// a damage object from an earlier show cycle are ignored.
func (m *Manager) HandleDamage(win platform.WindowID, d platform.Damage) {
	rec, ok := m.records[win]
	if !ok || rec.Damage() != d {
		return
	}
	rec.Repair()
}

// HandleProperty refreshes opacity or role after a property change on a
// top-level or client window.
func (m *Manager) HandleProperty(win platform.WindowID, atom platform.Atom) {
	rec, ok := m.Lookup(win)
	if !ok || m.atoms == nil || !m.atoms.Ready() {
		return
	}
	switch atom {
	case m.atoms.Get(atoms.NetWMWindowOpacity):
		m.refreshOpacity(rec)
	case m.atoms.Get(atoms.NetWMWindowType):
		m.refreshRole(rec)
	}
}

// Reconcile compares tracked records with root's children. Records whose
// window vanished without a DestroyNotify are released, and windows that
// were missed are tracked.
func (m *Manager) Reconcile() (added, removed int, err error) {
	states, err := m.ws.Toplevels()
	if err != nil {
		return 0, 0, err
	}
	present := make(map[platform.WindowID]bool, len(states))
	for _, st := range states {
		present[st.ID] = true
		if _, ok := m.records[st.ID]; ok {
			continue
		}
		rec := m.track(st)
		if rec == nil {
			continue
		}
		added++
		if st.Viewable {
			rec.Show()
		}
	}
	for id, rec := range m.records {
		if !present[id] {
			m.forget(rec)
			removed++
		}
	}
	return added, removed, nil
}

// Shutdown completes running effects and tears every record down.
func (m *Manager) Shutdown() {
	for _, rec := range m.records {
		m.forget(rec)
	}
	for rec := range m.pending {
		scene.CompleteAnimation(rec.Actor())
	}
}

func (m *Manager) track(st platform.WindowState) *Record {
	if rec, ok := m.records[st.ID]; ok {
		return rec
	}
	if st.InputOnly || m.ignored[st.ID] {
		return nil
	}

	win := Window{ID: st.ID, Client: st.ID}
	if client := m.ws.ClientWindow(st.ID); client != 0 && client != st.ID {
		win.Client = client
		win.Frame = st.ID
	}

	actor := NewWindowActor(m.ws, st.ID, m.logger)
	actor.SetGeometry(st.OuterBounds())
	actor.SetBorderWidth(st.BorderWidth)
	rec, err := NewRecord(m.ws, win, actor, m.logger)
	if err != nil {
		m.logger.Error("failed to create composited window", "window", st.ID, "error", err)
		return nil
	}
	rec.SetTransition(m.transition)
	rec.OnDestroyed = m.finished

	if err := m.ws.WatchWindow(win.Client); err != nil {
		m.logger.Debug("failed to watch client properties", "window", win.Client, "error", err)
	}
	m.refreshRole(rec)
	m.refreshOpacity(rec)

	m.stage.Add(actor)
	m.records[st.ID] = rec
	m.logger.Debug("tracking window", "window", st.ID, "client", win.Client, "role", rec.Role())
	return rec
}

func (m *Manager) forget(rec *Record) {
	delete(m.records, rec.Window().ID)
	m.pending[rec] = struct{}{}
	rec.Destroy()
}

func (m *Manager) finished(rec *Record) {
	delete(m.pending, rec)
	m.torn++
}

// refreshClient picks up a client window reparented into a tracked frame
// after the frame was first seen.
func (m *Manager) refreshClient(rec *Record) {
	w := rec.Window()
	if w.Frame != 0 {
		return
	}
	client := m.ws.ClientWindow(w.ID)
	if client == 0 || client == w.ID {
		return
	}
	rec.win.Client = client
	rec.win.Frame = w.ID
	if err := m.ws.WatchWindow(client); err != nil {
		m.logger.Debug("failed to watch client properties", "window", client, "error", err)
	}
	m.refreshRole(rec)
	m.refreshOpacity(rec)
}

func (m *Manager) refreshRole(rec *Record) {
	rec.SetRole(ResolveRole(m.atoms, m.ws.WindowTypes(rec.Window().Client)))
}

func (m *Manager) refreshOpacity(rec *Record) {
	o := uint8(0xff)
	if v, ok := m.ws.WindowOpacity(rec.Window().Client); ok {
		o = uint8(v >> 24)
	}
	rec.SetTargetOpacity(o)
}
