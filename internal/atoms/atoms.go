// Package atoms holds the process-wide table of interned window properties
// used to recognize special window roles.
//
// The table is filled once per connection by InitAtoms and only read
// afterwards.
package atoms

import (
	"fmt"

	"github.com/1broseidon/compshell/internal/platform"
)

// Atom indexes the table. The order of the constants must match names.
type Atom int

const (
	NetWMWindowType Atom = iota
	NetWMWindowTypeNormal
	NetWMWindowTypeDialog
	NetWMWindowTypeDock
	NetWMWindowTypeDesktop
	NetWMWindowTypeSplash
	NetWMWindowTypeNotification
	NetWMWindowTypeMenu
	NetWMWindowTypePopupMenu
	NetWMWindowTypeDropdownMenu
	NetWMWindowTypeTooltip
	NetWMWindowOpacity
	NetActiveWindow
	NetWMPid
	WMState
	HildonAppKillable
	HildonStackableWindow
	HildonWMWindowTypeHomeApplet
	HildonWMWindowTypeStatusArea
	HildonWMWindowTypeStatusMenu
	HildonWMWindowTypeAppMenu
	HildonWMWindowTypeAnimationActor
	HildonAppletID

	atomCount
)

var names = [...]string{
	NetWMWindowType:                  "_NET_WM_WINDOW_TYPE",
	NetWMWindowTypeNormal:            "_NET_WM_WINDOW_TYPE_NORMAL",
	NetWMWindowTypeDialog:            "_NET_WM_WINDOW_TYPE_DIALOG",
	NetWMWindowTypeDock:              "_NET_WM_WINDOW_TYPE_DOCK",
	NetWMWindowTypeDesktop:           "_NET_WM_WINDOW_TYPE_DESKTOP",
	NetWMWindowTypeSplash:            "_NET_WM_WINDOW_TYPE_SPLASH",
	NetWMWindowTypeNotification:      "_NET_WM_WINDOW_TYPE_NOTIFICATION",
	NetWMWindowTypeMenu:              "_NET_WM_WINDOW_TYPE_MENU",
	NetWMWindowTypePopupMenu:         "_NET_WM_WINDOW_TYPE_POPUP_MENU",
	NetWMWindowTypeDropdownMenu:      "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
	NetWMWindowTypeTooltip:           "_NET_WM_WINDOW_TYPE_TOOLTIP",
	NetWMWindowOpacity:               "_NET_WM_WINDOW_OPACITY",
	NetActiveWindow:                  "_NET_ACTIVE_WINDOW",
	NetWMPid:                         "_NET_WM_PID",
	WMState:                          "WM_STATE",
	HildonAppKillable:                "_HILDON_APP_KILLABLE",
	HildonStackableWindow:            "_HILDON_STACKABLE_WINDOW",
	HildonWMWindowTypeHomeApplet:     "_HILDON_WM_WINDOW_TYPE_HOME_APPLET",
	HildonWMWindowTypeStatusArea:     "_HILDON_WM_WINDOW_TYPE_STATUS_AREA",
	HildonWMWindowTypeStatusMenu:     "_HILDON_WM_WINDOW_TYPE_STATUS_MENU",
	HildonWMWindowTypeAppMenu:        "_HILDON_WM_WINDOW_TYPE_APP_MENU",
	HildonWMWindowTypeAnimationActor: "_HILDON_WM_WINDOW_TYPE_ANIMATION_ACTOR",
	HildonAppletID:                   "_HILDON_APPLET_ID",
}

// Fails to compile when a constant is added without a name (or the reverse).
var _ [0]struct{} = [len(names) - int(atomCount)]struct{}{}

// String returns the property name of a.
func (a Atom) String() string {
	if a < 0 || a >= atomCount {
		return fmt.Sprintf("Atom(%d)", int(a))
	}
	return names[a]
}

// Names returns the property names in table order.
func Names() []string {
	out := make([]string, atomCount)
	copy(out, names[:])
	return out
}

// Interner interns a batch of names in one round trip, returning atoms in
// the order of names.
type Interner interface {
	InternAtoms(names []string, onlyIfExists bool) ([]platform.Atom, error)
}

// Table maps Atom indexes to interned identifiers.
type Table struct {
	atoms [atomCount]platform.Atom
	ready bool
}

// InitAtoms interns every table name (creating missing ones) with a single
// batched call and stores the results at matching indexes.
func InitAtoms(conn Interner, table *Table) error {
	if table == nil {
		return fmt.Errorf("atom table is nil")
	}
	if table.ready {
		return fmt.Errorf("atom table already initialized")
	}

	interned, err := conn.InternAtoms(Names(), false)
	if err != nil {
		return fmt.Errorf("failed to intern atoms: %w", err)
	}
	if len(interned) != int(atomCount) {
		return fmt.Errorf("interned %d atoms, expected %d", len(interned), atomCount)
	}

	copy(table.atoms[:], interned)
	table.ready = true
	return nil
}

// Ready reports whether InitAtoms has filled the table.
func (t *Table) Ready() bool {
	return t != nil && t.ready
}

// Get returns the interned identifier of a.
func (t *Table) Get(a Atom) platform.Atom {
	if t == nil || a < 0 || a >= atomCount {
		return 0
	}
	return t.atoms[a]
}

// Lookup maps an interned identifier back to its table index.
func (t *Table) Lookup(id platform.Atom) (Atom, bool) {
	if t == nil || !t.ready || id == 0 {
		return 0, false
	}
	for i, v := range t.atoms {
		if v == id {
			return Atom(i), true
		}
	}
	return 0, false
}
