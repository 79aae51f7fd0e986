package compositor

import (
	"fmt"
	"strings"

	"github.com/1broseidon/compshell/internal/atoms"
	"github.com/1broseidon/compshell/internal/platform"
)

// Role classifies a window by its declared window type.
type Role int

const (
	RoleNormal Role = iota
	RoleDialog
	RoleDock
	RoleDesktop
	RoleSplash
	RoleNotification
	RoleMenu
	RoleTooltip
	RoleHomeApplet
	RoleStatusArea
	RoleStatusMenu
	RoleAppMenu
	RoleAnimationActor
	roleCount
)

var roleNames = [...]string{
	RoleNormal:         "normal",
	RoleDialog:         "dialog",
	RoleDock:           "dock",
	RoleDesktop:        "desktop",
	RoleSplash:         "splash",
	RoleNotification:   "notification",
	RoleMenu:           "menu",
	RoleTooltip:        "tooltip",
	RoleHomeApplet:     "home-applet",
	RoleStatusArea:     "status-area",
	RoleStatusMenu:     "status-menu",
	RoleAppMenu:        "app-menu",
	RoleAnimationActor: "animation-actor",
}

var _ [0]struct{} = [len(roleNames) - int(roleCount)]struct{}{}

func (r Role) String() string {
	if r < 0 || r >= roleCount {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole accepts the names printed by Role.String.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown window role %q", s)
}

// RoleNames lists every role name.
func RoleNames() []string {
	return append([]string(nil), roleNames[:]...)
}

var roleByType = map[atoms.Atom]Role{
	atoms.NetWMWindowTypeNormal:            RoleNormal,
	atoms.NetWMWindowTypeDialog:            RoleDialog,
	atoms.NetWMWindowTypeDock:              RoleDock,
	atoms.NetWMWindowTypeDesktop:           RoleDesktop,
	atoms.NetWMWindowTypeSplash:            RoleSplash,
	atoms.NetWMWindowTypeNotification:      RoleNotification,
	atoms.NetWMWindowTypeMenu:              RoleMenu,
	atoms.NetWMWindowTypePopupMenu:         RoleMenu,
	atoms.NetWMWindowTypeDropdownMenu:      RoleMenu,
	atoms.NetWMWindowTypeTooltip:           RoleTooltip,
	atoms.HildonWMWindowTypeHomeApplet:     RoleHomeApplet,
	atoms.HildonWMWindowTypeStatusArea:     RoleStatusArea,
	atoms.HildonWMWindowTypeStatusMenu:     RoleStatusMenu,
	atoms.HildonWMWindowTypeAppMenu:        RoleAppMenu,
	atoms.HildonWMWindowTypeAnimationActor: RoleAnimationActor,
}

// ResolveRole maps a _NET_WM_WINDOW_TYPE list to a role. The first type the
// table recognizes wins; windows without a known type are normal.
func ResolveRole(table *atoms.Table, types []platform.Atom) Role {
	if table == nil {
		return RoleNormal
	}
	for _, t := range types {
		a, ok := table.Lookup(t)
		if !ok {
			continue
		}
		if role, ok := roleByType[a]; ok {
			return role
		}
	}
	return RoleNormal
}
