package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// NameWindowPixmap returns a pixmap that refers to the off-screen storage of
// a redirected window. The pixmap stays valid until the window is resized or
// unmapped; the caller must free it.
func (c *Connection) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, error) {
	conn := c.XUtil.Conn()

	pid, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	if err := composite.NameWindowPixmapChecked(conn, win, pid).Check(); err != nil {
		return 0, fmt.Errorf("failed to name pixmap for window 0x%x: %w", win, err)
	}
	return pid, nil
}

// FreePixmap releases a pixmap obtained from NameWindowPixmap.
func (c *Connection) FreePixmap(p xproto.Pixmap) {
	xproto.FreePixmap(c.XUtil.Conn(), p)
}

// CreateDamage starts damage tracking on a window. Notifications are sent
// once when the damage region becomes non-empty and again only after it has
// been subtracted.
func (c *Connection) CreateDamage(win xproto.Window) (damage.Damage, error) {
	conn := c.XUtil.Conn()

	did, err := damage.NewDamageId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate damage id: %w", err)
	}
	err = damage.CreateChecked(conn, did, xproto.Drawable(win), damage.ReportLevelNonEmpty).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create damage for window 0x%x: %w", win, err)
	}
	return did, nil
}

// DestroyDamage stops damage tracking.
func (c *Connection) DestroyDamage(d damage.Damage) {
	damage.Destroy(c.XUtil.Conn(), d)
}

// CreateRegion creates an empty server-side region.
func (c *Connection) CreateRegion() (xfixes.Region, error) {
	conn := c.XUtil.Conn()

	rid, err := xfixes.NewRegionId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate region id: %w", err)
	}
	if err := xfixes.CreateRegionChecked(conn, rid, nil).Check(); err != nil {
		return 0, fmt.Errorf("failed to create region: %w", err)
	}
	return rid, nil
}

// DestroyRegion frees a region created by CreateRegion.
func (c *Connection) DestroyRegion(r xfixes.Region) {
	xfixes.DestroyRegion(c.XUtil.Conn(), r)
}

// SubtractDamage moves all accumulated damage of d into parts and marks it
// as repaired.
func (c *Connection) SubtractDamage(d damage.Damage, parts xfixes.Region) error {
	return damage.SubtractChecked(c.XUtil.Conn(), d, xfixes.Region(0), parts).Check()
}

// FetchRegion returns the rectangles making up r.
func (c *Connection) FetchRegion(r xfixes.Region) ([]xproto.Rectangle, error) {
	reply, err := xfixes.FetchRegion(c.XUtil.Conn(), r).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch region: %w", err)
	}
	return reply.Rectangles, nil
}
