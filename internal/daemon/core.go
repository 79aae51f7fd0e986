package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/compshell/internal/compositor"
	"github.com/1broseidon/compshell/internal/config"
	"github.com/1broseidon/compshell/internal/ipc"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

// core is the window-system independent half of the daemon. Every method
// runs on the loop goroutine.
type core struct {
	manager *compositor.Manager
	stage   *scene.Stage
	effects *compositor.Effects
	logger  *slog.Logger
	level   *slog.LevelVar
	display string

	cfg   *config.Config
	files []string

	// load re-reads the configuration for reload.
	load func() (*config.LoadResult, error)
	// onConfig lets the loop pick up timing changes.
	onConfig func(cfg *config.Config)
}

func (c *core) applyConfig(res *config.LoadResult) {
	cfg := res.Config
	c.cfg = cfg
	c.files = res.Files
	if c.level != nil {
		c.level.Set(cfg.SlogLevel())
	}
	c.effects.Configure(cfg.Effects.Enabled, cfg.EffectDuration(), cfg.SkipRoles())
	c.stage.SetBackground(cfg.BackgroundRGB())
	if c.onConfig != nil {
		c.onConfig(cfg)
	}
}

// reload re-reads the configuration. A failed load keeps the running one.
func (c *core) reload() error {
	if c.load == nil {
		return fmt.Errorf("reload not supported")
	}
	res, err := c.load()
	if err != nil {
		c.logger.Warn("config reload failed", "error", err)
		return err
	}
	c.applyConfig(res)
	c.logger.Info("config reloaded",
		"frame_rate", res.Config.FrameRate,
		"effects", res.Config.Effects.Enabled,
		"files", len(res.Files))
	return nil
}

func (c *core) frame(now time.Time) {
	c.stage.Frame(now)
}

func (c *core) repaint() {
	c.stage.QueueFullRedraw()
}

func (c *core) activate(id uint32) error {
	return c.manager.Activate(platform.WindowID(id))
}

func (c *core) reconcile() (int, int, error) {
	return c.manager.Reconcile()
}

func (c *core) status() ipc.StatusData {
	st := c.manager.Stats()
	out := ipc.StatusData{
		Display:         c.display,
		Tracked:         st.Tracked,
		Shown:           st.Shown,
		PendingTeardown: st.PendingTeardown,
		TornDown:        st.TornDown,
		Frames:          c.stage.Frames(),
		Animating:       c.stage.Animating(),
		ConfigFiles:     len(c.files),
	}
	if c.cfg != nil {
		out.FrameRate = c.cfg.FrameRate
		out.EffectsEnabled = c.cfg.Effects.Enabled
	}
	return out
}

func (c *core) windows() []ipc.WindowData {
	infos := c.manager.Records()
	out := make([]ipc.WindowData, 0, len(infos))
	for _, info := range infos {
		out = append(out, windowData(info))
	}
	return out
}

func windowData(info compositor.WindowInfo) ipc.WindowData {
	return ipc.WindowData{
		ID:       uint32(info.Window),
		Client:   uint32(info.Client),
		Frame:    uint32(info.Frame),
		X:        info.Bounds.X,
		Y:        info.Bounds.Y,
		Width:    info.Bounds.Width,
		Height:   info.Bounds.Height,
		Role:     info.Role.String(),
		Shown:    info.Shown,
		Visible:  info.Visible,
		Opacity:  info.Opacity,
		Refs:     info.Refs,
		Teardown: info.Teardown,
	}
}
