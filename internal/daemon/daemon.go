// Package daemon runs the compositing manager: it owns the X connection,
// the stage and the window manager, and serializes everything that touches
// them onto one loop goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/compshell/internal/atoms"
	"github.com/1broseidon/compshell/internal/compositor"
	"github.com/1broseidon/compshell/internal/config"
	"github.com/1broseidon/compshell/internal/ipc"
	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/runtimepath"
	"github.com/1broseidon/compshell/internal/scene"
	"github.com/1broseidon/compshell/internal/stage"
	"github.com/1broseidon/compshell/internal/xrender"
)

// Options configure a daemon run.
type Options struct {
	// ConfigPath overrides the default config location.
	ConfigPath string
	// Display overrides both the config and $DISPLAY.
	Display string
	Logger  *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level *slog.LevelVar
}

// Run starts compositing and blocks until ctx is cancelled or the X
// connection is lost.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	load := func() (*config.LoadResult, error) { return config.LoadFromPath(configPath) }

	res, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := res.Config.Display
	if opts.Display != "" {
		display = opts.Display
	}

	backend, err := platform.NewLinuxBackendFromDisplay(display)
	if err != nil {
		return err
	}
	defer backend.Disconnect()
	conn := backend.Connection()

	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	logger = logger.With("display", display)

	table := &atoms.Table{}
	if err := atoms.InitAtoms(backend, table); err != nil {
		return fmt.Errorf("failed to intern atoms: %w", err)
	}

	var renderer interface{ Close() }
	surface, err := stage.GetOrCreateDefaultStage(backend, func(win platform.WindowID, w, h int) (scene.Renderer, error) {
		r, err := xrender.New(conn, win, w, h)
		if err != nil {
			return nil, err
		}
		renderer = r
		return r, nil
	})
	if err != nil {
		return err
	}
	defer func() {
		if renderer != nil {
			renderer.Close()
		}
	}()

	if err := conn.AcquireCompositorSelection(xproto.Window(surface.Window())); err != nil {
		return fmt.Errorf("another compositing manager is running: %w", err)
	}

	effects := compositor.NewEffects()
	manager := compositor.NewManager(backend, table, surface.Stage, effects, logger)
	manager.Ignore(surface.Overlay())
	manager.Ignore(surface.Window())

	c := &core{
		manager: manager,
		stage:   surface.Stage,
		effects: effects,
		logger:  logger,
		level:   opts.Level,
		display: display,
		load:    load,
	}

	disp := &dispatcher{sink: manager, ws: backend, root: backend.RootWindow(), logger: logger}
	conn.OnEvent(func(ev xgb.Event) { disp.dispatch(ev) })
	conn.OnError(func(xerr xgb.Error) {
		// Requests on windows that were destroyed under us fail routinely.
		logger.Debug("X protocol error", "error", xerr)
	})

	if err := conn.RedirectSubwindows(); err != nil {
		return fmt.Errorf("failed to redirect windows: %w", err)
	}
	defer conn.UnredirectSubwindows()
	if err := conn.SelectRootEvents(); err != nil {
		return fmt.Errorf("failed to select root events: %w", err)
	}

	l := &loop{core: c, work: newWorkQueue(), done: make(chan struct{})}
	c.onConfig = l.configChanged
	c.applyConfig(res)

	if err := manager.Scan(); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}
	defer manager.Shutdown()

	socketPath, err := runtimepath.SocketPath(display)
	if err != nil {
		return fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	server := ipc.NewServer(socketPath, &controller{core: c, work: l.work, done: l.done}, logger)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reconciler := NewReconciler(ReconcilerConfig{
		Interval: res.Config.ReconcileInterval(),
		Logger:   logger,
	}, c.reconcile, l.submit)
	go reconciler.Run(ctx)

	watched := append([]string{configPath}, res.Files...)
	go func() {
		err := config.Watch(ctx, watched, config.DefaultWatchDebounce, logger, func() {
			l.submit(func() error {
				c.reload()
				return nil
			})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logger.Info("compositor started", "windows", manager.Stats().Tracked, "socket", socketPath)

	before, after, quit := conn.MainPing()
	err = l.run(ctx, pinger{before: before, after: after, quit: quit}, hup)
	close(l.done)
	conn.Quit()
	logger.Info("compositor stopped", "frames", surface.Frames())
	return err
}

// pinger is the handshake with the xgbutil event goroutine: event callbacks
// run between a receive on before and a receive on after.
type pinger struct {
	before, after, quit <-chan struct{}
}

type loop struct {
	core   *core
	work   *workQueue
	done   chan struct{}
	ticker *time.Ticker
}

func (l *loop) configChanged(cfg *config.Config) {
	if l.ticker != nil {
		l.ticker.Reset(cfg.FrameInterval())
	}
}

func (l *loop) submit(fn func() error) bool {
	select {
	case l.work.Add() <- fn:
		return true
	case <-l.done:
		return false
	}
}

func (l *loop) run(ctx context.Context, x pinger, hup <-chan os.Signal) error {
	interval := time.Second / 60
	if l.core.cfg != nil {
		interval = l.core.cfg.FrameInterval()
	}
	l.ticker = time.NewTicker(interval)
	defer l.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-x.quit:
			return errors.New("X event loop exited")
		case <-x.before:
			<-x.after
		case b := <-l.work.Get():
			if err := b.run(); err != nil {
				l.core.logger.Warn("queued work failed", "error", err)
			}
		case now := <-l.ticker.C:
			l.core.frame(now)
		case <-hup:
			l.core.logger.Info("received SIGHUP, reloading config")
			l.core.reload()
		}
	}
}
