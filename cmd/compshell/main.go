package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/compshell/internal/daemon"
	"github.com/1broseidon/compshell/internal/ipc"
	"github.com/1broseidon/compshell/internal/mcp"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "activate":
		os.Exit(runActivate(os.Args[2:]))
	case "repaint":
		os.Exit(runSimple("repaint", "Force a full repaint of the stage.", os.Args[2:], (*ipc.Client).Repaint))
	case "reload":
		os.Exit(runSimple("reload", "Ask the daemon to re-read its configuration.", os.Args[2:], (*ipc.Client).Reload))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: compshell <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the compositor (foreground)")
	fmt.Fprintln(w, "  status              Show compositor status")
	fmt.Fprintln(w, "  windows             List composited windows")
	fmt.Fprintln(w, "  activate <id>       Raise and focus a window")
	fmt.Fprintln(w, "  repaint             Force a full repaint")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the config file location")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'compshell <command> --help' for command-specific options.")
}

func newClient(display string) *ipc.Client {
	return ipc.NewClient(display)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: compshell daemon [--display DISPLAY] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Redirect all top-level windows and composite them until interrupted.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.String("display", "", "X display to manage (default: config, then $DISPLAY)")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/compshell/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	// log_level from the config sets this once loaded.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := daemon.Run(ctx, daemon.Options{
		ConfigPath: *configPath,
		Display:    *display,
		Logger:     logger,
		Level:      level,
	})
	if err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: compshell status [--display DISPLAY] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show compositor status via IPC.")
	}
	display := fs.String("display", "", "Display whose compositor to query (default: $DISPLAY)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := newClient(*display).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return writeJSON(os.Stdout, status)
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:   %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "display:          %s\n", status.Display)
	fmt.Fprintf(w, "uptime_seconds:   %d\n", status.UptimeSeconds)
	fmt.Fprintf(w, "tracked:          %d\n", status.Tracked)
	fmt.Fprintf(w, "shown:            %d\n", status.Shown)
	fmt.Fprintf(w, "pending_teardown: %d\n", status.PendingTeardown)
	fmt.Fprintf(w, "torn_down:        %d\n", status.TornDown)
	fmt.Fprintf(w, "frames:           %d\n", status.Frames)
	fmt.Fprintf(w, "animating:        %v\n", status.Animating)
	fmt.Fprintf(w, "frame_rate:       %d\n", status.FrameRate)
	fmt.Fprintf(w, "effects_enabled:  %v\n", status.EffectsEnabled)
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: compshell windows [--display DISPLAY] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List composited windows in stacking order, bottom first.")
	}
	display := fs.String("display", "", "Display whose compositor to query (default: $DISPLAY)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	windows, err := newClient(*display).ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return writeJSON(os.Stdout, windows)
	}
	printWindows(os.Stdout, windows)
	return 0
}

func printWindows(w io.Writer, windows []ipc.WindowData) {
	fmt.Fprintf(w, "%-10s %-10s %-8s %-21s %-5s %-7s %s\n", "ID", "CLIENT", "ROLE", "GEOMETRY", "SHOWN", "OPACITY", "REFS")
	for _, win := range windows {
		geom := fmt.Sprintf("%dx%d+%d+%d", win.Width, win.Height, win.X, win.Y)
		shown := "no"
		if win.Shown {
			shown = "yes"
		}
		if win.Teardown {
			shown = "dying"
		}
		fmt.Fprintf(w, "%-10s %-10s %-8s %-21s %-5s %-7d %d\n",
			mcp.FormatWindowID(win.ID), mcp.FormatWindowID(win.Client), win.Role, geom, shown, win.Opacity, win.Refs)
	}
}

func runActivate(args []string) int {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: compshell activate [--display DISPLAY] <window-id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Raise and focus a window. The id may be hex (0x1a00003) or decimal.")
	}
	display := fs.String("display", "", "Display whose compositor to use (default: $DISPLAY)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "activate requires <window-id>")
		fs.Usage()
		return 2
	}
	id, err := mcp.ParseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := newClient(*display).Activate(id); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSimple(name, help string, args []string, call func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: compshell %s [--display DISPLAY]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, help)
	}
	display := fs.String("display", "", "Display whose compositor to use (default: $DISPLAY)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	if err := call(newClient(*display)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
