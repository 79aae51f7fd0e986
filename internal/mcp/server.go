// Package mcp exposes the running compositor to MCP clients over stdio.
// Every tool is a thin wrapper over the daemon's IPC socket.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/compshell/internal/ipc"
)

const (
	ServerName    = "compshell"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools call. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() ([]ipc.WindowData, error)
	Activate(windowID uint32) error
	Repaint() error
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for compositor introspection.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server talking to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "compositor_status",
		Description: "Report the running compositor: display, tracked and shown window counts, records waiting for effects to finish before teardown, frames painted and the active frame rate.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List composited top-level windows in stacking order, bottom first, with geometry, role, opacity and whether they are mapped.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_window",
		Description: "Raise and focus a composited window by its X window id.",
	}, s.handleActivateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "repaint",
		Description: "Force a full repaint of the compositor stage.",
	}, s.handleRepaint)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Re-read the compositor configuration file. On error the running configuration is kept and the validation error is returned.",
	}, s.handleReloadConfig)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Display:         st.Display,
		UptimeSeconds:   st.UptimeSeconds,
		Tracked:         st.Tracked,
		Shown:           st.Shown,
		PendingTeardown: st.PendingTeardown,
		TornDown:        st.TornDown,
		Frames:          st.Frames,
		Animating:       st.Animating,
		FrameRate:       st.FrameRate,
		EffectsEnabled:  st.EffectsEnabled,
		DaemonRunning:   st.DaemonRunning,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	role := strings.ToLower(strings.TrimSpace(args.Role))

	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(windows))}
	for _, w := range windows {
		if args.ShownOnly && !w.Shown {
			continue
		}
		if role != "" && w.Role != role {
			continue
		}
		out.Windows = append(out.Windows, windowInfo(w))
	}
	return nil, out, nil
}

func (s *Server) handleActivateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateWindowInput) (*mcpsdk.CallToolResult, ActivateWindowOutput, error) {
	id, err := ParseWindowID(args.WindowID)
	if err != nil {
		return nil, ActivateWindowOutput{}, err
	}
	if err := s.daemon.Activate(id); err != nil {
		return nil, ActivateWindowOutput{WindowID: FormatWindowID(id)}, err
	}
	s.logger.Info("window activated via MCP", "window", FormatWindowID(id))
	return nil, ActivateWindowOutput{Activated: true, WindowID: FormatWindowID(id)}, nil
}

func (s *Server) handleRepaint(_ context.Context, _ *mcpsdk.CallToolRequest, _ RepaintInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.daemon.Repaint(); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadConfigInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func windowInfo(w ipc.WindowData) WindowInfo {
	info := WindowInfo{
		ID:       FormatWindowID(w.ID),
		Client:   FormatWindowID(w.Client),
		X:        w.X,
		Y:        w.Y,
		Width:    w.Width,
		Height:   w.Height,
		Role:     w.Role,
		Shown:    w.Shown,
		Visible:  w.Visible,
		Opacity:  w.Opacity,
		Teardown: w.Teardown,
	}
	if w.Frame != 0 {
		info.Frame = FormatWindowID(w.Frame)
	}
	return info
}

// FormatWindowID renders an X id the way xprop and xwininfo do.
func FormatWindowID(id uint32) string {
	return fmt.Sprintf("0x%x", id)
}

// ParseWindowID accepts hex with a 0x prefix or decimal.
func ParseWindowID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("window_id is required")
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(v), nil
}
