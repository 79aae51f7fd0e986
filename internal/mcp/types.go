package mcp

// StatusInput is the input for the compositor_status tool.
type StatusInput struct{}

// StatusOutput is the output for the compositor_status tool.
type StatusOutput struct {
	Display         string `json:"display"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	Tracked         int    `json:"tracked"`
	Shown           int    `json:"shown"`
	PendingTeardown int    `json:"pending_teardown"`
	TornDown        uint64 `json:"torn_down"`
	Frames          uint64 `json:"frames"`
	Animating       bool   `json:"animating"`
	FrameRate       int    `json:"frame_rate"`
	EffectsEnabled  bool   `json:"effects_enabled"`
	DaemonRunning   bool   `json:"daemon_running"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Role      string `json:"role,omitempty" jsonschema:"Only list windows with this role (e.g. normal, dialog, dock, tooltip)"`
	ShownOnly bool   `json:"shown_only,omitempty" jsonschema:"When true, skip windows that are not currently mapped"`
}

// WindowInfo describes one composited window.
type WindowInfo struct {
	ID       string `json:"id"`
	Client   string `json:"client"`
	Frame    string `json:"frame,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Role     string `json:"role"`
	Shown    bool   `json:"shown"`
	Visible  bool   `json:"visible"`
	Opacity  uint8  `json:"opacity"`
	Teardown bool   `json:"teardown,omitempty"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// ActivateWindowInput is the input for the activate_window tool.
type ActivateWindowInput struct {
	WindowID string `json:"window_id" jsonschema:"required,X window id, hex (0x1a00003) or decimal. Either the frame or the client window id works."`
}

// ActivateWindowOutput is the output for the activate_window tool.
type ActivateWindowOutput struct {
	Activated bool   `json:"activated"`
	WindowID  string `json:"window_id"`
}

// RepaintInput is the input for the repaint tool.
type RepaintInput struct{}

// ReloadConfigInput is the input for the reload_config tool.
type ReloadConfigInput struct{}

// OKOutput is returned by tools without a payload.
type OKOutput struct {
	OK bool `json:"ok"`
}
