package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandActivate    CommandType = "ACTIVATE"
	CommandRepaint     CommandType = "REPAINT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
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
	ConfigFiles     int    `json:"config_files"`
	DaemonRunning   bool   `json:"daemon_running"`
}

// WindowData describes one composited window, bottom to top in WindowsData.
type WindowData struct {
	ID       uint32 `json:"id"`
	Client   uint32 `json:"client"`
	Frame    uint32 `json:"frame,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Role     string `json:"role"`
	Shown    bool   `json:"shown"`
	Visible  bool   `json:"visible"`
	Opacity  uint8  `json:"opacity"`
	Refs     int    `json:"refs"`
	Teardown bool   `json:"teardown,omitempty"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowData `json:"windows"`
}

// ActivatePayload represents the payload for ACTIVATE
type ActivatePayload struct {
	WindowID uint32 `json:"window_id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
