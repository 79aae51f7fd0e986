package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the runtime directory used for the compositor's IPC socket.
// Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/compshell-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/compshell-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// SocketPath returns the IPC socket for the compositor on display. One
// compositor runs per display, so the display name is part of the file name.
// An empty display means $DISPLAY.
func SocketPath(display string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "compshell-"+displaySuffix(display)+".sock"), nil
}

func displaySuffix(display string) string {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	// host:N.S -> N
	if i := strings.LastIndex(display, ":"); i >= 0 {
		display = display[i+1:]
	}
	if i := strings.Index(display, "."); i >= 0 {
		display = display[:i]
	}
	if display == "" {
		return "0"
	}
	return display
}
