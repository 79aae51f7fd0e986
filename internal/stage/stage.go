// Package stage owns the on-screen surface the compositor paints into: a
// full-screen window living inside the Composite overlay window.
package stage

import (
	"fmt"
	"sync"

	"github.com/1broseidon/compshell/internal/platform"
	"github.com/1broseidon/compshell/internal/scene"
)

// Backend is the window-system surface needed to host the stage.
type Backend interface {
	OverlayWindow() (platform.WindowID, error)
	ScreenSize() (int, int)
	CreateSurface(parent platform.WindowID, width, height int) (platform.WindowID, error)
	MapWindow(win platform.WindowID) error
	GrabPointer(win platform.WindowID) error
	UngrabPointer()
}

// RendererFactory builds the renderer drawing into the surface window.
type RendererFactory func(surface platform.WindowID, width, height int) (scene.Renderer, error)

// Surface is the process-wide stage.
type Surface struct {
	*scene.Stage

	backend Backend
	overlay platform.WindowID
	window  platform.WindowID
}

// Overlay returns the Composite overlay window the surface lives in.
func (s *Surface) Overlay() platform.WindowID { return s.overlay }

// Window returns the surface window.
func (s *Surface) Window() platform.WindowID { return s.window }

var (
	defaultOnce  sync.Once
	defaultStage *Surface
	defaultErr   error
)

// GetOrCreateDefaultStage returns the process-wide stage, creating it on
// first use: the surface window is sized to the screen, reparented into the
// overlay window and mapped. Later calls return the first call's result,
// including its error.
func GetOrCreateDefaultStage(backend Backend, newRenderer RendererFactory) (*Surface, error) {
	defaultOnce.Do(func() {
		defaultStage, defaultErr = create(backend, newRenderer)
	})
	return defaultStage, defaultErr
}

func create(backend Backend, newRenderer RendererFactory) (*Surface, error) {
	overlay, err := backend.OverlayWindow()
	if err != nil {
		return nil, err
	}
	width, height := backend.ScreenSize()

	win, err := backend.CreateSurface(overlay, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage surface: %w", err)
	}
	if err := backend.MapWindow(win); err != nil {
		return nil, fmt.Errorf("failed to map stage surface: %w", err)
	}

	r, err := newRenderer(win, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return &Surface{
		Stage:   scene.NewStage(r, width, height),
		backend: backend,
		overlay: overlay,
		window:  win,
	}, nil
}

// GrabPointer routes all pointer events to the stage surface.
func GrabPointer(s *Surface) error {
	if s == nil {
		return fmt.Errorf("no stage")
	}
	return s.backend.GrabPointer(s.window)
}

// UngrabPointer releases a grab taken with GrabPointer.
func UngrabPointer(s *Surface) {
	if s == nil {
		return
	}
	s.backend.UngrabPointer()
}
