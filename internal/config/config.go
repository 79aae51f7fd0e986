package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/compshell/internal/compositor"
	"gopkg.in/yaml.v3"
)

// EffectsConfig controls map/unmap fades.
type EffectsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	DurationMs int      `yaml:"duration_ms"`
	SkipRoles  []string `yaml:"skip_roles"`
}

// Config represents the effective compositor configuration.
type Config struct {
	Display                  string        `yaml:"display"`
	LogLevel                 string        `yaml:"log_level"`
	FrameRate                int           `yaml:"frame_rate"`
	Background               string        `yaml:"background"`
	ReconcileIntervalSeconds int           `yaml:"reconcile_interval_seconds"`
	Effects                  EffectsConfig `yaml:"effects"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Display:                  "",
		LogLevel:                 "info",
		FrameRate:                60,
		Background:               "#000000",
		ReconcileIntervalSeconds: 30,
		Effects: EffectsConfig{
			Enabled:    true,
			DurationMs: int(compositor.DefaultEffectDuration / time.Millisecond),
			SkipRoles:  []string{"tooltip", "menu"},
		},
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		return &ValidationError{Path: "frame_rate", Err: fmt.Errorf("frame_rate must be between 1 and 240")}
	}
	if _, err := ParseColor(c.Background); err != nil {
		return &ValidationError{Path: "background", Err: err}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}
	if c.Effects.DurationMs < 0 || c.Effects.DurationMs > 10000 {
		return &ValidationError{Path: "effects.duration_ms", Err: fmt.Errorf("duration_ms must be between 0 and 10000")}
	}
	for i, name := range c.Effects.SkipRoles {
		if _, err := compositor.ParseRole(name); err != nil {
			return &ValidationError{
				Path: "effects.skip_roles",
				Err:  fmt.Errorf("entry %d: %w (valid: %s)", i, err, strings.Join(compositor.RoleNames(), ", ")),
			}
		}
	}
	return nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FrameInterval is the time between frames.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// ReconcileInterval returns zero when reconciliation is disabled.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// EffectDuration is the fade length.
func (c *Config) EffectDuration() time.Duration {
	return time.Duration(c.Effects.DurationMs) * time.Millisecond
}

// SkipRoles resolves effects.skip_roles. Invalid names are dropped; Validate
// reports them.
func (c *Config) SkipRoles() []compositor.Role {
	roles := make([]compositor.Role, 0, len(c.Effects.SkipRoles))
	for _, name := range c.Effects.SkipRoles {
		if role, err := compositor.ParseRole(name); err == nil {
			roles = append(roles, role)
		}
	}
	return roles
}

// BackgroundRGB returns background as 0xRRGGBB.
func (c *Config) BackgroundRGB() uint32 {
	rgb, _ := ParseColor(c.Background)
	return rgb
}

// ParseColor parses "#rrggbb" (the leading # is optional).
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q must look like #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q must look like #rrggbb", s)
	}
	return uint32(v), nil
}
