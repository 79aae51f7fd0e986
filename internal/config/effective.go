package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.FrameRate != nil {
		cfg.FrameRate = *raw.FrameRate
	}
	if raw.Background != nil {
		cfg.Background = *raw.Background
	}
	if raw.ReconcileIntervalSeconds != nil {
		cfg.ReconcileIntervalSeconds = *raw.ReconcileIntervalSeconds
	}
	if e := raw.Effects; e != nil {
		if e.Enabled != nil {
			cfg.Effects.Enabled = *e.Enabled
		}
		if e.DurationMs != nil {
			cfg.Effects.DurationMs = *e.DurationMs
		}
		if e.SkipRoles != nil {
			cfg.Effects.SkipRoles = append([]string(nil), (*e.SkipRoles)...)
		}
	}
	return cfg
}
