package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawEffects mirrors EffectsConfig with optional fields.
type RawEffects struct {
	Enabled    *bool     `yaml:"enabled"`
	DurationMs *int      `yaml:"duration_ms"`
	SkipRoles  *[]string `yaml:"skip_roles"`
}

// RawConfig is one config file as written: unset keys stay nil so later
// files only override what they mention.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Display                  *string     `yaml:"display"`
	LogLevel                 *string     `yaml:"log_level"`
	FrameRate                *int        `yaml:"frame_rate"`
	Background               *string     `yaml:"background"`
	ReconcileIntervalSeconds *int        `yaml:"reconcile_interval_seconds"`
	Effects                  *RawEffects `yaml:"effects"`
}

func (r RawConfig) merge(overlay RawConfig) RawConfig {
	out := r
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.FrameRate != nil {
		out.FrameRate = overlay.FrameRate
	}
	if overlay.Background != nil {
		out.Background = overlay.Background
	}
	if overlay.ReconcileIntervalSeconds != nil {
		out.ReconcileIntervalSeconds = overlay.ReconcileIntervalSeconds
	}
	if overlay.Effects != nil {
		merged := RawEffects{}
		if out.Effects != nil {
			merged = *out.Effects
		}
		if overlay.Effects.Enabled != nil {
			merged.Enabled = overlay.Effects.Enabled
		}
		if overlay.Effects.DurationMs != nil {
			merged.DurationMs = overlay.Effects.DurationMs
		}
		if overlay.Effects.SkipRoles != nil {
			merged.SkipRoles = overlay.Effects.SkipRoles
		}
		out.Effects = &merged
	}
	out.Include = nil
	return out
}
