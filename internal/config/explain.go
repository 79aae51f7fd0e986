package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	display
//	log_level
//	frame_rate
//	background
//	reconcile_interval_seconds
//	effects
//	effects.enabled
//	effects.duration_ms
//	effects.skip_roles
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "effects" && len(parts) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[0] {
	case "display":
		return cfg.Display, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "frame_rate":
		return cfg.FrameRate, nil
	case "background":
		return cfg.Background, nil
	case "reconcile_interval_seconds":
		return cfg.ReconcileIntervalSeconds, nil
	case "effects":
		if len(parts) == 1 {
			return cfg.Effects, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "enabled":
			return cfg.Effects.Enabled, nil
		case "duration_ms":
			return cfg.Effects.DurationMs, nil
		case "skip_roles":
			return cfg.Effects.SkipRoles, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
