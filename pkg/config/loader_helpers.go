package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Strings and numbers override
// when non-zero; booleans only when the key is present in the file.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Prefs.Path != "" {
		base.Prefs.Path = override.Prefs.Path
	}
	if boolFieldSet(raw, "prefs", "watch") {
		base.Prefs.Watch = override.Prefs.Watch
	}

	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.Retention != 0 {
		base.Storage.Retention = override.Storage.Retention
	}

	if override.Bus.Kind != "" {
		base.Bus.Kind = override.Bus.Kind
	}
	if override.Bus.URL != "" {
		base.Bus.URL = override.Bus.URL
	}
	if override.Bus.SubjectPrefix != "" {
		base.Bus.SubjectPrefix = override.Bus.SubjectPrefix
	}
	if boolFieldSet(raw, "bus", "replay") {
		base.Bus.Replay = override.Bus.Replay
	}
	if override.Bus.ReplayMaxAge != 0 {
		base.Bus.ReplayMaxAge = override.Bus.ReplayMaxAge
	}

	if override.Debug.Addr != "" {
		base.Debug.Addr = override.Debug.Addr
	}
	if boolFieldSet(raw, "debug", "spectators") {
		base.Debug.Spectators = override.Debug.Spectators
	}

	if override.Engine.Rows != 0 {
		base.Engine.Rows = override.Engine.Rows
	}
	if override.Engine.Cols != 0 {
		base.Engine.Cols = override.Engine.Cols
	}

	if override.UI.EventBuffer != 0 {
		base.UI.EventBuffer = override.UI.EventBuffer
	}
	if override.UI.TickRate != 0 {
		base.UI.TickRate = override.UI.TickRate
	}
}

// boolFieldSet reports whether the nested key path exists in raw.
func boolFieldSet(raw map[string]any, path ...string) bool {
	if raw == nil || len(path) == 0 {
		return false
	}
	current := raw
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			_, isBool := value.(bool)
			return isBool
		}
		next, ok := value.(map[string]any)
		if !ok {
			return false
		}
		current = next
	}
	return false
}
