package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ConfigPath is the main YAML file. Empty means defaults only.
	ConfigPath string
	// OverridesPath is an optional second file merged over the first.
	OverridesPath string
}

type Loader struct {
	opts LoadOptions
}

func NewLoader(opts LoadOptions) *Loader {
	return &Loader{opts: opts}
}

// Load reads the config file and optional overrides, then fills anything
// left unset from DefaultConfig.
func (l *Loader) Load() (Config, error) {
	raw, err := l.loadFile(l.opts.ConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config from %s: %w", l.opts.ConfigPath, err)
	}

	if l.opts.OverridesPath != "" {
		if _, err := os.Stat(l.opts.OverridesPath); err == nil {
			overrides, err := l.loadFile(l.opts.OverridesPath)
			if err != nil {
				return Config{}, fmt.Errorf("failed to load overrides from %s: %w", l.opts.OverridesPath, err)
			}
			raw = mergeConfigs(raw, overrides)
		}
	}

	// round-trip the merged tree into the typed config
	merged, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode merged config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(merged, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (l *Loader) loadFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return make(map[string]interface{}), nil
	}

	if !filepath.IsAbs(path) {
		var err error
		path, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	if data == nil {
		data = make(map[string]interface{})
	}
	return data, nil
}

// mergeConfigs recursively merges override into base. Lists are replaced,
// maps are merged.
func mergeConfigs(base, override map[string]interface{}) map[string]interface{} {
	for key, val := range override {
		if baseVal, exists := base[key]; exists {
			if baseMap, ok := baseVal.(map[string]interface{}); ok {
				if overrideMap, ok := val.(map[string]interface{}); ok {
					base[key] = mergeConfigs(baseMap, overrideMap)
					continue
				}
			}
		}
		base[key] = val
	}
	return base
}
