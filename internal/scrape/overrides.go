package scrape

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SlugTable overrides extend or replace the built-in slug mappings of
// one portal, so new neighborhoods ship without a code change.
type SlugTable struct {
	PropertyTypes map[string]string `yaml:"property_types"`
	Operations    map[string]string `yaml:"operations"`
	Locations     map[string]string `yaml:"locations"`
	Neighborhoods map[string]string `yaml:"neighborhoods"`
}

// Overrides maps portal name to its slug-table overrides.
type Overrides map[string]SlugTable

// LoadOverrides reads the optional YAML override file. An empty path
// means no overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portal overrides: %w", err)
	}
	var ov Overrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return nil, fmt.Errorf("parse portal overrides: %w", err)
	}
	if ov == nil {
		ov = Overrides{}
	}
	return ov, nil
}

func mergeSlugs(base map[string]string, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
