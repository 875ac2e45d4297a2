package schedule

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// overridesConfig is the YAML document shape for a list of overrides,
// typically embedded in a scenario file alongside its volume model.
type overridesConfig struct {
	Overrides []overrideYAML `yaml:"overrides"`
}

type overrideYAML struct {
	Name       string  `yaml:"name"`
	Schedule   string  `yaml:"schedule"`
	Duration   string  `yaml:"duration"`
	Multiplier float64 `yaml:"multiplier,omitempty"`
	Priority   int     `yaml:"priority,omitempty"`
	Enabled    *bool   `yaml:"enabled,omitempty"`
}

// ParseOverridesYAML parses a list of overrides from YAML data.
func ParseOverridesYAML(data []byte) ([]*Override, error) {
	var cfg overridesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("schedule: parsing overrides YAML: %w", err)
	}

	overrides := make([]*Override, 0, len(cfg.Overrides))
	for i, oy := range cfg.Overrides {
		o, err := overrideFromYAML(oy)
		if err != nil {
			return nil, fmt.Errorf("schedule: override %d (%s): %w", i, oy.Name, err)
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// ParseOverridesFile parses a list of overrides from a YAML file.
func ParseOverridesFile(path string) ([]*Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schedule: reading %s: %w", path, err)
	}
	return ParseOverridesYAML(data)
}

func overrideFromYAML(oy overrideYAML) (*Override, error) {
	duration, err := time.ParseDuration(oy.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", oy.Duration, err)
	}

	o := &Override{
		Name:       oy.Name,
		Schedule:   oy.Schedule,
		Duration:   duration,
		Multiplier: oy.Multiplier,
		Priority:   oy.Priority,
		Enabled:    true,
	}
	if oy.Enabled != nil {
		o.Enabled = *oy.Enabled
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadInto parses overrides from a YAML file and registers every one on s.
func LoadInto(s *Scheduler, path string) error {
	overrides, err := ParseOverridesFile(path)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if err := s.AddOverride(o); err != nil {
			return fmt.Errorf("schedule: adding override %s: %w", o.Name, err)
		}
	}
	return nil
}
