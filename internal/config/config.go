// Package config holds the two configuration surfaces the system uses:
// FileConfig, a static YAML file read once at process startup (adapted
// from the teacher's gopkg.in/yaml.v3-based Config), and Manager, the
// controller's live, versioned key/value store that runners poll for
// deltas.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the complete static configuration read from a
// YAML file or CLI flags: target, scenario defaults, and process
// addressing.
type FileConfig struct {
	TargetBaseURL     string        `yaml:"target_base_url"`
	SpawnRate         float64       `yaml:"spawn_rate"`
	MaxLoopDelay      time.Duration `yaml:"max_loop_delay"`
	MinLoopDelay      time.Duration `yaml:"min_loop_delay"`
	RunnerMaxJourneys int           `yaml:"runner_max_journeys"`
	DelayStartSeconds float64       `yaml:"delay_start_seconds"`
	ControllerSocket  string        `yaml:"controller_socket"`
	MessageSocket     string        `yaml:"message_socket"`
	WebAddress        string        `yaml:"web_address"`
	NoWeb             bool          `yaml:"no_web"`
	LogLevel          string        `yaml:"log_level"`
}

// LoadConfig reads configuration from a YAML file and applies environment
// overrides.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := LoadConfigWithDefaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithDefaults returns a FileConfig with default values.
func LoadConfigWithDefaults() *FileConfig {
	cfg := &FileConfig{
		TargetBaseURL:     "http://localhost:8080",
		SpawnRate:         10,
		MaxLoopDelay:      5 * time.Second,
		MinLoopDelay:      1 * time.Second,
		RunnerMaxJourneys: 1000,
		DelayStartSeconds: 0,
		ControllerSocket:  "127.0.0.1:14560",
		MessageSocket:     "127.0.0.1:14561",
		WebAddress:        "127.0.0.1:14562",
		LogLevel:          "info",
	}
	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("LOADGEN_TARGET_BASE_URL"); v != "" {
		cfg.TargetBaseURL = v
	}
	if v := os.Getenv("LOADGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration for errors.
func (c *FileConfig) Validate() error {
	if c.TargetBaseURL == "" {
		return fmt.Errorf("target_base_url is required")
	}
	if c.SpawnRate <= 0 {
		return fmt.Errorf("spawn_rate must be > 0")
	}
	if c.MinLoopDelay <= 0 {
		return fmt.Errorf("min_loop_delay must be > 0")
	}
	if c.MaxLoopDelay < c.MinLoopDelay {
		return fmt.Errorf("max_loop_delay must be >= min_loop_delay")
	}
	if c.RunnerMaxJourneys < 1 {
		return fmt.Errorf("runner_max_journeys must be >= 1")
	}
	if c.ControllerSocket == "" {
		return fmt.Errorf("controller_socket is required")
	}
	return nil
}
