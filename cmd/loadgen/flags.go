package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/config"
)

// resolveConfig loads a FileConfig from --config (or teacher-equivalent
// built-in defaults if unset) and applies any persistent flag the caller
// explicitly set on top, the same "file first, flags override" precedence
// the teacher's loadConfig/applyFlagsToConfig pair uses.
func resolveConfig(cmd *cobra.Command) (*config.FileConfig, error) {
	var cfg *config.FileConfig
	if rootFlags.configFile != "" {
		loaded, err := config.LoadConfig(rootFlags.configFile)
		if err != nil {
			return nil, fmt.Errorf("loading --config %s: %w", rootFlags.configFile, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadConfigWithDefaults()
	}

	flags := cmd.Flags()

	if flags.Changed("controller-socket") {
		cfg.ControllerSocket = rootFlags.controllerSocket
	}
	if flags.Changed("message-socket") {
		cfg.MessageSocket = rootFlags.messageSocket
	}
	if flags.Changed("web-address") {
		cfg.WebAddress = rootFlags.webAddress
	}
	if flags.Changed("no-web") {
		cfg.NoWeb = rootFlags.noWeb
	}
	if flags.Changed("spawn-rate") {
		cfg.SpawnRate = rootFlags.spawnRate
	}
	if flags.Changed("runner-max-journeys") {
		cfg.RunnerMaxJourneys = rootFlags.runnerMaxJourneys
	}
	if flags.Changed("delay-start-seconds") {
		cfg.DelayStartSeconds = rootFlags.delayStartSeconds
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("max-loop-delay") {
		d, err := time.ParseDuration(rootFlags.maxLoopDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-loop-delay %q: %w", rootFlags.maxLoopDelay, err)
		}
		cfg.MaxLoopDelay = d
	}
	if flags.Changed("min-loop-delay") {
		d, err := time.ParseDuration(rootFlags.minLoopDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-loop-delay %q: %w", rootFlags.minLoopDelay, err)
		}
		cfg.MinLoopDelay = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}
