// Command loadgen is the process entry point for every role in the
// system: it can act as an all-in-one scenario/journey test harness, a
// standalone controller, a runner, or a telemetry collector, selected by
// subcommand the way the teacher's pg_workload binary selects a workload
// mode.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	// registers the builtin http_get/recyclable/iterable_range/sql journeys
	// and pool kinds under internal/registry.
	_ "github.com/mite-go/loadgen/internal/builtin"
)

var rootFlags struct {
	configFile        string
	logLevel          string
	controllerSocket  string
	messageSocket     string
	webAddress        string
	noWeb             bool
	spawnRate         float64
	maxLoopDelay      string
	minLoopDelay      string
	runnerMaxJourneys int
	delayStartSeconds float64
}

var rootCmd = &cobra.Command{
	Use:   "loadgen",
	Short: "Distributed HTTP load generator",
	Long: `loadgen drives a target over HTTP with a fleet of cooperating
processes: one controller handing out work, any number of runners
executing journeys against it, and an optional collector persisting the
resulting telemetry to disk.

Commands:
  scenario test <spec>    Run every scenario in a file in one process
  journey test <journey>  Run a single journey against a volume model
  controller <spec>       Start a standalone controller
  runner                  Start a standalone runner
  collector               Start a standalone telemetry collector

Examples:
  loadgen scenario test scenarios/checkout.yaml
  loadgen journey test signup --volume=10
  loadgen controller scenarios/checkout.yaml --controller-socket :14560
  loadgen runner --controller-socket controller-host:14560
  loadgen collector --message-socket :14561 --out ./telemetry`,
	Version:           Version,
	PersistentPreRunE: configureLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootFlags.controllerSocket, "controller-socket", "", "controller listen/dial address")
	rootCmd.PersistentFlags().StringVar(&rootFlags.messageSocket, "message-socket", "", "telemetry bus listen/dial address")
	rootCmd.PersistentFlags().StringVar(&rootFlags.webAddress, "web-address", "", "dashboard listen address (dashboard not built; accepted for compatibility)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.noWeb, "no-web", false, "disable the dashboard (dashboard not built; accepted for compatibility)")
	rootCmd.PersistentFlags().Float64Var(&rootFlags.spawnRate, "spawn-rate", 0, "fleet-wide journeys/second spawn-rate ceiling")
	rootCmd.PersistentFlags().StringVar(&rootFlags.maxLoopDelay, "max-loop-delay", "", "upper bound of a runner's leaky-bucket pause")
	rootCmd.PersistentFlags().StringVar(&rootFlags.minLoopDelay, "min-loop-delay", "", "lower bound of a runner's leaky-bucket pause")
	rootCmd.PersistentFlags().IntVar(&rootFlags.runnerMaxJourneys, "runner-max-journeys", 0, "a runner's self-imposed concurrency ceiling")
	rootCmd.PersistentFlags().Float64Var(&rootFlags.delayStartSeconds, "delay-start-seconds", 0, "seconds a runner waits before its first hello")

	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(journeyCmd)
	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(runnerCmd)
	rootCmd.AddCommand(collectorCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogging(cmd *cobra.Command, args []string) error {
	level := rootFlags.logLevel
	if level == "" {
		level = "info"
	}
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
