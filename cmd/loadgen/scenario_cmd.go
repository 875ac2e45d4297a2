package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/config"
	"github.com/mite-go/loadgen/internal/controller"
	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/httpcapability"
	"github.com/mite-go/loadgen/internal/metrics"
	"github.com/mite-go/loadgen/internal/runner"
	"github.com/mite-go/loadgen/internal/schedule"
	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/telemetry"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run scenarios in one process, without a separate controller/runner",
}

var scenarioTestCmd = &cobra.Command{
	Use:   "test <spec>",
	Short: "Run every scenario in a spec file with an in-process controller and runner",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioTest,
}

func init() {
	scenarioCmd.AddCommand(scenarioTestCmd)
}

func runScenarioTest(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	specs, err := scenario.ParseFileSpecFile(args[0])
	if err != nil {
		return fmt.Errorf("loading scenario spec: %w", err)
	}
	return runInProcess(cmd, cfg, specs)
}

// runInProcess wires an in-process Controller and a single in-process
// Runner over inProcessTransport, the "one process" test mode both
// "scenario test" and "journey test" share.
func runInProcess(cmd *cobra.Command, cfg *config.FileConfig, specs []*scenario.FileSpec) error {
	clk := clock.NewRealClock()
	sched := schedule.NewScheduler(clk)
	sched.Start(cmd.Context())
	defer sched.Stop()

	manager := scenario.NewManager(time.Second, rand.New(rand.NewSource(time.Now().UnixNano())))
	now := clk.Now()
	for _, s := range specs {
		journeyName, pool, model, err := s.Resolve(sched)
		if err != nil {
			return fmt.Errorf("resolving scenario %q: %w", s.Name, err)
		}
		id := manager.AddScenario(journeyName, pool, model, s.StartDelay, s.SpawnRate, now)
		slog.Info("registered scenario", "id", id, "journey", journeyName, "name", s.Name)
	}

	var bus telemetry.Sender = telemetry.NopSender{}
	if cfg.MessageSocket != "" {
		busClient, err := telemetry.DialBus(cfg.MessageSocket)
		if err != nil {
			slog.Warn("could not reach telemetry bus, journey telemetry will be dropped", "address", cfg.MessageSocket, "error", err)
		} else {
			bus = busClient
			defer busClient.Close()
		}
	}

	cfgManager := config.DefaultManager(cfg)
	pools := datapool.NewManager()
	ctrl := controller.New(clk, "loadgen", manager, pools, cfgManager, bus)
	ctrl.Start(cmd.Context())
	defer ctrl.Stop()

	agg := metrics.NewCollector()
	httpClient := httpcapability.NewSessionPool(httpcapability.DefaultPoolConfig(), func(method, url string, status int, latency time.Duration, err error) {
		bus.SendEnvelope(telemetry.NewHTTPCurlMetrics(method, url, status, latency, err))
		agg.RecordEnvelope("http", method, map[string]any{
			"latency_ms": float64(latency) / float64(time.Millisecond),
			"status":     status,
		})
	})
	defer httpClient.Close()

	r := runner.New(inProcessTransport{ctrl: ctrl}, bus, httpClient, runner.Options{
		MaxJourneys: cfg.RunnerMaxJourneys,
		LoopWaitMin: cfg.MinLoopDelay,
		LoopWaitMax: cfg.MaxLoopDelay,
	}, nil, clk)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("running in-process", "scenarios", len(specs))
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logSummary(agg)
	slog.Info("done")
	return nil
}
