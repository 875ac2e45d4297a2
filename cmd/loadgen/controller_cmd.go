package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/config"
	"github.com/mite-go/loadgen/internal/controller"
	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/schedule"
	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/telemetry"
)

var controllerCmd = &cobra.Command{
	Use:   "controller <scenario_spec>",
	Short: "Start a standalone controller serving the scenarios in a spec file",
	Args:  cobra.ExactArgs(1),
	RunE:  runController,
}

func runController(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	specs, err := scenario.ParseFileSpecFile(args[0])
	if err != nil {
		return fmt.Errorf("loading scenario spec: %w", err)
	}

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
			slog.Warn("could not reach telemetry bus, controller reports will be dropped", "address", cfg.MessageSocket, "error", err)
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

	server, err := controller.NewServer(ctrl, cfg.ControllerSocket)
	if err != nil {
		return fmt.Errorf("binding controller socket: %w", err)
	}
	defer server.Close()

	slog.Info("controller listening", "address", server.Addr())

	return serveUntilSignalOrDone(cmd.Context(), server.Serve, ctrl)
}

// serveUntilSignalOrDone runs serve in the background and returns once
// either the process receives SIGINT/SIGTERM, or every scenario has
// stopped requiring work AND every runner has finished draining and
// disconnected, whichever comes first. Stopping as soon as scenarios go
// dry (ignoring still-attached runners) would tear down the socket out
// from under a runner mid-drain.
func serveUntilSignalOrDone(ctx context.Context, serve func() error, ctrl *controller.Controller) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- serve() }()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-serveErr:
			return err
		case <-sigCh:
			slog.Info("received shutdown signal")
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctrl.Done() {
				slog.Info("every scenario has completed and every runner has disconnected, shutting down")
				return nil
			}
		}
	}
}
