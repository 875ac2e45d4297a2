package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/httpcapability"
	"github.com/mite-go/loadgen/internal/runner"
	"github.com/mite-go/loadgen/internal/telemetry"
)

var runnerCmd = &cobra.Command{
	Use:   "runner",
	Short: "Start a standalone runner connecting to a controller",
	Args:  cobra.NoArgs,
	RunE:  runRunner,
}

func runRunner(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.DelayStartSeconds > 0 {
		slog.Info("delaying start", "seconds", cfg.DelayStartSeconds)
		time.Sleep(time.Duration(cfg.DelayStartSeconds * float64(time.Second)))
	}

	transport, err := runner.DialController(cfg.ControllerSocket)
	if err != nil {
		return fmt.Errorf("dialing controller: %w", err)
	}
	defer transport.Close()

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

	httpClient := httpcapability.NewSessionPool(httpcapability.DefaultPoolConfig(), func(method, url string, status int, latency time.Duration, err error) {
		bus.SendEnvelope(telemetry.NewHTTPCurlMetrics(method, url, status, latency, err))
	})
	defer httpClient.Close()

	r := runner.New(transport, bus, httpClient, runner.Options{
		MaxJourneys: cfg.RunnerMaxJourneys,
		LoopWaitMin: cfg.MinLoopDelay,
		LoopWaitMax: cfg.MaxLoopDelay,
	}, nil, clock.NewRealClock())

	ctx, cancel := signalContext(cmd)
	defer cancel()

	slog.Info("runner connecting", "controller", cfg.ControllerSocket)
	return r.Run(ctx)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
