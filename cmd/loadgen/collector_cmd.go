package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mite-go/loadgen/internal/collector"
	"github.com/mite-go/loadgen/internal/metrics"
	"github.com/mite-go/loadgen/internal/telemetry"
)

var collectorFlags struct {
	outDir             string
	rollAfterNMessages int
}

var collectorCmd = &cobra.Command{
	Use:   "collector",
	Short: "Start a standalone telemetry collector, persisting envelopes to disk",
	Args:  cobra.NoArgs,
	RunE:  runCollector,
}

func init() {
	collectorCmd.Flags().StringVar(&collectorFlags.outDir, "out", "./telemetry", "directory envelopes are rolled into")
	collectorCmd.Flags().IntVar(&collectorFlags.rollAfterNMessages, "roll-after-n-messages", 10000, "message count that triggers a roll")
}

func runCollector(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.MessageSocket == "" {
		return fmt.Errorf("collector requires --message-socket")
	}

	roller, err := collector.NewRoller(collectorFlags.outDir, collectorFlags.rollAfterNMessages)
	if err != nil {
		return fmt.Errorf("opening telemetry directory: %w", err)
	}
	defer roller.Close()

	server, err := telemetry.NewBusServer(cfg.MessageSocket)
	if err != nil {
		return fmt.Errorf("binding telemetry bus socket: %w", err)
	}
	defer server.Close()
	server.AddListener(roller.AsListener())

	agg := metrics.NewCollector()
	server.AddListener(agg.AsListener())

	ctx, cancel := signalContext(cmd)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()

	slog.Info("collector listening", "address", server.Addr(), "out", collectorFlags.outDir)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logSummary(agg)
		return nil
	}
}

// logSummary prints the aggregated latency/error snapshot once the
// collector is told to shut down, the CLI's end-of-run summary.
func logSummary(agg *metrics.Collector) {
	snap := agg.GetSnapshot()
	slog.Info("telemetry summary",
		"duration", snap.Duration,
		"total_requests", snap.TotalRequests,
		"total_errors", snap.TotalErrors,
		"error_rate_pct", snap.ErrorRate(),
		"operations", len(snap.Operations),
	)
}
