package main

import (
	"context"

	"github.com/mite-go/loadgen/internal/controller"
	"github.com/mite-go/loadgen/internal/runner"
	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/wire"
)

// inProcessTransport implements runner.Transport directly against a
// *controller.Controller's method calls, skipping the wire.ReadFrame/
// WriteFrame round trip entirely — the one-process "scenario test" and
// "journey test" subcommands run controller and runner in the same
// goroutine tree and have no need for a socket between them.
type inProcessTransport struct {
	ctrl *controller.Controller
}

func (t inProcessTransport) Hello(ctx context.Context) (runner.HelloReply, error) {
	runnerID, testName, cfg := t.ctrl.Hello()
	return runner.HelloReply{RunnerID: runnerID, TestName: testName, Config: cfg}, nil
}

func (t inProcessTransport) RequestWork(ctx context.Context, args wire.RequestWorkArgs) (runner.RequestWorkReply, error) {
	result := t.ctrl.RequestWork(controller.RequestWorkParams{
		RunnerID:      args.RunnerID,
		CurrentWork:   args.CurrentWork,
		CompletedData: args.CompletedData,
		MaxWork:       args.MaxWork,
		ConfigVersion: args.ConfigVersion,
	})
	return runner.RequestWorkReply{
		Grants:      grantsToWire(result.Grants),
		ConfigDelta: result.ConfigDelta,
		Stop:        result.Stop,
	}, nil
}

func (t inProcessTransport) Bye(ctx context.Context, runnerID uint64) error {
	t.ctrl.Bye(runnerID)
	return nil
}

func (t inProcessTransport) Close() error { return nil }

func grantsToWire(grants []scenario.Grant) []wire.Grant {
	out := make([]wire.Grant, len(grants))
	for i, g := range grants {
		out[i] = wire.Grant{
			ScenarioID:  g.ScenarioID,
			JourneyName: g.JourneyName,
			DataID:      g.DataID,
			HasData:     g.HasData,
			Args:        g.Args,
		}
	}
	return out
}
