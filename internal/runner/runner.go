package runner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/httpcapability"
	"github.com/mite-go/loadgen/internal/journey"
	"github.com/mite-go/loadgen/internal/journeycontext"
	"github.com/mite-go/loadgen/internal/registry"
	"github.com/mite-go/loadgen/internal/telemetry"
	"github.com/mite-go/loadgen/internal/wire"
)

// LookupJourney resolves a registered journey by name. Tests substitute a
// fake so runner behavior can be verified without touching the process-wide
// registry.
type LookupJourney func(name string) (registry.JourneyFunc, bool)

// Options configures a Runner's pacing and concurrency ceiling.
type Options struct {
	// MaxJourneys is the runner's self-imposed concurrency ceiling; each
	// request_work call in the main loop sends MaxJourneys minus the
	// journeys already in flight as max_work, and the drain phase sends 0.
	MaxJourneys int
	// LoopWaitMin/LoopWaitMax bound the leaky-bucket pause between
	// request_work calls once the current batch has been spawned.
	LoopWaitMin time.Duration
	LoopWaitMax time.Duration
	Debug       bool
}

func (o Options) withDefaults() Options {
	if o.LoopWaitMin <= 0 {
		o.LoopWaitMin = time.Second
	}
	if o.LoopWaitMax < o.LoopWaitMin {
		o.LoopWaitMax = o.LoopWaitMin
	}
	if o.MaxJourneys <= 0 {
		o.MaxJourneys = 1000
	}
	return o
}

type inFlightTask struct {
	scenarioID uint64
	dataID     uint64
	hasData    bool
}

type completion struct {
	contextID  uint64
	scenarioID uint64
	dataID     uint64
	hasData    bool
}

// Runner implements the specification's runner loop: hello once, then
// request_work -> spawn grants -> wait -> collect completions, until the
// controller signals stop; then drain every in-flight grant, report the
// last completions, and say goodbye.
//
// Grounded on original_source/mite/runner.py's Runner.run/_execute: the
// hello-once bootstrap, the request_work/spawn/wait loop, and the final
// drain-then-bye sequence all follow that method's shape, with in-flight
// goroutines standing in for the source's asyncio tasks.
type Runner struct {
	transport Transport
	lookup    LookupJourney
	bus       telemetry.Sender
	http      httpcapability.Client
	cfg       *Config
	opts      Options
	rng       *rand.Rand
	clk       clock.Clock

	runnerID uint64
	testName string
	stopping atomic.Bool

	mu            sync.Mutex
	inFlight      map[uint64]inFlightTask
	nextContextID uint64
	completions   chan completion
	wake          chan struct{}
}

// New builds a Runner ready to Run against transport. lookup defaults to
// registry.LookupJourney when nil; bus defaults to a no-op sender; clk
// defaults to clock.NewRealClock() when nil, letting tests substitute a
// simulated clock to make the wait step's dithered sleep deterministic.
func New(transport Transport, bus telemetry.Sender, http httpcapability.Client, opts Options, lookup LookupJourney, clk clock.Clock) *Runner {
	if lookup == nil {
		lookup = registry.LookupJourney
	}
	if bus == nil {
		bus = telemetry.NopSender{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Runner{
		transport:   transport,
		lookup:      lookup,
		bus:         bus,
		http:        http,
		cfg:         NewConfig(),
		opts:        opts.withDefaults(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		clk:         clk,
		inFlight:    make(map[uint64]inFlightTask),
		completions: make(chan completion, 4096),
		wake:        make(chan struct{}, 1),
	}
}

// Run bootstraps against the controller and drives the runner loop until
// told to stop, then drains and disconnects. It returns once bye has been
// sent, or when ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	hello, err := r.transport.Hello(ctx)
	if err != nil {
		return fmt.Errorf("runner: hello: %w", err)
	}
	r.runnerID = hello.RunnerID
	r.testName = hello.TestName
	r.cfg.Update(hello.Config)

	for {
		reply, err := r.requestWork(ctx, r.selfLimit())
		if err != nil {
			return err
		}

		for _, grant := range reply.Grants {
			r.spawn(grant)
		}

		if reply.Stop {
			break
		}

		if err := r.wait(ctx); err != nil {
			return err
		}
	}

	r.stopping.Store(true)
	if err := r.drain(ctx); err != nil {
		return err
	}

	return r.transport.Bye(ctx, r.runnerID)
}

// selfLimit is the runner's own concurrency ceiling for the next
// request_work call: the configured maximum minus whatever is already
// in flight.
func (r *Runner) selfLimit() int {
	n := r.opts.MaxJourneys - r.inFlightCount()
	if n < 0 {
		n = 0
	}
	return n
}

func (r *Runner) requestWork(ctx context.Context, maxWork int) (RequestWorkReply, error) {
	reply, err := r.transport.RequestWork(ctx, wire.RequestWorkArgs{
		RunnerID:      r.runnerID,
		CurrentWork:   r.currentWork(),
		CompletedData: r.drainCompletions(),
		MaxWork:       maxWork,
		ConfigVersion: r.cfg.Version(),
	})
	if err != nil {
		return RequestWorkReply{}, fmt.Errorf("runner: request_work: %w", err)
	}
	r.cfg.Update(reply.ConfigDelta)
	return reply, nil
}

// drain keeps reporting completions with max_work=0 (accepting no new
// grants) until every in-flight journey has finished, then sends one more
// request_work reporting that last batch of completions before bye.
func (r *Runner) drain(ctx context.Context) error {
	for r.inFlightCount() > 0 {
		if _, err := r.requestWork(ctx, 0); err != nil {
			return err
		}
		if r.inFlightCount() == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clk.After(r.opts.LoopWaitMin):
		}
	}
	_, err := r.requestWork(ctx, 0)
	return err
}

// wait pauses between request_work calls for a duration dithered between
// LoopWaitMin and LoopWaitMax, the runner's leaky-bucket pacing, but
// stops early once an in-flight grant completes — whichever comes first —
// so a quiet scenario doesn't block a runner that could already ask for
// more work. It never returns before LoopWaitMin has elapsed. Uses the
// injected clock.Clock rather than time.After directly so a simulated
// clock can make the dithered sleep deterministic in tests.
func (r *Runner) wait(ctx context.Context) error {
	start := r.clk.Now()
	d := r.opts.LoopWaitMin
	if spread := r.opts.LoopWaitMax - r.opts.LoopWaitMin; spread > 0 {
		d += time.Duration(r.rng.Int63n(int64(spread)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clk.After(d):
		return nil
	case <-r.wake:
	}
	if remaining := r.opts.LoopWaitMin - r.clk.Since(start); remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clk.After(remaining):
		}
	}
	return nil
}

// spawn starts one grant's journey in its own goroutine and registers it as
// in flight under a freshly allocated context id.
func (r *Runner) spawn(grant wire.Grant) {
	r.mu.Lock()
	r.nextContextID++
	contextID := r.nextContextID
	r.inFlight[contextID] = inFlightTask{scenarioID: grant.ScenarioID, dataID: grant.DataID, hasData: grant.HasData}
	r.mu.Unlock()

	done := completion{contextID: contextID, scenarioID: grant.ScenarioID, dataID: grant.DataID, hasData: grant.HasData}

	fn, ok := r.lookup(grant.JourneyName)
	if !ok {
		r.bus.SendEnvelope(telemetry.NewException(registry.ErrUnknownJourney(grant.JourneyName).Error(), ""))
		r.completions <- done
		return
	}

	idData := journeycontext.IDData{
		Test:       r.testName,
		RunnerID:   r.runnerID,
		Journey:    grant.JourneyName,
		ContextID:  contextID,
		ScenarioID: grant.ScenarioID,
		DataID:     grant.DataID,
	}
	jc := journeycontext.New(
		telemetry.ContextSender{Bus: r.bus, Test: r.testName},
		r.cfg,
		idData,
		r.http,
		r.stopping.Load,
		r.opts.Debug,
	)

	go func() {
		journey.Run(jc, journey.Func(fn), grant.Args)
		r.completions <- done
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}()
}

func (r *Runner) drainCompletions() []wire.DataRef {
	var refs []wire.DataRef
	for {
		select {
		case c := <-r.completions:
			r.mu.Lock()
			delete(r.inFlight, c.contextID)
			r.mu.Unlock()
			if c.hasData {
				refs = append(refs, wire.DataRef{ScenarioID: c.scenarioID, DataID: c.dataID})
			}
		default:
			return refs
		}
	}
}

func (r *Runner) currentWork() map[uint64]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := make(map[uint64]int, len(r.inFlight))
	for _, t := range r.inFlight {
		work[t.scenarioID]++
	}
	return work
}

func (r *Runner) inFlightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}
