// Package controller implements the pure decision logic every runner's
// hello/request_work/bye RPC is dispatched to, plus a Server binding that
// logic to a TCP listener over internal/wire framing.
//
// Grounded on original_source/mite/controller.py's Controller class for
// the request_work algorithm's step order, and on the teacher's
// LoadController (formerly internal/controller/load_controller.go, since
// replaced) for the Start/Stop background-goroutine lifecycle shape used
// here for periodic controller_report emission.
package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/config"
	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/telemetry"
	"github.com/mite-go/loadgen/internal/tracking"
	"github.com/mite-go/loadgen/internal/wire"
)

// RunnerTimeout is the liveness window after which a runner that hasn't
// called request_work is presumed dead and reaped.
const RunnerTimeout = 30 * time.Second

// reportInterval is how often the background loop emits a
// controller_report telemetry envelope.
const reportInterval = 5 * time.Second

// Controller holds no I/O itself: Hello/RequestWork/Bye are called
// directly by tests, and by Server once a request has been decoded off
// the wire.
type Controller struct {
	clock     clock.Clock
	testName  string
	scenarios *scenario.Manager
	pools     *datapool.Manager
	work      *tracking.WorkTracker
	runners   *tracking.RunnerTracker
	cfg       *config.Manager
	bus       telemetry.Sender

	nextRunnerID atomic.Uint64

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New builds a Controller over an already-populated scenario Manager.
func New(clk clock.Clock, testName string, scenarios *scenario.Manager, pools *datapool.Manager, cfg *config.Manager, bus telemetry.Sender) *Controller {
	if bus == nil {
		bus = telemetry.NopSender{}
	}
	return &Controller{
		clock:     clk,
		testName:  testName,
		scenarios: scenarios,
		pools:     pools,
		work:      tracking.NewWorkTracker(),
		runners:   tracking.NewRunnerTracker(),
		cfg:       cfg,
		bus:       bus,
		done:      make(chan struct{}),
	}
}

// Hello registers a new runner and returns its assigned identity plus a
// full config snapshot.
func (c *Controller) Hello() (runnerID uint64, testName string, cfg []wire.ConfigKV) {
	runnerID = c.nextRunnerID.Add(1)
	c.runners.Update(runnerID, c.clock.Now())

	kvs, version := c.cfg.Snapshot()
	out := make([]wire.ConfigKV, len(kvs))
	for i, kv := range kvs {
		out[i] = wire.ConfigKV{Key: kv.Key, Value: kv.Value, Version: version}
	}
	return runnerID, c.testName, out
}

// RequestWorkParams is the decoded form of wire.RequestWorkArgs.
type RequestWorkParams struct {
	RunnerID      uint64
	CurrentWork   map[uint64]int
	CompletedData []wire.DataRef
	MaxWork       int
	ConfigVersion uint64
}

// RequestWorkResult is the decoded form of wire.RequestWorkReply.
type RequestWorkResult struct {
	Grants      []scenario.Grant
	ConfigDelta []wire.ConfigKV
	Stop        bool
}

// RequestWork implements the specification's seven request_work steps:
//  1. record the runner's heartbeat (liveness).
//  2. check in every completed data ref against its scenario's pool.
//  3. replace the runner's authoritative work snapshot.
//  4. reap any runner that has gone quiet.
//  5. roll every scenario's period forward and recompute required work.
//  6. compute this runner's grants via the three-clamp GetWork algorithm.
//  7. record the grants as assumed work and return them, with any config
//     entries the runner hasn't seen yet and a stop flag once there is no
//     more work anywhere in the system.
func (c *Controller) RequestWork(p RequestWorkParams) RequestWorkResult {
	now := c.clock.Now()

	c.runners.Update(p.RunnerID, now)

	for _, ref := range p.CompletedData {
		c.scenarios.CheckinData(ref.ScenarioID, ref.DataID)
	}

	c.work.SetActual(p.RunnerID, p.CurrentWork)

	active := c.runners.GetActive(now, RunnerTimeout)
	for _, id := range c.allKnownRunners() {
		if !contains(active, id) {
			c.work.RemoveRunner(id)
			c.runners.RemoveRunner(id)
		}
	}
	active = c.runners.GetActive(now, RunnerTimeout)

	c.scenarios.RequiredWork(now)

	var grants []scenario.Grant
	if p.MaxWork > 0 {
		grants = c.scenarios.GetWork(scenario.GetWorkParams{
			CurrentWork:    p.CurrentWork,
			ScenarioTotals: c.work.GetTotalWork(active),
			MaxWork:        p.MaxWork,
			NRunners:       len(active),
		})
	}

	byScenario := make(map[uint64]int, len(grants))
	for _, g := range grants {
		byScenario[g.ScenarioID]++
	}
	for scenarioID, n := range byScenario {
		c.work.AddAssumed(p.RunnerID, scenarioID, n)
	}

	delta := c.cfg.ChangesSince(p.ConfigVersion)
	_, version := c.cfg.Snapshot()
	configDelta := make([]wire.ConfigKV, len(delta))
	for i, kv := range delta {
		configDelta[i] = wire.ConfigKV{Key: kv.Key, Value: kv.Value, Version: version}
	}

	return RequestWorkResult{
		Grants:      grants,
		ConfigDelta: configDelta,
		Stop:        c.ShouldStop(),
	}
}

// Bye forgets a runner that has finished draining and disconnected
// cleanly.
func (c *Controller) Bye(runnerID uint64) {
	c.work.RemoveRunner(runnerID)
	c.runners.RemoveRunner(runnerID)
}

// ShouldStop reports the request_work stop_flag (step 7): no scenario has
// required work left. A runner seeing this keeps draining its own
// in-flight journeys before disconnecting, so this alone says nothing
// about whether any runner is still around.
func (c *Controller) ShouldStop() bool {
	return !c.scenarios.IsActive()
}

// ActiveRunnerCount reports how many runners have called request_work
// within RunnerTimeout of now.
func (c *Controller) ActiveRunnerCount() int {
	return len(c.runners.GetActive(c.clock.Now(), RunnerTimeout))
}

// Done reports the controller process's overall stop condition: no
// scenario has required work left AND no runner is still attached to
// drain whatever it was last granted. ShouldStop alone is not enough here
// — a controller process that exits as soon as scenarios go dry would
// abandon runners still mid-drain with no one left to report Bye to.
func (c *Controller) Done() bool {
	return c.ShouldStop() && c.ActiveRunnerCount() == 0
}

func (c *Controller) allKnownRunners() []uint64 {
	// RunnerTracker doesn't expose a raw id listing beyond GetActive, so a
	// generous window stands in for "every runner we've ever heard from
	// recently enough to matter"; anything older is already stale from
	// WorkTracker's perspective too.
	return c.runners.GetActive(c.clock.Now(), 24*time.Hour)
}

func contains(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Start begins the background goroutine that periodically emits a
// controller_report telemetry envelope, grounded on the teacher's
// LoadController.Start/runUpdateLoop.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runReportLoop(ctx)
}

// Stop signals the background goroutine to exit and waits for it.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.wg.Wait()
}

func (c *Controller) runReportLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := c.clock.Ticker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.emitReport()
		}
	}
}

func (c *Controller) emitReport() {
	now := c.clock.Now()
	active := c.runners.GetActive(now, RunnerTimeout)
	totals := c.work.GetTotalWork(active)

	totalWork := 0
	for _, n := range totals {
		totalWork += n
	}

	c.bus.SendEnvelope(telemetry.NewControllerReport(map[string]any{
		"active_runners":   len(active),
		"active_scenarios": len(c.scenarios.ScenarioIDs()),
		"total_work":       totalWork,
	}))
}
