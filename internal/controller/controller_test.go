package controller

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/config"
	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/scenario"
	"github.com/mite-go/loadgen/internal/telemetry"
	"github.com/mite-go/loadgen/internal/volume"
	"github.com/mite-go/loadgen/internal/wire"
)

func newTestController(t *testing.T) (*Controller, *scenario.Manager) {
	t.Helper()
	clk := clock.NewRealClock()
	sm := scenario.NewManager(time.Second, rand.New(rand.NewSource(1)))
	pools := datapool.NewManager()
	cfg := config.NewManager()
	ctrl := New(clk, "test", sm, pools, cfg, telemetry.NopSender{})
	return ctrl, sm
}

func TestHelloAssignsIncreasingRunnerIDs(t *testing.T) {
	ctrl, _ := newTestController(t)

	id1, testName, _ := ctrl.Hello()
	id2, _, _ := ctrl.Hello()

	if testName != "test" {
		t.Errorf("expected test name 'test', got %q", testName)
	}
	if id1 == 0 || id2 == 0 || id1 == id2 {
		t.Errorf("expected two distinct nonzero runner ids, got %d and %d", id1, id2)
	}
}

func TestRequestWorkGrantsUpToRequiredWork(t *testing.T) {
	ctrl, sm := newTestController(t)
	runnerID, _, _ := ctrl.Hello()

	sm.AddScenario("signup", nil, volume.Constant(5), 0, 0, time.Now())

	result := ctrl.RequestWork(RequestWorkParams{
		RunnerID:    runnerID,
		CurrentWork: map[uint64]int{},
		MaxWork:     100,
	})

	if len(result.Grants) != 5 {
		t.Fatalf("expected 5 grants for a constant-5 scenario with 1 runner, got %d", len(result.Grants))
	}
	if result.Stop {
		t.Error("did not expect stop with an active scenario")
	}
}

func TestRequestWorkStopsWhenNoScenariosRemain(t *testing.T) {
	ctrl, _ := newTestController(t)
	runnerID, _, _ := ctrl.Hello()

	result := ctrl.RequestWork(RequestWorkParams{
		RunnerID:    runnerID,
		CurrentWork: map[uint64]int{},
		MaxWork:     100,
	})

	if !result.Stop {
		t.Error("expected stop with no scenarios registered")
	}
}

func TestRequestWorkDrainModeGrantsNothing(t *testing.T) {
	ctrl, sm := newTestController(t)
	runnerID, _, _ := ctrl.Hello()
	sm.AddScenario("signup", nil, volume.Constant(5), 0, 0, time.Now())

	result := ctrl.RequestWork(RequestWorkParams{
		RunnerID:    runnerID,
		CurrentWork: map[uint64]int{},
		MaxWork:     0,
	})

	if len(result.Grants) != 0 {
		t.Errorf("expected no grants with MaxWork=0, got %d", len(result.Grants))
	}
}

func TestByeForgetsRunner(t *testing.T) {
	ctrl, sm := newTestController(t)
	runnerID, _, _ := ctrl.Hello()
	sm.AddScenario("signup", nil, volume.Constant(5), 0, 0, time.Now())

	ctrl.RequestWork(RequestWorkParams{RunnerID: runnerID, CurrentWork: map[uint64]int{}, MaxWork: 5})
	ctrl.Bye(runnerID)

	// After Bye, a fresh request_work with no active runner should fall
	// back to treating this runner as the sole fair-share denominator
	// again, i.e. there's no leftover assumed work inflating the total.
	total := ctrl.work.GetTotalWork(ctrl.runners.GetActive(ctrl.clock.Now(), RunnerTimeout))
	if len(total) != 0 {
		t.Errorf("expected no tracked work after Bye, got %+v", total)
	}
}

// Done must not fire just because scenarios went dry: a runner that
// called Hello (and hasn't called Bye or timed out) is still attached
// and may be mid-drain.
func TestDoneWaitsForRunnersToDisconnectAfterScenariosGoDry(t *testing.T) {
	ctrl, _ := newTestController(t)
	runnerID, _, _ := ctrl.Hello()

	if !ctrl.ShouldStop() {
		t.Fatal("expected ShouldStop with no scenarios registered")
	}
	if ctrl.ActiveRunnerCount() != 1 {
		t.Fatalf("expected 1 active runner after Hello, got %d", ctrl.ActiveRunnerCount())
	}
	if ctrl.Done() {
		t.Error("expected Done to stay false while a runner is still attached")
	}

	ctrl.Bye(runnerID)
	if !ctrl.Done() {
		t.Error("expected Done once the only runner has disconnected")
	}
}

func TestHelloReturnsConfigSnapshot(t *testing.T) {
	clk := clock.NewRealClock()
	sm := scenario.NewManager(time.Second, rand.New(rand.NewSource(1)))
	pools := datapool.NewManager()
	cfg := config.NewManager()
	cfg.Set("log_level", "debug")
	ctrl := New(clk, "test", sm, pools, cfg, telemetry.NopSender{})

	_, _, kvs := ctrl.Hello()
	found := false
	for _, kv := range kvs {
		if kv.Key == "log_level" && kv.Value == "debug" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected log_level=debug in hello config snapshot, got %+v", kvs)
	}
}

func TestRequestWorkReturnsOnlyConfigChangesSinceVersion(t *testing.T) {
	clk := clock.NewRealClock()
	sm := scenario.NewManager(time.Second, rand.New(rand.NewSource(1)))
	pools := datapool.NewManager()
	cfg := config.NewManager()
	v1 := cfg.Set("a", "1")
	ctrl := New(clk, "test", sm, pools, cfg, telemetry.NopSender{})

	runnerID, _, _ := ctrl.Hello()
	cfg.Set("b", "2")

	result := ctrl.RequestWork(RequestWorkParams{
		RunnerID:      runnerID,
		CurrentWork:   map[uint64]int{},
		MaxWork:       1,
		ConfigVersion: v1,
	})

	if len(result.ConfigDelta) != 1 || result.ConfigDelta[0].Key != "b" {
		t.Errorf("expected only key b in config delta, got %+v", result.ConfigDelta)
	}
}

func TestServerRoundTripsHelloOverWire(t *testing.T) {
	ctrl, _ := newTestController(t)
	srv, err := NewServer(ctrl, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.Close()

	go srv.Serve()

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, wire.MsgHello, wire.HelloArgs{}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	msgType, payload, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if msgType != wire.MsgHello {
		t.Fatalf("expected hello reply, got type %d", msgType)
	}
	var reply wire.HelloReply
	if err := wire.DecodePayload(payload, &reply); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if reply.RunnerID == 0 {
		t.Error("expected a nonzero runner id")
	}
	if reply.TestName != "test" {
		t.Errorf("expected test name 'test', got %q", reply.TestName)
	}
}
