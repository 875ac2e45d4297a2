// Package tracking implements the controller's two bookkeeping
// collaborators: WorkTracker (how many journeys of each scenario are
// running on each runner) and RunnerTracker (which runners are alive).
//
// Grounded on _examples/original_source/mite/controller.py's workTracker
// and RunnerTracker.
package tracking

import (
	"sync"
)

// WorkTracker holds, per runner, the number of in-flight journeys per
// scenario. Controller.RequestWork calls SetActual once per request (the
// runner's authoritative current_work snapshot) and AddAssumed once per
// scenario with the number of grants handed out for it on that call, so
// the fair-share calculation can
// account for work the runner has not reported back yet.
//
// Every write invalidates the cached scenario totals: get_total_work is
// always recomputed fresh rather than incrementally maintained, matching
// the module's resolved "invalidate-on-any-write" design decision (a stale
// total that undercounts assumed work would let the fair-share clamp
// over-grant).
type WorkTracker struct {
	mu      sync.Mutex
	byRunner map[uint64]map[uint64]int // runnerID -> scenarioID -> count
}

// NewWorkTracker builds an empty tracker.
func NewWorkTracker() *WorkTracker {
	return &WorkTracker{byRunner: make(map[uint64]map[uint64]int)}
}

// SetActual replaces a runner's entire scenario->count snapshot, as
// reported in its current_work field on the next request_work call.
func (t *WorkTracker) SetActual(runnerID uint64, totals map[uint64]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := make(map[uint64]int, len(totals))
	for k, v := range totals {
		if v > 0 {
			snapshot[k] = v
		}
	}
	t.byRunner[runnerID] = snapshot
}

// AddAssumed records n additional in-flight journeys of scenarioID assumed
// to be running on runnerID, ahead of that runner's next authoritative
// report.
func (t *WorkTracker) AddAssumed(runnerID, scenarioID uint64, n int) {
	if n == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byRunner[runnerID]
	if !ok {
		m = make(map[uint64]int)
		t.byRunner[runnerID] = m
	}
	m[scenarioID] += n
}

// GetTotalWork sums each scenario's count across the given active runners;
// runners not in the list (presumed dead) do not contribute.
func (t *WorkTracker) GetTotalWork(active []uint64) map[uint64]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	totals := make(map[uint64]int)
	for _, runnerID := range active {
		for scenarioID, n := range t.byRunner[runnerID] {
			totals[scenarioID] += n
		}
	}
	return totals
}

// GetRunnerTotal sums every scenario's count for one runner.
func (t *WorkTracker) GetRunnerTotal(runnerID uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, n := range t.byRunner[runnerID] {
		total += n
	}
	return total
}

// RemoveRunner drops all tracked work for a runner that has gone away
// (timed out or sent bye), its in-flight grants considered lost.
func (t *WorkTracker) RemoveRunner(runnerID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byRunner, runnerID)
}
