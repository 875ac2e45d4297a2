package tracking

import (
	"sync"
	"time"
)

// RunnerTracker records the last time each runner was heard from (every
// hello and every request_work counts as a heartbeat) and reports which
// runners are still within a liveness timeout.
//
// Grounded on original_source/mite/controller.py's RunnerTracker, whose
// time-window based "is this runner active" check is the same shape as the
// liveness window used here.
type RunnerTracker struct {
	mu       sync.Mutex
	lastSeen map[uint64]time.Time
	updates  map[uint64][]time.Time
}

// NewRunnerTracker builds an empty tracker.
func NewRunnerTracker() *RunnerTracker {
	return &RunnerTracker{
		lastSeen: make(map[uint64]time.Time),
		updates:  make(map[uint64][]time.Time),
	}
}

// Update records a heartbeat for runnerID at time now.
func (t *RunnerTracker) Update(runnerID uint64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[runnerID] = now
	t.updates[runnerID] = append(t.updates[runnerID], now)
}

// GetActive returns the ids of runners whose last heartbeat is within
// timeout of now. Runners that haven't been seen recently are presumed
// dead and silently reaped from a caller's perspective (the caller is
// expected to call RemoveRunner/WorkTracker.RemoveRunner for anything this
// excludes).
func (t *RunnerTracker) GetActive(now time.Time, timeout time.Duration) []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := make([]uint64, 0, len(t.lastSeen))
	for runnerID, seen := range t.lastSeen {
		if now.Sub(seen) <= timeout {
			active = append(active, runnerID)
		}
	}
	return active
}

// IsActive reports whether a single runner is within the liveness timeout.
func (t *RunnerTracker) IsActive(runnerID uint64, now time.Time, timeout time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen, ok := t.lastSeen[runnerID]
	if !ok {
		return false
	}
	return now.Sub(seen) <= timeout
}

// GetHitRate returns the number of heartbeats recorded for runnerID within
// the last timeout window, divided by timeout — i.e. the runner's average
// request rate over that window, in requests/second. Returns 0 for an
// unknown runner.
func (t *RunnerTracker) GetHitRate(runnerID uint64, now time.Time, timeout time.Duration) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	hist := t.updates[runnerID]
	if len(hist) == 0 || timeout <= 0 {
		return 0
	}

	cutoff := now.Add(-timeout)
	count := 0
	kept := hist[:0:0]
	for _, ts := range hist {
		if ts.After(cutoff) {
			count++
			kept = append(kept, ts)
		}
	}
	t.updates[runnerID] = kept

	return float64(count) / timeout.Seconds()
}

// RemoveRunner forgets a runner entirely, e.g. after it sends bye or is
// reaped for inactivity.
func (t *RunnerTracker) RemoveRunner(runnerID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSeen, runnerID)
	delete(t.updates, runnerID)
}
