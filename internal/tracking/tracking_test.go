package tracking

import (
	"testing"
	"time"
)

func TestWorkTrackerSetActualAndAssumed(t *testing.T) {
	wt := NewWorkTracker()
	wt.SetActual(1, map[uint64]int{10: 3, 11: 1})
	wt.AddAssumed(1, 10, 2)

	totals := wt.GetTotalWork([]uint64{1})
	if totals[10] != 5 {
		t.Fatalf("expected scenario 10 total 5 (3 actual + 2 assumed), got %d", totals[10])
	}
	if totals[11] != 1 {
		t.Fatalf("expected scenario 11 total 1, got %d", totals[11])
	}

	if got := wt.GetRunnerTotal(1); got != 6 {
		t.Fatalf("expected runner total 6, got %d", got)
	}
}

func TestWorkTrackerSetActualInvalidatesPreviousAssumed(t *testing.T) {
	wt := NewWorkTracker()
	wt.SetActual(1, map[uint64]int{10: 3})
	wt.AddAssumed(1, 10, 5)

	// The runner's next authoritative report replaces the whole snapshot,
	// dropping the stale assumed count.
	wt.SetActual(1, map[uint64]int{10: 1})

	totals := wt.GetTotalWork([]uint64{1})
	if totals[10] != 1 {
		t.Fatalf("expected fresh actual to replace assumed additions, got %d", totals[10])
	}
}

func TestWorkTrackerIgnoresInactiveRunners(t *testing.T) {
	wt := NewWorkTracker()
	wt.SetActual(1, map[uint64]int{10: 3})
	wt.SetActual(2, map[uint64]int{10: 4})

	totals := wt.GetTotalWork([]uint64{1})
	if totals[10] != 3 {
		t.Fatalf("expected only active runner 1 to contribute, got %d", totals[10])
	}
}

func TestWorkTrackerRemoveRunner(t *testing.T) {
	wt := NewWorkTracker()
	wt.SetActual(1, map[uint64]int{10: 3})
	wt.RemoveRunner(1)

	if got := wt.GetRunnerTotal(1); got != 0 {
		t.Fatalf("expected 0 after RemoveRunner, got %d", got)
	}
}

func TestRunnerTrackerActiveWithinTimeout(t *testing.T) {
	rt := NewRunnerTracker()
	base := time.Now()
	rt.Update(1, base)

	if !rt.IsActive(1, base.Add(5*time.Second), 10*time.Second) {
		t.Fatalf("expected runner to still be active within timeout")
	}
	if rt.IsActive(1, base.Add(20*time.Second), 10*time.Second) {
		t.Fatalf("expected runner to be inactive past timeout")
	}
	if rt.IsActive(99, base, 10*time.Second) {
		t.Fatalf("expected unknown runner to be inactive")
	}
}

func TestRunnerTrackerGetHitRate(t *testing.T) {
	rt := NewRunnerTracker()
	base := time.Now()
	for i := 0; i < 5; i++ {
		rt.Update(1, base.Add(time.Duration(i)*time.Second))
	}

	rate := rt.GetHitRate(1, base.Add(4*time.Second), 10*time.Second)
	if rate != 0.5 {
		t.Fatalf("expected hit rate 5 updates / 10s = 0.5, got %f", rate)
	}
}
