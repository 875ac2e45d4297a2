package ratelimit

import (
	"math/rand"
	"testing"
)

func TestSpawnLimiterWholeBudgetAlwaysAllowed(t *testing.T) {
	l := NewSpawnLimiter(rand.New(rand.NewSource(1)))
	// spawnRate=10, nRunners=1, minPeriod=1 => budget exactly 10.
	n := l.Allow(10, 1, 1)
	if n != 10 {
		t.Fatalf("expected exact integer budget to be allowed in full, got %d", n)
	}
}

func TestSpawnLimiterZeroRateAllowsNothing(t *testing.T) {
	l := NewSpawnLimiter(nil)
	if n := l.Allow(0, 5, 1); n != 0 {
		t.Fatalf("expected 0 for zero spawn rate, got %d", n)
	}
}

func TestSpawnLimiterDithersFractionalRemainderOverLongRun(t *testing.T) {
	l := NewSpawnLimiter(rand.New(rand.NewSource(42)))
	// budget = 2.5 / (10/1) = 0.25 per call.
	const calls = 20000
	total := 0
	for i := 0; i < calls; i++ {
		total += l.Allow(2.5, 10, 1)
	}
	avg := float64(total) / float64(calls)
	if avg < 0.2 || avg > 0.3 {
		t.Fatalf("expected long-run average near 0.25, got %f", avg)
	}
}
