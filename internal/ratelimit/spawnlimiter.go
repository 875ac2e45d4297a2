// Package ratelimit implements the spawn-rate clamp the scenario manager
// applies per scenario per request_work call: the third and final clamp in
// the fair-share/self-limit/spawn-rate chain.
//
// Grounded on the teacher's internal/controller.AdaptiveRateLimiter
// (internal/controller/rate_limiter.go), which accumulates a fractional
// token count per tick and only ever emits whole tokens, carrying the
// remainder forward. SpawnLimiter adapts the same fractional-carry
// technique to a single per-call dithered integer instead of a continuous
// token bucket, since here the limiter is consulted once per
// request_work, not on a fixed tick.
package ratelimit

import (
	"math/rand"
)

// SpawnLimiter computes how many new journeys of one scenario a runner may
// be granted in a single request_work call, given the scenario's configured
// spawn_rate (journeys/second across the whole runner fleet), the current
// runner count, and the controller's minimum period.
//
// Because spawn_rate/(n_runners/min_period) is rarely an integer, the
// fractional remainder is carried in rng: a uniform draw decides whether
// this call rounds up or down, so that over many calls the long-run average
// converges on the true rate rather than always rounding the same way.
type SpawnLimiter struct {
	rng *rand.Rand
}

// NewSpawnLimiter builds a limiter using the given source of randomness.
// Passing a seeded *rand.Rand makes the dithering reproducible in tests.
func NewSpawnLimiter(rng *rand.Rand) *SpawnLimiter {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &SpawnLimiter{rng: rng}
}

// Allow returns the number of new journeys permitted this call.
//
//	budget = spawnRate / (nRunners / minPeriod.Seconds())
//
// The integer part of budget is always allowed; the fractional remainder
// is allowed with probability equal to the remainder itself.
func (l *SpawnLimiter) Allow(spawnRate float64, nRunners int, minPeriodSeconds float64) int {
	if spawnRate <= 0 {
		return 0
	}
	if nRunners <= 0 {
		nRunners = 1
	}
	if minPeriodSeconds <= 0 {
		minPeriodSeconds = 1
	}

	perRunnerRate := float64(nRunners) / minPeriodSeconds
	if perRunnerRate <= 0 {
		return 0
	}

	budget := spawnRate / perRunnerRate
	whole := int(budget)
	frac := budget - float64(whole)

	if frac > 0 && l.rng.Float64() < frac {
		whole++
	}
	return whole
}
