// Package volume implements the VolumeModel collaborator: a pure function
// of time producing the number of concurrently in-flight journeys a
// scenario should maintain, or the distinguished stop signal.
//
// Grounded on the module's design notes, which call for "a small VolumeModel
// interface instead of callables" in place of the original Python
// implementation's bare callable volume models
// (original_source/minimalmite/volume_model.py).
package volume

import (
	"math"
	"time"
)

// Model is queried once per scenario manager period to learn how many
// concurrently in-flight journeys a scenario should be running between
// start and end. ok=false is the distinguished Stop signal: the scenario
// manager retires the scenario the next time it sees it.
type Model interface {
	Required(start, end time.Time) (n int, ok bool)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(start, end time.Time) (int, bool)

func (f ModelFunc) Required(start, end time.Time) (int, bool) { return f(start, end) }

// Constant always requires exactly n concurrent journeys.
func Constant(n int) Model {
	return ModelFunc(func(start, end time.Time) (int, bool) { return n, true })
}

// Stopped never requires any work; get_required_work sees it as an
// immediate stop signal.
func Stopped() Model {
	return ModelFunc(func(start, end time.Time) (int, bool) { return 0, false })
}

// Ramp linearly interpolates the required count from `from` at t=0 to `to`
// at t=over, holding at `to` afterward.
func Ramp(from, to int, over time.Duration) Model {
	start := time.Time{}
	once := false
	return ModelFunc(func(s, e time.Time) (int, bool) {
		if !once {
			start = s
			once = true
		}
		elapsed := s.Sub(start)
		if elapsed >= over {
			return to, true
		}
		if elapsed < 0 {
			return from, true
		}
		frac := float64(elapsed) / float64(over)
		n := float64(from) + frac*float64(to-from)
		return int(math.Round(n)), true
	})
}

// Bounded wraps inner, tracking how much it has cumulatively required, and
// stops once that running total reaches limit. Supplements the source's
// simpler "run N journeys total then stop" scenarios seen in
// original_source/minimalmite.
func Bounded(inner Model, limit int) Model {
	total := 0
	return ModelFunc(func(start, end time.Time) (int, bool) {
		if total >= limit {
			return 0, false
		}
		n, ok := inner.Required(start, end)
		if !ok {
			return 0, false
		}
		remaining := limit - total
		if n > remaining {
			n = remaining
		}
		total += n
		return n, true
	})
}
