package schedule

import (
	"math"
	"time"

	"github.com/mite-go/loadgen/internal/volume"
)

// Scaled wraps a base volume.Model so every Required call is multiplied by
// the scheduler's currently active override, if any. A scenario wired
// through Scaled keeps its own base shape (constant, ramp, pattern) and
// layers the scheduler's multiplier on top without the two ever needing to
// know about each other.
func Scaled(base volume.Model, s *Scheduler) volume.Model {
	return volume.ModelFunc(func(start, end time.Time) (int, bool) {
		n, ok := base.Required(start, end)
		if !ok {
			return 0, false
		}
		m := s.Multiplier(1.0)
		if m == 1.0 {
			return n, true
		}
		return int(math.Round(float64(n) * m)), true
	})
}
