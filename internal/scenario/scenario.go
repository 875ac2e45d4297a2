// Package scenario implements the ScenarioManager: period rollover of the
// volume model, and the three-clamp grant computation of
// _examples/original_source/mite/scenariomanager.py and
// _examples/original_source/mite/controller.py's
// _gen_required_work_for_runner, extended with the runner self-limit and
// spawn-rate clamps this module's specification adds.
package scenario

import (
	"time"

	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/volume"
)

// Scenario binds a journey to an optional data pool and a volume model.
type Scenario struct {
	ID          uint64
	JourneyName string
	Pool        datapool.DataPool // nil if the journey takes no data
	Model       volume.Model
	StartDelay  time.Duration
	SpawnRate   float64 // journeys/second across the whole runner fleet; 0 = unbounded

	createdAt   time.Time
	periodStart time.Time
	periodEnd   time.Time
	required    int
	removed     bool
}

// Grant is one unit of work handed to a runner: a journey to run, with an
// optional data item checked out on the scenario's behalf.
type Grant struct {
	ScenarioID  uint64
	JourneyName string
	DataID      uint64
	HasData     bool
	Args        []any
}

func (s *Scenario) rollPeriod(now time.Time, minPeriod time.Duration) {
	if s.periodEnd.IsZero() {
		s.periodStart = s.createdAt.Add(s.StartDelay)
		s.periodEnd = s.periodStart.Add(minPeriod)
		return
	}
	for !now.Before(s.periodEnd) {
		s.periodStart = s.periodEnd
		s.periodEnd = s.periodStart.Add(minPeriod)
	}
}
