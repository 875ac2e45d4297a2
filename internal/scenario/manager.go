package scenario

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/ratelimit"
	"github.com/mite-go/loadgen/internal/volume"
)

// Manager owns every live scenario and implements get_required_work/
// get_work from the specification's ScenarioManager module.
type Manager struct {
	mu         sync.Mutex
	scenarios  map[uint64]*Scenario
	nextID     uint64
	minPeriod  time.Duration
	rng        *rand.Rand
	spawn      *ratelimit.SpawnLimiter
}

// NewManager builds a Manager whose scenarios roll over every minPeriod.
func NewManager(minPeriod time.Duration, rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Manager{
		scenarios: make(map[uint64]*Scenario),
		minPeriod: minPeriod,
		rng:       rng,
		spawn:     ratelimit.NewSpawnLimiter(rng),
	}
}

// AddScenario registers a new scenario and returns its id.
func (m *Manager) AddScenario(journeyName string, pool datapool.DataPool, model volume.Model, startDelay time.Duration, spawnRate float64, now time.Time) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.scenarios[id] = &Scenario{
		ID:          id,
		JourneyName: journeyName,
		Pool:        pool,
		Model:       model,
		StartDelay:  startDelay,
		SpawnRate:   spawnRate,
		createdAt:   now,
	}
	return id
}

// IsActive reports whether any scenario remains (the controller's overall
// stop condition).
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scenarios) > 0
}

// ScenarioIDs returns the ids of every live scenario.
func (m *Manager) ScenarioIDs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.scenarios))
	for id := range m.scenarios {
		ids = append(ids, id)
	}
	return ids
}

// RequiredWork rolls each scenario's period forward past now and queries its
// volume model for the period's required concurrent population. A scenario
// whose model returns the stop signal is removed immediately and omitted
// from the result.
func (m *Manager) RequiredWork(now time.Time) map[uint64]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	required := make(map[uint64]int, len(m.scenarios))
	for id, sc := range m.scenarios {
		if now.Before(sc.createdAt.Add(sc.StartDelay)) {
			required[id] = 0
			continue
		}
		sc.rollPeriod(now, m.minPeriod)
		n, ok := sc.Model.Required(sc.periodStart, sc.periodEnd)
		if !ok {
			delete(m.scenarios, id)
			continue
		}
		sc.required = n
		required[id] = n
	}
	return required
}

// GetWorkParams are the controller-supplied inputs to one runner's
// request_work call.
type GetWorkParams struct {
	// CurrentWork is the runner's self-reported in-flight count per
	// scenario id.
	CurrentWork map[uint64]int
	// ScenarioTotals is the fleet-wide in-flight count per scenario id,
	// from tracking.WorkTracker.GetTotalWork.
	ScenarioTotals map[uint64]int
	// MaxWork is the runner's own concurrency ceiling for this call,
	// clamping the total number of grants regardless of the other two
	// limits. A value <= 0 signals the runner is draining: no new work
	// is granted.
	MaxWork int
	// NRunners is the current active runner fleet size, used by the fair
	// share and spawn-rate clamps.
	NRunners int
}

// GetWork computes the grants for one runner, applying the three clamps in
// order (smallest wins): fair share, runner self-limit (MaxWork), and
// spawn-rate dithering. Scenario ids are iterated in random order so that,
// when MaxWork or the fair-share budget forces an early stop, no scenario is
// systematically starved.
//
// Fair share is a single budget for the whole call, not a per-scenario
// ceiling: ceil(required_total / n_runners) - runner_total, where
// required_total and runner_total are summed across every live scenario. It
// is consumed additively as grants are materialized scenario by scenario in
// the shuffled order, in the shape of the original's controller.py
// _gen_required_work_for_runner. Computing an independent ceiling per
// scenario and applying it separately would let the sum across scenarios
// exceed the runner's true global share.
//
// If a scenario's data pool becomes exhausted mid-batch, the scenario is
// removed and the grants accumulated for it so far in this call are kept
// (the already-checked-out partial batch is not discarded) — the
// resolved Open Question from the specification.
func (m *Manager) GetWork(p GetWorkParams) []Grant {
	if p.MaxWork <= 0 {
		return nil
	}
	if p.NRunners <= 0 {
		p.NRunners = 1
	}

	m.mu.Lock()
	ids := make([]uint64, 0, len(m.scenarios))
	requiredTotal := 0
	for id, sc := range m.scenarios {
		ids = append(ids, id)
		requiredTotal += sc.required
	}
	m.mu.Unlock()

	m.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	runnerTotal := 0
	for _, id := range ids {
		runnerTotal += p.CurrentWork[id]
	}

	fairShareBudget := (requiredTotal+p.NRunners-1)/p.NRunners - runnerTotal
	if fairShareBudget < 0 {
		fairShareBudget = 0
	}

	budget := p.MaxWork
	var grants []Grant

	for _, id := range ids {
		if budget <= 0 || fairShareBudget <= 0 {
			break
		}

		m.mu.Lock()
		sc, ok := m.scenarios[id]
		m.mu.Unlock()
		if !ok {
			continue
		}

		required := sc.required
		total := p.ScenarioTotals[id]
		diff := required - total
		if diff <= 0 {
			continue
		}

		n := minInt(diff, fairShareBudget, budget)
		if sc.SpawnRate > 0 {
			n = minInt(n, m.spawn.Allow(sc.SpawnRate, p.NRunners, m.minPeriod.Seconds()))
		}
		if n <= 0 {
			continue
		}

		exhausted := false
		for i := 0; i < n && budget > 0 && fairShareBudget > 0; i++ {
			grant := Grant{ScenarioID: id, JourneyName: sc.JourneyName}

			if sc.Pool != nil {
				item, got, err := sc.Pool.Checkout(context.Background())
				if err != nil {
					exhausted = true
					break
				}
				if !got {
					// Nothing available right now; the scenario stays,
					// it simply contributes nothing this round.
					break
				}
				grant.DataID = item.ID
				grant.HasData = true
				grant.Args = item.Args
			}

			grants = append(grants, grant)
			budget--
			fairShareBudget--
		}

		if exhausted {
			m.mu.Lock()
			delete(m.scenarios, id)
			m.mu.Unlock()
		}
	}

	return grants
}

// CheckinData returns a checked-out data item to its scenario's pool. Refs
// for scenarios that have since been removed are silently dropped.
func (m *Manager) CheckinData(scenarioID, dataID uint64) {
	m.mu.Lock()
	sc, ok := m.scenarios[scenarioID]
	m.mu.Unlock()
	if !ok || sc.Pool == nil {
		return
	}
	sc.Pool.Checkin(dataID)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
