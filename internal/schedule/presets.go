package schedule

import (
	"time"

	"github.com/mite-go/loadgen/internal/clock"
)

// Presets covering common load-shape overrides for an HTTP journey test,
// adapted from the teacher's preset scheduled events (internal/events/preset_events.go),
// stripped of the read/write-ratio and query-profile-switching effects that
// had no SPEC_FULL.md analogue.

// MorningPeak simulates a login rush on weekday mornings.
var MorningPeak = &Override{
	Name:       "morning_peak",
	Schedule:   "0 8 * * 1-5",
	Duration:   time.Hour,
	Multiplier: 2.5,
	Priority:   30,
	Enabled:    true,
}

// LunchDip simulates reduced traffic over the weekday lunch hour.
var LunchDip = &Override{
	Name:       "lunch_dip",
	Schedule:   "0 12 * * 1-5",
	Duration:   time.Hour,
	Multiplier: 0.6,
	Priority:   20,
	Enabled:    true,
}

// AfternoonPeak simulates the weekday afternoon traffic peak.
var AfternoonPeak = &Override{
	Name:       "afternoon_peak",
	Schedule:   "0 14 * * 1-5",
	Duration:   2 * time.Hour,
	Multiplier: 2.0,
	Priority:   30,
	Enabled:    true,
}

// NightlyBatch simulates an elevated background job load overnight.
var NightlyBatch = &Override{
	Name:       "nightly_batch",
	Schedule:   "0 2 * * *",
	Duration:   45 * time.Minute,
	Multiplier: 2.0,
	Priority:   50,
	Enabled:    true,
}

// WeekendMaintenance simulates a maintenance-window traffic lull.
var WeekendMaintenance = &Override{
	Name:       "weekend_maintenance",
	Schedule:   "0 3 * * 0",
	Duration:   2 * time.Hour,
	Multiplier: 0.5,
	Priority:   80,
	Enabled:    true,
}

var presets = map[string]*Override{
	MorningPeak.Name:        MorningPeak,
	LunchDip.Name:           LunchDip,
	AfternoonPeak.Name:      AfternoonPeak,
	NightlyBatch.Name:       NightlyBatch,
	WeekendMaintenance.Name: WeekendMaintenance,
}

// Preset returns a copy of a named preset override.
func Preset(name string) (*Override, bool) {
	o, ok := presets[name]
	if !ok {
		return nil, false
	}
	return o.Copy(), true
}

// PresetNames lists every available preset name.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

// WorkdayProfile builds a Scheduler preloaded with the weekday traffic-shape
// presets (morning peak, lunch dip, afternoon peak).
func WorkdayProfile(clk clock.Clock) *Scheduler {
	s := NewScheduler(clk)
	_ = s.AddOverride(MorningPeak.Copy())
	_ = s.AddOverride(LunchDip.Copy())
	_ = s.AddOverride(AfternoonPeak.Copy())
	return s
}
