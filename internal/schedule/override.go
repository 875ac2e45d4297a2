// Package schedule implements optional, operator-triggered overrides to a
// scenario's volume model: a cron-scheduled multiplier that temporarily
// scales the required concurrent population up or down (a morning login
// rush, a nightly batch window, a maintenance lull) without editing the
// scenario's base volume.Model.
//
// Grounded on the teacher's internal/events package (EventScheduler,
// ScheduledEvent, cron_parser.go), generalized from its original
// read/write-ratio and query-profile-switching effects (which have no
// SPEC_FULL.md analogue for an HTTP journey) down to the one effect that
// does apply here: a load multiplier, renamed throughout from "event" to
// "override" to match this domain's vocabulary.
package schedule

import (
	"fmt"
	"time"
)

// Override is one cron-scheduled load multiplier.
type Override struct {
	Name       string        `yaml:"name" json:"name"`
	Schedule   string        `yaml:"schedule" json:"schedule"` // cron expression
	Duration   time.Duration `yaml:"duration" json:"duration"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"`
	Priority   int           `yaml:"priority" json:"priority"`
	Enabled    bool          `yaml:"enabled" json:"enabled"`
}

// ActiveOverride is an Override currently in effect.
type ActiveOverride struct {
	Override  *Override
	StartTime time.Time
	EndTime   time.Time
}

// Validate checks that the override's configuration is well-formed.
func (o *Override) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("override name is required")
	}
	if o.Schedule == "" {
		return fmt.Errorf("override schedule is required")
	}
	if _, err := ParseCron(o.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	if o.Duration <= 0 {
		return fmt.Errorf("override duration must be positive")
	}
	if o.Multiplier < 0 {
		return fmt.Errorf("multiplier cannot be negative")
	}
	return nil
}

// Copy returns an independent copy of the override.
func (o *Override) Copy() *Override {
	cp := *o
	return &cp
}

// IsActive reports whether t falls within the active window.
func (ao *ActiveOverride) IsActive(t time.Time) bool {
	return !t.Before(ao.StartTime) && t.Before(ao.EndTime)
}

// RemainingDuration reports how much longer the override stays active as of
// t, or zero once it has ended.
func (ao *ActiveOverride) RemainingDuration(t time.Time) time.Duration {
	if t.After(ao.EndTime) || t.Equal(ao.EndTime) {
		return 0
	}
	return ao.EndTime.Sub(t)
}

func (o *Override) String() string {
	status := "disabled"
	if o.Enabled {
		status = "enabled"
	}
	return fmt.Sprintf("Override{name=%s, schedule=%s, duration=%v, %s}", o.Name, o.Schedule, o.Duration, status)
}

func (ao *ActiveOverride) String() string {
	return fmt.Sprintf("ActiveOverride{name=%s, start=%s, end=%s}",
		ao.Override.Name, ao.StartTime.Format("15:04:05"), ao.EndTime.Format("15:04:05"))
}
