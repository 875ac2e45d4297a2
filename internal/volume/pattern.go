package volume

import (
	"fmt"
	"time"
)

// Pattern drives a time-varying concurrent-population target from an
// hour-of-day multiplier table. Kept from the teacher's
// internal/pattern.LoadPattern, renamed from "QPS" to "population" since
// here it scales a concurrent-journey count rather than a queries/sec
// target, with the same Validate/SetDefaults/Clone idiom carried over from
// every teacher config-object type.
type Pattern struct {
	Type                string          `yaml:"type" json:"type"`
	BaselinePopulation  int             `yaml:"baseline_population" json:"baseline_population"`
	HourlyMultipliers   map[int]float64 `yaml:"hourly_multipliers" json:"hourly_multipliers"`
	MinMultiplier       float64         `yaml:"min_multiplier" json:"min_multiplier"`
	MaxMultiplier       float64         `yaml:"max_multiplier" json:"max_multiplier"`
}

// NewPattern creates a Pattern with teacher-equivalent defaults.
func NewPattern() *Pattern {
	return &Pattern{
		Type:               "hourly",
		BaselinePopulation: 100,
		HourlyMultipliers:  make(map[int]float64),
		MinMultiplier:      0.1,
		MaxMultiplier:      10.0,
	}
}

func (p *Pattern) GetMultiplier(hour int) float64 {
	hour = normalizeHour(hour)
	mult, ok := p.HourlyMultipliers[hour]
	if !ok {
		return 1.0
	}
	return p.clampMultiplier(mult)
}

func (p *Pattern) GetTargetPopulation(hour int) int {
	mult := p.GetMultiplier(hour)
	n := float64(p.BaselinePopulation) * mult
	if n < 0 {
		return 0
	}
	return int(n)
}

func (p *Pattern) Validate() error {
	if p.Type != "hourly" && p.Type != "custom" {
		return fmt.Errorf("invalid pattern type: %s (must be 'hourly' or 'custom')", p.Type)
	}
	if p.BaselinePopulation <= 0 {
		return fmt.Errorf("baseline_population must be positive, got %d", p.BaselinePopulation)
	}
	if p.MinMultiplier < 0 {
		return fmt.Errorf("min_multiplier must be non-negative, got %f", p.MinMultiplier)
	}
	if p.MaxMultiplier <= 0 {
		return fmt.Errorf("max_multiplier must be positive, got %f", p.MaxMultiplier)
	}
	if p.MinMultiplier > p.MaxMultiplier {
		return fmt.Errorf("min_multiplier (%f) cannot exceed max_multiplier (%f)", p.MinMultiplier, p.MaxMultiplier)
	}
	for hour, mult := range p.HourlyMultipliers {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("invalid hour %d (must be 0-23)", hour)
		}
		if mult < 0 {
			return fmt.Errorf("multiplier for hour %d cannot be negative: %f", hour, mult)
		}
	}
	return nil
}

func (p *Pattern) SetDefaults() {
	if p.MinMultiplier == 0 {
		p.MinMultiplier = 0.1
	}
	if p.MaxMultiplier == 0 {
		p.MaxMultiplier = 10.0
	}
	if p.HourlyMultipliers == nil {
		p.HourlyMultipliers = make(map[int]float64)
	}
	if p.Type == "" {
		p.Type = "hourly"
	}
}

func (p *Pattern) clampMultiplier(mult float64) float64 {
	if mult < p.MinMultiplier {
		return p.MinMultiplier
	}
	if mult > p.MaxMultiplier {
		return p.MaxMultiplier
	}
	return mult
}

func normalizeHour(hour int) int {
	hour = hour % 24
	if hour < 0 {
		hour += 24
	}
	return hour
}

func (p *Pattern) Clone() *Pattern {
	clone := &Pattern{
		Type:               p.Type,
		BaselinePopulation: p.BaselinePopulation,
		MinMultiplier:      p.MinMultiplier,
		MaxMultiplier:      p.MaxMultiplier,
		HourlyMultipliers:  make(map[int]float64, len(p.HourlyMultipliers)),
	}
	for k, v := range p.HourlyMultipliers {
		clone.HourlyMultipliers[k] = v
	}
	return clone
}

// FromPattern adapts a Pattern into a Model, sampling the smoothed
// multiplier curve at the start of each period.
func FromPattern(p *Pattern) Model {
	return ModelFunc(func(start, end time.Time) (int, bool) {
		return p.GetTargetPopulationSmooth(start), true
	})
}
