package volume

import "time"

// GetMultiplierSmooth linearly interpolates between the current hour's
// multiplier and the next hour's, kept from the teacher's
// pattern.LoadPattern.GetMultiplierSmooth.
func (p *Pattern) GetMultiplierSmooth(t time.Time) float64 {
	hour := t.Hour()
	minute := t.Minute()
	second := t.Second()

	secondsIntoHour := float64(minute*60 + second)
	fraction := secondsIntoHour / 3600.0

	currentMult := p.GetMultiplier(hour)
	nextMult := p.GetMultiplier((hour + 1) % 24)

	interpolated := currentMult + fraction*(nextMult-currentMult)
	return p.clampMultiplier(interpolated)
}

// GetTargetPopulationSmooth returns the interpolated target population for
// a given time.
func (p *Pattern) GetTargetPopulationSmooth(t time.Time) int {
	mult := p.GetMultiplierSmooth(t)
	n := float64(p.BaselinePopulation) * mult
	if n < 0 {
		return 0
	}
	return int(n)
}

// GetMultiplierAt is a test convenience wrapping GetMultiplierSmooth.
func (p *Pattern) GetMultiplierAt(hour, minute int) float64 {
	t := time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
	return p.GetMultiplierSmooth(t)
}

// TimeMultiplier pairs a sampled time with its interpolated multiplier and
// target population.
type TimeMultiplier struct {
	Time       time.Time
	Hour       int
	Minute     int
	Multiplier float64
	Population int
}

// InterpolatedMultipliers samples the 24-hour curve at the given
// resolution.
func (p *Pattern) InterpolatedMultipliers(resolution time.Duration) []TimeMultiplier {
	if resolution < time.Minute {
		resolution = time.Minute
	}
	steps := int((24 * time.Hour) / resolution)
	result := make([]TimeMultiplier, 0, steps)
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < steps; i++ {
		t := baseTime.Add(time.Duration(i) * resolution)
		result = append(result, TimeMultiplier{
			Time:       t,
			Hour:       t.Hour(),
			Minute:     t.Minute(),
			Multiplier: p.GetMultiplierSmooth(t),
			Population: p.GetTargetPopulationSmooth(t),
		})
	}
	return result
}
