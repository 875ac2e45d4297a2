package volume

import "fmt"

// Preset population curves, kept from the teacher's internal/pattern
// presets with BaselineQPS renamed to BaselinePopulation.
var (
	// ProductionDayPattern simulates typical office hours (9-18) load.
	ProductionDayPattern = &Pattern{
		Type: "hourly", BaselinePopulation: 100, MinMultiplier: 0.1, MaxMultiplier: 10.0,
		HourlyMultipliers: map[int]float64{
			0: 0.2, 1: 0.15, 2: 0.1, 3: 0.1, 4: 0.1, 5: 0.15,
			6: 0.3, 7: 0.5, 8: 0.8, 9: 1.2, 10: 1.5, 11: 1.4,
			12: 1.0, 13: 1.1, 14: 1.5, 15: 1.4, 16: 1.3, 17: 1.2,
			18: 0.8, 19: 0.5, 20: 0.4, 21: 0.3, 22: 0.25, 23: 0.2,
		},
	}

	// EcommercePattern peaks in evening hours.
	EcommercePattern = &Pattern{
		Type: "hourly", BaselinePopulation: 100, MinMultiplier: 0.1, MaxMultiplier: 10.0,
		HourlyMultipliers: map[int]float64{
			0: 0.3, 1: 0.2, 2: 0.15, 3: 0.1, 4: 0.1, 5: 0.15,
			6: 0.25, 7: 0.4, 8: 0.5, 9: 0.6, 10: 0.7, 11: 0.8,
			12: 1.0, 13: 0.9, 14: 0.8, 15: 0.9, 16: 1.0, 17: 1.2,
			18: 1.5, 19: 1.8, 20: 2.0, 21: 1.8, 22: 1.2, 23: 0.6,
		},
	}

	// UniformPattern has constant load throughout the day.
	UniformPattern = &Pattern{
		Type: "hourly", BaselinePopulation: 100, MinMultiplier: 0.1, MaxMultiplier: 10.0,
		HourlyMultipliers: map[int]float64{
			0: 1.0, 1: 1.0, 2: 1.0, 3: 1.0, 4: 1.0, 5: 1.0,
			6: 1.0, 7: 1.0, 8: 1.0, 9: 1.0, 10: 1.0, 11: 1.0,
			12: 1.0, 13: 1.0, 14: 1.0, 15: 1.0, 16: 1.0, 17: 1.0,
			18: 1.0, 19: 1.0, 20: 1.0, 21: 1.0, 22: 1.0, 23: 1.0,
		},
	}

	// BatchProcessingPattern simulates overnight batch jobs.
	BatchProcessingPattern = &Pattern{
		Type: "hourly", BaselinePopulation: 100, MinMultiplier: 0.1, MaxMultiplier: 10.0,
		HourlyMultipliers: map[int]float64{
			0: 2.0, 1: 2.5, 2: 2.5, 3: 2.0, 4: 1.5, 5: 1.0,
			6: 0.5, 7: 0.2, 8: 0.15, 9: 0.1, 10: 0.1, 11: 0.1,
			12: 0.1, 13: 0.1, 14: 0.1, 15: 0.1, 16: 0.1, 17: 0.15,
			18: 0.2, 19: 0.3, 20: 0.5, 21: 0.8, 22: 1.2, 23: 1.5,
		},
	}

	// WeekendPattern simulates weekend traffic.
	WeekendPattern = &Pattern{
		Type: "hourly", BaselinePopulation: 100, MinMultiplier: 0.1, MaxMultiplier: 10.0,
		HourlyMultipliers: map[int]float64{
			0: 0.2, 1: 0.15, 2: 0.1, 3: 0.1, 4: 0.1, 5: 0.1,
			6: 0.15, 7: 0.2, 8: 0.3, 9: 0.4, 10: 0.5, 11: 0.6,
			12: 0.7, 13: 0.6, 14: 0.5, 15: 0.5, 16: 0.6, 17: 0.7,
			18: 0.8, 19: 0.9, 20: 0.8, 21: 0.6, 22: 0.4, 23: 0.3,
		},
	}
)

var presetPatterns = map[string]*Pattern{
	"production":       ProductionDayPattern,
	"production_day":   ProductionDayPattern,
	"office":           ProductionDayPattern,
	"ecommerce":        EcommercePattern,
	"retail":           EcommercePattern,
	"uniform":          UniformPattern,
	"constant":         UniformPattern,
	"flat":             UniformPattern,
	"batch":            BatchProcessingPattern,
	"batch_processing": BatchProcessingPattern,
	"night":            BatchProcessingPattern,
	"weekend":          WeekendPattern,
}

// PresetPattern returns a clone of a predefined curve by name.
func PresetPattern(name string) (*Pattern, error) {
	p, ok := presetPatterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset pattern: %s (available: %v)", name, ListPresets())
	}
	return p.Clone(), nil
}

// Preset returns the corresponding volume.Model for a predefined curve.
func Preset(name string) (Model, error) {
	p, err := PresetPattern(name)
	if err != nil {
		return nil, err
	}
	return FromPattern(p), nil
}

// ListPresets returns all available preset names.
func ListPresets() []string {
	return []string{"production", "ecommerce", "uniform", "batch", "weekend"}
}

// PresetDescription describes a preset pattern.
func PresetDescription(name string) string {
	descriptions := map[string]string{
		"production": "Office hours load (9-18 peak)",
		"ecommerce":  "E-commerce pattern (evening peak 19-21)",
		"uniform":    "Constant load throughout the day",
		"batch":      "Overnight batch processing (1-3 AM peak)",
		"weekend":    "Weekend traffic (lower overall, evening peak)",
	}
	if desc, ok := descriptions[name]; ok {
		return desc
	}
	return "Unknown preset"
}
