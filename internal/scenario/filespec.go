package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/registry"
	"github.com/mite-go/loadgen/internal/schedule"
	"github.com/mite-go/loadgen/internal/volume"
	"gopkg.in/yaml.v3"
)

// FileSpec is the YAML document shape for one scenario, the config-object
// this package loads instead of keeping a copy of the teacher's
// internal/profile.SimulationProfile: a journey name, an optional data pool,
// a volume model, and the scheduling knobs the cmd/loadgen "scenario test"
// and "controller" subcommands need to hand a scenario to a scenario.Manager.
type FileSpec struct {
	Name        string        `yaml:"name"`
	Journey     string        `yaml:"journey"`
	Pool        *PoolSpec     `yaml:"pool,omitempty"`
	Volume      VolumeSpec    `yaml:"volume"`
	StartDelay  time.Duration `yaml:"-"`
	StartDelayS string        `yaml:"start_delay,omitempty"`
	SpawnRate   float64       `yaml:"spawn_rate,omitempty"`
	Overrides   []string      `yaml:"overrides,omitempty"`
}

// PoolSpec names a data pool factory registered under internal/registry and
// the string arguments it is built from, the same shape a CLI flag would
// pass through.
type PoolSpec struct {
	Kind string   `yaml:"kind"`
	Args []string `yaml:"args,omitempty"`
}

// VolumeSpec describes a volume.Model declaratively. Kind selects which of
// the other fields are meaningful, as noted on each.
type VolumeSpec struct {
	Kind string `yaml:"kind"` // constant | ramp | bounded | preset

	N int `yaml:"n,omitempty"` // constant, bounded's inner constant

	From   int    `yaml:"from,omitempty"`   // ramp
	To     int    `yaml:"to,omitempty"`     // ramp
	OverS  string `yaml:"over,omitempty"`   // ramp, duration string e.g. "5m"
	Over   time.Duration `yaml:"-"`

	Limit int `yaml:"limit,omitempty"` // bounded

	Preset string `yaml:"preset,omitempty"` // preset
}

// SetDefaults fills in the teacher-equivalent defaults for fields a scenario
// file is allowed to omit.
func (s *FileSpec) SetDefaults() {
	if s.Volume.Kind == "" {
		s.Volume.Kind = "constant"
	}
}

// Validate checks a FileSpec's shape without touching the registry, so it
// can run before a journey or pool kind has necessarily been registered.
func (s *FileSpec) Validate() error {
	if s.Journey == "" {
		return fmt.Errorf("scenario: journey is required")
	}
	if s.SpawnRate < 0 {
		return fmt.Errorf("scenario: spawn_rate must be non-negative, got %v", s.SpawnRate)
	}
	if s.StartDelayS != "" {
		d, err := time.ParseDuration(s.StartDelayS)
		if err != nil {
			return fmt.Errorf("scenario: invalid start_delay %q: %w", s.StartDelayS, err)
		}
		s.StartDelay = d
	}
	return s.Volume.validate()
}

func (v *VolumeSpec) validate() error {
	switch v.Kind {
	case "constant":
		if v.N <= 0 {
			return fmt.Errorf("scenario: volume.n must be positive for kind=constant")
		}
	case "ramp":
		if v.OverS == "" {
			return fmt.Errorf("scenario: volume.over is required for kind=ramp")
		}
		d, err := time.ParseDuration(v.OverS)
		if err != nil {
			return fmt.Errorf("scenario: invalid volume.over %q: %w", v.OverS, err)
		}
		v.Over = d
	case "bounded":
		if v.N <= 0 {
			return fmt.Errorf("scenario: volume.n must be positive for kind=bounded")
		}
		if v.Limit <= 0 {
			return fmt.Errorf("scenario: volume.limit must be positive for kind=bounded")
		}
	case "preset":
		if v.Preset == "" {
			return fmt.Errorf("scenario: volume.preset name is required for kind=preset")
		}
	case "":
		return fmt.Errorf("scenario: volume.kind is required")
	default:
		return fmt.Errorf("scenario: unknown volume.kind %q (want constant, ramp, bounded, or preset)", v.Kind)
	}
	return nil
}

// Build resolves a VolumeSpec into a volume.Model.
func (v VolumeSpec) Build() (volume.Model, error) {
	switch v.Kind {
	case "constant":
		return volume.Constant(v.N), nil
	case "ramp":
		return volume.Ramp(v.From, v.To, v.Over), nil
	case "bounded":
		return volume.Bounded(volume.Constant(v.N), v.Limit), nil
	case "preset":
		return volume.Preset(v.Preset)
	default:
		return nil, fmt.Errorf("scenario: unknown volume.kind %q", v.Kind)
	}
}

// ParseFileSpecYAML parses one or more scenario definitions from YAML data.
// A document is either a single mapping or a list of mappings.
func ParseFileSpecYAML(data []byte) ([]*FileSpec, error) {
	var list []*FileSpec
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return finishFileSpecs(list)
	}

	var single FileSpec
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("scenario: parsing scenario file: %w", err)
	}
	return finishFileSpecs([]*FileSpec{&single})
}

func finishFileSpecs(specs []*FileSpec) ([]*FileSpec, error) {
	for i, s := range specs {
		s.SetDefaults()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario: entry %d (%s): %w", i, s.Name, err)
		}
	}
	return specs, nil
}

// ParseFileSpecFile reads and parses a scenario file from disk.
func ParseFileSpecFile(path string) ([]*FileSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	return ParseFileSpecYAML(data)
}

// Resolve builds the data pool (if any) and volume model a FileSpec
// describes, looking up the journey name and pool kind in registry, and
// returns everything scenario.Manager.AddScenario needs except the Manager
// and the current time. Overrides named in the spec are looked up as
// schedule presets and, if sched is non-nil, registered on it so the
// resulting model can be wrapped with schedule.Scaled by the caller.
func (s *FileSpec) Resolve(sched *schedule.Scheduler) (journeyName string, pool datapool.DataPool, model volume.Model, err error) {
	if _, ok := registry.LookupJourney(s.Journey); !ok {
		return "", nil, nil, registry.ErrUnknownJourney(s.Journey)
	}

	if s.Pool != nil {
		factory, ok := registry.LookupDataPool(s.Pool.Kind)
		if !ok {
			return "", nil, nil, fmt.Errorf("scenario: no data pool kind registered under %q", s.Pool.Kind)
		}
		built, buildErr := factory(s.Pool.Args)
		if buildErr != nil {
			return "", nil, nil, fmt.Errorf("scenario: building pool %q: %w", s.Pool.Kind, buildErr)
		}
		dp, ok := built.(datapool.DataPool)
		if !ok {
			return "", nil, nil, fmt.Errorf("scenario: pool kind %q did not produce a datapool.DataPool", s.Pool.Kind)
		}
		pool = dp
	}

	model, err = s.Volume.Build()
	if err != nil {
		return "", nil, nil, err
	}

	if len(s.Overrides) > 0 {
		if sched == nil {
			return "", nil, nil, fmt.Errorf("scenario: overrides named but no scheduler is running")
		}
		for _, name := range s.Overrides {
			preset, ok := schedule.Preset(name)
			if !ok {
				return "", nil, nil, fmt.Errorf("scenario: unknown override preset %q", name)
			}
			if err := sched.AddOverride(preset); err != nil {
				return "", nil, nil, fmt.Errorf("scenario: registering override %q: %w", name, err)
			}
		}
		model = schedule.Scaled(model, sched)
	}

	return s.Journey, pool, model, nil
}
