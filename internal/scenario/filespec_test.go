package scenario

import (
	"testing"

	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/journeycontext"
	"github.com/mite-go/loadgen/internal/registry"
)

func init() {
	registry.RegisterJourney("filespec_test_journey", func(ctx *journeycontext.Context, args []any) error { return nil })
	registry.RegisterDataPool("filespec_test_pool", func(args []string) (any, error) {
		return datapool.NewRecyclablePool(nil), nil
	})
}

func TestParseFileSpecYAMLSingleDocument(t *testing.T) {
	data := []byte(`
name: signup
journey: filespec_test_journey
volume:
  kind: constant
  n: 5
spawn_rate: 2.5
`)
	specs, err := ParseFileSpecYAML(data)
	if err != nil {
		t.Fatalf("ParseFileSpecYAML: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected one scenario, got %d", len(specs))
	}
	if specs[0].Journey != "filespec_test_journey" || specs[0].Volume.N != 5 {
		t.Errorf("unexpected parse result: %+v", specs[0])
	}
}

func TestParseFileSpecYAMLList(t *testing.T) {
	data := []byte(`
- name: a
  journey: filespec_test_journey
  volume: {kind: constant, n: 1}
- name: b
  journey: filespec_test_journey
  volume: {kind: ramp, from: 0, to: 10, over: 30s}
`)
	specs, err := ParseFileSpecYAML(data)
	if err != nil {
		t.Fatalf("ParseFileSpecYAML: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected two scenarios, got %d", len(specs))
	}
	if specs[1].Volume.Over.Seconds() != 30 {
		t.Errorf("expected a parsed 30s ramp duration, got %v", specs[1].Volume.Over)
	}
}

func TestValidateRejectsUnknownVolumeKind(t *testing.T) {
	s := &FileSpec{Journey: "x", Volume: VolumeSpec{Kind: "bogus"}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for an unknown volume kind")
	}
}

func TestValidateRejectsMissingJourney(t *testing.T) {
	s := &FileSpec{Volume: VolumeSpec{Kind: "constant", N: 1}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for a missing journey name")
	}
}

func TestResolveFailsOnUnregisteredJourney(t *testing.T) {
	s := &FileSpec{Journey: "does_not_exist", Volume: VolumeSpec{Kind: "constant", N: 1}}
	s.SetDefaults()
	if _, _, _, err := s.Resolve(nil); err == nil {
		t.Fatal("expected an error resolving an unregistered journey")
	}
}

func TestResolveFailsWhenOverridesNamedWithoutScheduler(t *testing.T) {
	s := &FileSpec{Journey: "filespec_test_journey", Volume: VolumeSpec{Kind: "constant", N: 1}, Overrides: []string{"morning_peak"}}
	if _, _, _, err := s.Resolve(nil); err == nil {
		t.Fatal("expected an error when overrides are named but no scheduler is supplied")
	}
}
