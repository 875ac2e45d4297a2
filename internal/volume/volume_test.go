package volume

import (
	"testing"
	"time"
)

func TestConstant(t *testing.T) {
	m := Constant(5)
	n, ok := m.Required(time.Now(), time.Now())
	if !ok || n != 5 {
		t.Fatalf("expected (5, true), got (%d, %v)", n, ok)
	}
}

func TestStopped(t *testing.T) {
	m := Stopped()
	_, ok := m.Required(time.Now(), time.Now())
	if ok {
		t.Fatalf("expected stop signal")
	}
}

func TestBoundedStopsAtLimit(t *testing.T) {
	m := Bounded(Constant(3), 7)

	start := time.Now()
	total := 0
	for i := 0; i < 10; i++ {
		n, ok := m.Required(start, start)
		if !ok {
			break
		}
		total += n
	}
	if total != 7 {
		t.Fatalf("expected bounded model to cap cumulative total at 7, got %d", total)
	}

	if _, ok := m.Required(start, start); ok {
		t.Fatalf("expected stop signal once the limit is reached")
	}
}

func TestPresetsValidateAndClonAreIndependent(t *testing.T) {
	for _, name := range ListPresets() {
		p, err := PresetPattern(name)
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("preset %s failed validation: %v", name, err)
		}

		p.HourlyMultipliers[0] = 99
		p2, _ := PresetPattern(name)
		if p2.HourlyMultipliers[0] == 99 {
			t.Fatalf("preset %s: clone shares state with the original", name)
		}
	}
}

func TestGetMultiplierSmoothInterpolatesBetweenHours(t *testing.T) {
	p := NewPattern()
	p.HourlyMultipliers[9] = 1.0
	p.HourlyMultipliers[10] = 2.0

	mid := p.GetMultiplierAt(9, 30)
	if mid < 1.4 || mid > 1.6 {
		t.Fatalf("expected interpolated multiplier near 1.5 at 09:30, got %f", mid)
	}
}
