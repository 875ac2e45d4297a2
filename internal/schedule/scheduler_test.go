package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/mite-go/loadgen/internal/clock"
	"github.com/mite-go/loadgen/internal/volume"
)

type recordingListener struct {
	mu      sync.Mutex
	started []string
	ended   []string
}

func (l *recordingListener) OnOverrideStart(ao *ActiveOverride) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, ao.Override.Name)
}

func (l *recordingListener) OnOverrideEnd(ao *ActiveOverride) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended = append(l.ended, ao.Override.Name)
}

func TestAddOverrideRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(clock.NewRealClock())
	err := s.AddOverride(&Override{Name: "bad", Schedule: "not a cron", Duration: time.Minute, Enabled: true})
	if err == nil {
		t.Fatal("expected an error for an invalid cron schedule")
	}
}

func TestSchedulerActivatesOverrideMatchingCurrentMinute(t *testing.T) {
	now := time.Now().UTC()
	sched := &Override{
		Name:     "now",
		Schedule: cronForMinute(now),
		Duration: time.Hour,
		Enabled:  true,
	}

	s := NewScheduler(clock.NewRealClock())
	listener := &recordingListener{}
	s.AddListener(listener)
	if err := s.AddOverride(sched); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}

	s.ForceCheck()

	if !s.IsActive("now") {
		t.Error("expected the override matching the current minute to be active")
	}
	if len(listener.started) != 1 || listener.started[0] != "now" {
		t.Errorf("expected one start notification for 'now', got %+v", listener.started)
	}
}

func TestTriggerNowActivatesImmediatelyThenExpires(t *testing.T) {
	s := NewScheduler(clock.NewRealClock())
	listener := &recordingListener{}
	s.AddListener(listener)

	o := &Override{Name: "manual", Schedule: "0 0 1 1 *", Duration: 20 * time.Millisecond, Multiplier: 3.0, Enabled: true}
	if err := s.AddOverride(o); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}

	if !s.TriggerNow("manual") {
		t.Fatal("expected TriggerNow to activate the override")
	}
	if s.TriggerNow("manual") {
		t.Error("expected a second TriggerNow while already active to report false")
	}
	if got := s.Multiplier(1.0); got != 3.0 {
		t.Errorf("expected multiplier 3.0 while active, got %v", got)
	}

	time.Sleep(30 * time.Millisecond)
	s.ForceCheck()

	if s.IsActive("manual") {
		t.Error("expected the override to have expired")
	}
	if got := s.Multiplier(1.0); got != 1.0 {
		t.Errorf("expected base multiplier 1.0 once expired, got %v", got)
	}
	if len(listener.ended) != 1 || listener.ended[0] != "manual" {
		t.Errorf("expected one end notification for 'manual', got %+v", listener.ended)
	}
}

func TestMultiplierPrefersHighestPriorityActiveOverride(t *testing.T) {
	s := NewScheduler(clock.NewRealClock())
	low := &Override{Name: "low", Schedule: "0 0 1 1 *", Duration: time.Hour, Multiplier: 1.5, Priority: 10, Enabled: true}
	high := &Override{Name: "high", Schedule: "0 0 1 1 *", Duration: time.Hour, Multiplier: 4.0, Priority: 90, Enabled: true}
	if err := s.AddOverride(low); err != nil {
		t.Fatalf("AddOverride(low): %v", err)
	}
	if err := s.AddOverride(high); err != nil {
		t.Fatalf("AddOverride(high): %v", err)
	}

	s.TriggerNow("low")
	s.TriggerNow("high")

	if got := s.Multiplier(1.0); got != 4.0 {
		t.Errorf("expected the higher-priority override's multiplier 4.0, got %v", got)
	}
}

func TestScaledAppliesActiveMultiplierToBaseModel(t *testing.T) {
	s := NewScheduler(clock.NewRealClock())
	o := &Override{Name: "double", Schedule: "0 0 1 1 *", Duration: time.Hour, Multiplier: 2.0, Enabled: true}
	if err := s.AddOverride(o); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}

	base := volume.Constant(10)
	scaled := Scaled(base, s)

	n, ok := scaled.Required(time.Now(), time.Now().Add(time.Second))
	if !ok || n != 10 {
		t.Fatalf("expected base required=10 before activation, got %d ok=%v", n, ok)
	}

	s.TriggerNow("double")

	n, ok = scaled.Required(time.Now(), time.Now().Add(time.Second))
	if !ok || n != 20 {
		t.Errorf("expected scaled required=20 once active, got %d ok=%v", n, ok)
	}
}

func TestRemoveOverrideEndsItImmediately(t *testing.T) {
	s := NewScheduler(clock.NewRealClock())
	listener := &recordingListener{}
	s.AddListener(listener)

	o := &Override{Name: "gone", Schedule: "0 0 1 1 *", Duration: time.Hour, Enabled: true}
	if err := s.AddOverride(o); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}
	s.TriggerNow("gone")

	s.RemoveOverride("gone")

	if s.IsActive("gone") {
		t.Error("expected the override to be inactive after removal")
	}
	if len(listener.ended) != 1 || listener.ended[0] != "gone" {
		t.Errorf("expected removal to notify listeners of the end, got %+v", listener.ended)
	}
}

// cronForMinute builds a cron expression matching t's minute and hour on
// any day, so a freshly added override is immediately active.
func cronForMinute(t time.Time) string {
	return timeField(t.Minute()) + " " + timeField(t.Hour()) + " * * *"
}

func timeField(n int) string {
	digits := "0123456789"
	if n < 10 {
		return string(digits[n])
	}
	return string(digits[n/10]) + string(digits[n%10])
}
