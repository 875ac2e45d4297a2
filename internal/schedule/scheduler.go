package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mite-go/loadgen/internal/clock"
)

// Listener receives notifications about an override's state changes.
// internal/telemetry.BusServer's fan-out shape (internal/telemetry/bus.go's
// Listener/BusServer) generalizes this same pattern to telemetry frames.
type Listener interface {
	OnOverrideStart(ao *ActiveOverride)
	OnOverrideEnd(ao *ActiveOverride)
}

// Scheduler evaluates a set of cron-scheduled Overrides once a minute and
// tracks which are currently active, exposing their combined effect as a
// single multiplier.
type Scheduler struct {
	clock       clock.Clock
	overrides   []*Override
	active      []*ActiveOverride
	listeners   []Listener
	parsedCrons map[string]*CronExpr

	mu      sync.RWMutex
	done    chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// NewScheduler builds a Scheduler driven by clk.
func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Scheduler{
		clock:       clk,
		parsedCrons: make(map[string]*CronExpr),
		done:        make(chan struct{}),
	}
}

// AddOverride registers or replaces an override by name.
func (s *Scheduler) AddOverride(o *Override) error {
	if err := o.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.overrides {
		if existing.Name == o.Name {
			*existing = *o
			delete(s.parsedCrons, o.Name)
			return nil
		}
	}

	cron, err := ParseCron(o.Schedule)
	if err != nil {
		return err
	}
	s.parsedCrons[o.Name] = cron
	s.overrides = append(s.overrides, o.Copy())
	return nil
}

// RemoveOverride removes a registered override, ending it immediately if
// active.
func (s *Scheduler) RemoveOverride(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.overrides {
		if o.Name == name {
			s.overrides = append(s.overrides[:i], s.overrides[i+1:]...)
			break
		}
	}

	for i, ao := range s.active {
		if ao.Override.Name == name {
			for _, l := range s.listeners {
				l.OnOverrideEnd(ao)
			}
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}

	delete(s.parsedCrons, name)
}

// AddListener registers a Listener for override start/end transitions.
func (s *Scheduler) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start begins the background loop that checks overrides once a minute.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop signals the background loop to exit and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.Ticker(time.Minute)
	defer ticker.Stop()

	s.check()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

func (s *Scheduler) check() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	var stillActive []*ActiveOverride
	for _, ao := range s.active {
		if now.After(ao.EndTime) || now.Equal(ao.EndTime) {
			for _, l := range s.listeners {
				l.OnOverrideEnd(ao)
			}
		} else {
			stillActive = append(stillActive, ao)
		}
	}
	s.active = stillActive

	for _, o := range s.overrides {
		if !o.Enabled || s.isActiveLocked(o.Name) {
			continue
		}

		cron := s.parsedCrons[o.Name]
		if cron == nil {
			var err error
			cron, err = ParseCron(o.Schedule)
			if err != nil {
				continue
			}
			s.parsedCrons[o.Name] = cron
		}

		if cron.Matches(now) {
			ao := &ActiveOverride{Override: o.Copy(), StartTime: now, EndTime: now.Add(o.Duration)}
			s.active = append(s.active, ao)
			for _, l := range s.listeners {
				l.OnOverrideStart(ao)
			}
		}
	}

	sort.Slice(s.active, func(i, j int) bool {
		return s.active[i].Override.Priority > s.active[j].Override.Priority
	})
}

func (s *Scheduler) isActiveLocked(name string) bool {
	for _, ao := range s.active {
		if ao.Override.Name == name {
			return true
		}
	}
	return false
}

// IsActive reports whether the named override is currently active.
func (s *Scheduler) IsActive(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isActiveLocked(name)
}

// ActiveOverrides returns a copy of every currently active override, highest
// priority first.
func (s *Scheduler) ActiveOverrides() []*ActiveOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ActiveOverride, len(s.active))
	for i, ao := range s.active {
		cp := *ao
		cp.Override = ao.Override.Copy()
		result[i] = &cp
	}
	return result
}

// Multiplier returns the effective multiplier: the multiplier of the
// highest-priority active override whose multiplier is positive, or base
// when there is none. Active overrides with a zero multiplier are skipped.
func (s *Scheduler) Multiplier(base float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ao := range s.active {
		if ao.Override.Multiplier > 0 {
			return ao.Override.Multiplier
		}
	}
	return base
}

// TriggerNow activates the named override immediately, ignoring its
// schedule, for operator-initiated overrides outside the cron calendar.
func (s *Scheduler) TriggerNow(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var o *Override
	for _, candidate := range s.overrides {
		if candidate.Name == name {
			o = candidate
			break
		}
	}
	if o == nil || s.isActiveLocked(name) {
		return false
	}

	now := s.clock.Now()
	ao := &ActiveOverride{Override: o.Copy(), StartTime: now, EndTime: now.Add(o.Duration)}
	s.active = append(s.active, ao)
	sort.Slice(s.active, func(i, j int) bool {
		return s.active[i].Override.Priority > s.active[j].Override.Priority
	})
	for _, l := range s.listeners {
		l.OnOverrideStart(ao)
	}
	return true
}

// ForceCheck runs one override-evaluation pass immediately, useful in tests.
func (s *Scheduler) ForceCheck() {
	s.check()
}
