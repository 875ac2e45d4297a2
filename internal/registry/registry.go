// Package registry provides process-wide name-to-implementation lookup for
// journeys and data pool factories. A test binary registers its journeys and
// pool factories at startup; the controller and runner only ever exchange the
// registered string name over the wire, never code.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mite-go/loadgen/internal/journeycontext"
)

// JourneyFunc is the signature every registered journey must implement.
// args is the slice produced by a data pool's checkout for this grant, or
// nil if the scenario has no data pool.
type JourneyFunc func(ctx *journeycontext.Context, args []any) error

// PoolFactory builds a data pool from a set of string arguments taken from
// the command line or a scenario file.
type PoolFactory func(args []string) (any, error)

var (
	mu        sync.RWMutex
	journeys  = map[string]JourneyFunc{}
	poolKinds = map[string]PoolFactory{}
)

// RegisterJourney adds a journey under name. Re-registering the same name
// overwrites the previous entry, which is convenient for tests that swap in
// a fake journey.
func RegisterJourney(name string, fn JourneyFunc) {
	mu.Lock()
	defer mu.Unlock()
	journeys[name] = fn
}

// LookupJourney returns the journey registered under name.
func LookupJourney(name string) (JourneyFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := journeys[name]
	return fn, ok
}

// RegisterDataPool adds a data pool factory under kind (e.g. "recyclable",
// "iterable_range", "sql").
func RegisterDataPool(kind string, factory PoolFactory) {
	mu.Lock()
	defer mu.Unlock()
	poolKinds[kind] = factory
}

// LookupDataPool returns the data pool factory registered under kind.
func LookupDataPool(kind string) (PoolFactory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := poolKinds[kind]
	return factory, ok
}

// JourneyNames returns the sorted list of registered journey names, mostly
// useful for CLI help text and error messages.
func JourneyNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(journeys))
	for n := range journeys {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ErrUnknownJourney is returned by callers that resolve a journey name and
// find nothing registered.
func ErrUnknownJourney(name string) error {
	return fmt.Errorf("no journey registered under name %q (known: %v)", name, JourneyNames())
}
