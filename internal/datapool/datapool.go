// Package datapool implements the recyclable and iterable data pools a
// scenario checks arguments out of, grounded on
// _examples/original_source/mite/datapools.py.
package datapool

import (
	"context"
	"errors"
)

// Exhausted is returned by Checkout once an iterable pool has yielded its
// last item. A recyclable pool never returns it on its own; it can only be
// driven to exhaustion by an explicit Exhaust() call (e.g. an operator
// action or a test), matching the data model's "never exhausts unless
// exhaustion is externally signaled" invariant.
var Exhausted = errors.New("datapool: exhausted")

// Item is one checked-out unit: a unique id plus the argument tuple a
// journey receives.
type Item struct {
	ID   uint64
	Args []any
}

// DataPool hands out items to in-flight grants and reclaims them when a
// grant completes (for recyclable pools) or ignores the reclaim (for
// iterable pools).
type DataPool interface {
	// Checkout returns one item, or (zero, false, nil) if nothing is
	// available right now (a recyclable pool with every item currently
	// checked out), or (zero, false, Exhausted) once the pool can never
	// produce another item.
	Checkout(ctx context.Context) (Item, bool, error)

	// Checkin returns an item previously checked out under id. Safe to
	// call on an id the pool does not recognize; it is then a no-op.
	Checkin(id uint64)

	// Size reports the pool's total population and whether that count is
	// meaningful (false for an unbounded/streaming iterable pool).
	Size() (int, bool)
}

// Factory builds a DataPool from string arguments, the same shape the CLI
// and scenario files pass through. internal/registry does not use this
// type: its factories are registry.PoolFactory values (returning any),
// registered by internal/builtin.
type Factory func(args []string) (DataPool, error)
