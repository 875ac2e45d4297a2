package datapool

import (
	"context"
	"sync"
)

// RecyclablePool holds a fixed population of items. Checked-out items are
// unavailable to other callers until Checkin returns them; a checkout while
// every item is held returns (zero, false, nil) rather than blocking or
// erroring, matching the at-most-one-holder invariant.
//
// Grounded on original_source/mite/datapools.py's RecyclableIterableDataPool
// (a deque of available items plus a dict of checked-out items), translated
// to a slice-backed FIFO queue guarded by a mutex.
type RecyclablePool struct {
	mu         sync.Mutex
	available  []Item
	checkedOut map[uint64]Item
	exhausted  bool
}

// NewRecyclablePool builds a pool whose population is the given arg tuples,
// assigned sequential ids starting at 1.
func NewRecyclablePool(argSets [][]any) *RecyclablePool {
	p := &RecyclablePool{
		checkedOut: make(map[uint64]Item, len(argSets)),
	}
	p.available = make([]Item, 0, len(argSets))
	for i, args := range argSets {
		p.available = append(p.available, Item{ID: uint64(i + 1), Args: args})
	}
	return p
}

func (p *RecyclablePool) Checkout(ctx context.Context) (Item, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted {
		return Item{}, false, Exhausted
	}
	if len(p.available) == 0 {
		return Item{}, false, nil
	}

	item := p.available[0]
	p.available = p.available[1:]
	p.checkedOut[item.ID] = item
	return item, true, nil
}

func (p *RecyclablePool) Checkin(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item, ok := p.checkedOut[id]
	if !ok {
		return
	}
	delete(p.checkedOut, id)
	if !p.exhausted {
		p.available = append(p.available, item)
	}
}

func (p *RecyclablePool) Size() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available) + len(p.checkedOut), true
}

// Exhaust permanently drains the pool: any item currently checked out is
// allowed to finish, but no further item will ever be available again.
func (p *RecyclablePool) Exhaust() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exhausted = true
	p.available = nil
}
