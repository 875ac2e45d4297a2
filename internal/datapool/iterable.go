package datapool

import (
	"context"
	"sync"
	"sync/atomic"
)

// NextFunc produces the next argument tuple for an iterable pool, returning
// ok=false once the underlying sequence is exhausted. Implementations need
// not be safe for concurrent use: IterablePool serializes calls to it with
// its own mutex.
type NextFunc func() (args []any, ok bool)

// IterablePool yields each item exactly once and never recycles it; Checkin
// is a no-op. Grounded on original_source/mite/datapools.py's
// IterableDataPool, whose checkin is likewise a no-op and whose checkout
// raises DataPoolExhausted once the wrapped iterator is spent.
type IterablePool struct {
	mu        sync.Mutex
	next      NextFunc
	nextID    atomic.Uint64
	exhausted bool
}

// NewIterablePool wraps next as a one-shot data pool.
func NewIterablePool(next NextFunc) *IterablePool {
	return &IterablePool{next: next}
}

func (p *IterablePool) Checkout(ctx context.Context) (Item, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted {
		return Item{}, false, Exhausted
	}

	args, ok := p.next()
	if !ok {
		p.exhausted = true
		return Item{}, false, Exhausted
	}

	id := p.nextID.Add(1)
	return Item{ID: id, Args: args}, true, nil
}

func (p *IterablePool) Checkin(id uint64) {
	// One-shot pools never return an item to circulation.
}

func (p *IterablePool) Size() (int, bool) {
	return 0, false
}

// FromSlice builds an IterablePool that yields each element of argSets once,
// in order.
func FromSlice(argSets [][]any) *IterablePool {
	idx := 0
	return NewIterablePool(func() ([]any, bool) {
		if idx >= len(argSets) {
			return nil, false
		}
		item := argSets[idx]
		idx++
		return item, true
	})
}
