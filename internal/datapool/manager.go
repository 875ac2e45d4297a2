package datapool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Manager owns every registered data pool by an opaque id, grounded on
// original_source/mite/datapools.py's DataPoolManager. The controller is the
// only component that holds a Manager. scenario.Manager does not call
// through it: each Scenario holds its DataPool value and checks items out
// of it directly.
type Manager struct {
	mu     sync.RWMutex
	nextID atomic.Uint64
	pools  map[uint64]DataPool
}

// NewManager builds an empty pool manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[uint64]DataPool)}
}

// Register adds pool and returns the id it was assigned.
func (m *Manager) Register(pool DataPool) uint64 {
	id := m.nextID.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[id] = pool
	return id
}

// Checkout delegates to the pool registered under id.
func (m *Manager) Checkout(ctx context.Context, id uint64) (Item, bool, error) {
	m.mu.RLock()
	pool, ok := m.pools[id]
	m.mu.RUnlock()
	if !ok {
		return Item{}, false, Exhausted
	}
	return pool.Checkout(ctx)
}

// Checkin delegates to the pool registered under poolID for itemID.
func (m *Manager) Checkin(poolID, itemID uint64) {
	m.mu.RLock()
	pool, ok := m.pools[poolID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	pool.Checkin(itemID)
}

// Remove drops a pool from the manager, e.g. once its owning scenario has
// been retired after exhaustion.
func (m *Manager) Remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pools, id)
}
