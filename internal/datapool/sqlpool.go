package datapool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLPool streams argument tuples from a Postgres query, one row per
// checkout, and exhausts once the result set is consumed. It is iterable,
// not recyclable: checkin is a no-op, matching the semantics of a query
// that can only be iterated forward.
//
// This is the domain stack's home for github.com/jackc/pgx/v5, kept from the
// teacher's internal/database.Pool and repurposed from "the workload
// target" into a data source feeding journey arguments, e.g. pulling a
// stream of existing account ids for a journey to exercise.
type SQLPool struct {
	mu        sync.Mutex
	rows      pgx.Rows
	nextID    atomic.Uint64
	exhausted bool
	closeOnce sync.Once
}

// NewSQLPool runs query against pool and returns a pool that streams each
// result row, taken whole as a []any via rows.Values(), as one checkout
// item. cols is accepted but not used; a row's arity is whatever the query
// returns.
func NewSQLPool(ctx context.Context, pool *pgxpool.Pool, query string, cols int, args ...any) (*SQLPool, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("datapool: running sql pool query: %w", err)
	}
	return &SQLPool{rows: rows}, nil
}

func (p *SQLPool) Checkout(ctx context.Context) (Item, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted {
		return Item{}, false, Exhausted
	}

	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			p.exhaustLocked()
			return Item{}, false, fmt.Errorf("datapool: sql pool rows: %w", err)
		}
		p.exhaustLocked()
		return Item{}, false, Exhausted
	}

	values, err := p.rows.Values()
	if err != nil {
		p.exhaustLocked()
		return Item{}, false, fmt.Errorf("datapool: sql pool scanning row: %w", err)
	}

	id := p.nextID.Add(1)
	return Item{ID: id, Args: values}, true, nil
}

func (p *SQLPool) exhaustLocked() {
	p.exhausted = true
	p.closeOnce.Do(p.rows.Close)
}

func (p *SQLPool) Checkin(id uint64) {
	// Result rows are never recycled.
}

func (p *SQLPool) Size() (int, bool) {
	return 0, false
}

// Close releases the underlying rows if the pool was abandoned before being
// driven to exhaustion.
func (p *SQLPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeOnce.Do(p.rows.Close)
}
