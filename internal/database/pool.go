// Package database wraps pgxpool.Pool for the one remaining consumer in
// this module: internal/datapool.SQLPool, which streams data-pool
// argument tuples from Postgres. The teacher's DatabaseConfig-specific
// knobs (host/port/user/dbname as distinct fields feeding a workload
// target) are trimmed since nothing here connects to a benchmarking
// target; callers supply a plain connection string instead.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool with pool-level settings and helper methods.
type Pool struct {
	pool *pgxpool.Pool
}

// PoolConfig holds pool-specific settings.
type PoolConfig struct {
	MinConns          int32
	MaxConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolConfig returns sensible default pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinConns:          2,
		MaxConns:          10,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// NewPool creates a new database connection pool for connStr.
func NewPool(ctx context.Context, connStr string) (*Pool, error) {
	return NewPoolWithConfig(ctx, connStr, DefaultPoolConfig())
}

// NewPoolWithConfig creates a new database connection pool with custom
// pool settings.
func NewPoolWithConfig(ctx context.Context, connStr string, poolCfg PoolConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MinConns = poolCfg.MinConns
	poolConfig.MaxConns = poolCfg.MaxConns
	poolConfig.MaxConnLifetime = poolCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = poolCfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Close closes all connections in the pool.
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// HealthCheck verifies the database connection is healthy.
func (p *Pool) HealthCheck(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if err := conn.Conn().Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

// Pool returns the underlying pgxpool.Pool.
func (p *Pool) Pool() *pgxpool.Pool {
	return p.pool
}
