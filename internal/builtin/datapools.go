package builtin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mite-go/loadgen/internal/database"
	"github.com/mite-go/loadgen/internal/datapool"
	"github.com/mite-go/loadgen/internal/registry"
)

func init() {
	registry.RegisterDataPool("recyclable", newRecyclablePoolFromArgs)
	registry.RegisterDataPool("iterable_range", newIterableRangePoolFromArgs)
	registry.RegisterDataPool("sql", newSQLPoolFromArgs)
}

// newRecyclablePoolFromArgs builds a RecyclablePool whose population is one
// single-string argument tuple per element of args, e.g. a scenario file's
// `pool: {kind: recyclable, args: [alice, bob, carol]}` checks out
// ["alice"], ["bob"], ["carol"] and recycles them once checked back in.
func newRecyclablePoolFromArgs(args []string) (any, error) {
	argSets := make([][]any, len(args))
	for i, a := range args {
		argSets[i] = []any{a}
	}
	return datapool.NewRecyclablePool(argSets), nil
}

// newIterableRangePoolFromArgs builds an IterablePool that yields
// [start, start+step, start+2*step, ...) up to (not including) end, each
// exactly once. args are "start", "end", and an optional "step" (default 1).
func newIterableRangePoolFromArgs(args []string) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("iterable_range: expected at least 2 args (start, end), got %d", len(args))
	}
	start, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("iterable_range: parsing start: %w", err)
	}
	end, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("iterable_range: parsing end: %w", err)
	}
	step := 1
	if len(args) > 2 {
		step, err = strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("iterable_range: parsing step: %w", err)
		}
	}
	if step <= 0 {
		return nil, fmt.Errorf("iterable_range: step must be positive, got %d", step)
	}

	next := start
	return datapool.NewIterablePool(func() (args []any, ok bool) {
		if next >= end {
			return nil, false
		}
		v := next
		next += step
		return []any{v}, true
	}), nil
}

// newSQLPoolFromArgs builds a SQLPool streaming rows from args[0] (a
// Postgres connection string) for the query in args[2], with any remaining
// args forwarded as query parameters. args[1] (the column count) must parse
// as an integer and is passed to datapool.NewSQLPool, which does not use it:
// each row is taken whole.
//
// Grounded on the teacher's internal/database.Pool connection-acquisition
// shape, repurposed here from the benchmarking target into a data source:
// the connection built once per registered pool is handed straight to
// datapool.SQLPool, which owns the query's row iteration from there.
func newSQLPoolFromArgs(args []string) (any, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("sql: expected at least 3 args (conn_str, cols, query), got %d", len(args))
	}
	connStr, colsArg, query := args[0], args[1], args[2]
	cols, err := strconv.Atoi(colsArg)
	if err != nil {
		return nil, fmt.Errorf("sql: parsing column count: %w", err)
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("sql: connecting: %w", err)
	}
	if err := pool.HealthCheck(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sql: connection unhealthy: %w", err)
	}

	queryArgs := make([]any, 0, len(args)-3)
	for _, a := range args[3:] {
		queryArgs = append(queryArgs, a)
	}

	sqlPool, err := datapool.NewSQLPool(ctx, pool.Pool(), query, cols, queryArgs...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sql: running query: %w", err)
	}
	return sqlPool, nil
}
