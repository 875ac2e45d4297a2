// Package journey wraps a single journey invocation in the outermost,
// always-reported transaction: "__root__". Grounded on
// _examples/original_source/mite/runner.py's _execute, which wraps every
// journey call in context._exception_handler() plus
// context.transaction('__root__') so that exactly one start/end/
// error-or-exception frame set is emitted per grant regardless of how many
// nested transactions the journey itself opens.
package journey

import (
	"time"

	"github.com/mite-go/loadgen/internal/journeycontext"
)

// Func is a user-supplied journey body.
type Func func(ctx *journeycontext.Context, args []any) error

// RootTransactionName is the always-present outermost transaction every
// grant executes inside.
const RootTransactionName = "__root__"

// Result carries the outcome of one grant's execution plus its wall-clock
// duration. The runner does not read it; a grant counts as finished once
// Run returns.
type Result struct {
	journeycontext.TxResult
	Duration time.Duration
}

// Run executes fn inside the root transaction and never propagates a panic:
// any failure is converted into the TxResult's Kind/Message/Fields, exactly
// like every other transaction, so the runner can always account for the
// grant as finished.
func Run(ctx *journeycontext.Context, fn Func, args []any) Result {
	start := time.Now()
	tx := ctx.Transaction(RootTransactionName, func(c *journeycontext.Context) error {
		return fn(c, args)
	})
	return Result{TxResult: tx, Duration: time.Since(start)}
}
