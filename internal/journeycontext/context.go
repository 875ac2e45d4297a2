// Package journeycontext implements the per-execution context a journey
// runs with: config lookup, id metadata, the HTTP capability, and the
// transaction/error-reporting surface.
//
// Grounded on _examples/original_source/mite/context.py's Context and
// _TransactionContextManager, reshaped per the module's design notes into an
// explicit Completed|Errored result returned from each transaction instead
// of a re-raised "handled" exception marker.
package journeycontext

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"
)

// IDData is the fixed set of identifying fields attached to every telemetry
// frame emitted while running one grant.
type IDData struct {
	Test       string
	RunnerID   uint64
	Journey    string
	ContextID  uint64
	ScenarioID uint64
	DataID     uint64
}

// HTTPClient is the capability surface journeys use to make requests. It is
// kept minimal deliberately, defined here at the point of use rather than
// imported from internal/httpcapability, whose *SessionPool satisfies it;
// internal/httpcapability owns retry/connection policy.
type HTTPClient interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ConfigLookup reads the controller's config snapshot, as seen at the time
// the runner last requested work.
type ConfigLookup interface {
	Get(key string) (string, bool)
}

// Sender pushes one telemetry envelope. internal/telemetry.ContextSender
// implements this; tests use a recording fake.
type Sender interface {
	Send(msgType string, idData IDData, fields map[string]any)
}

// Context is passed as a pointer into every journey invocation chain; the
// pointer receiver methods mutate only the transaction name stack, which is
// private to one running grant and never shared across goroutines.
type Context struct {
	send         Sender
	config       ConfigLookup
	idData       IDData
	shouldStop   func() bool
	http         HTTPClient
	debug        bool
	txNames      []string
}

// New builds a Context for one grant.
func New(send Sender, config ConfigLookup, idData IDData, http HTTPClient, shouldStop func() bool, debug bool) *Context {
	if shouldStop == nil {
		shouldStop = func() bool { return false }
	}
	return &Context{
		send:       send,
		config:     config,
		idData:     idData,
		shouldStop: shouldStop,
		http:       http,
		debug:      debug,
	}
}

// IDData returns the context's identifying fields.
func (c *Context) IDData() IDData { return c.idData }

// Config looks up a single key from the controller's config snapshot.
func (c *Context) Config(key string) (string, bool) {
	if c.config == nil {
		return "", false
	}
	return c.config.Get(key)
}

// ShouldStop reports whether the runner has asked in-flight journeys to wind
// down. Long-running journeys should check this between steps.
func (c *Context) ShouldStop() bool {
	return c.shouldStop()
}

// HTTP returns the journey's HTTP capability.
func (c *Context) HTTP() HTTPClient {
	return c.http
}

func (c *Context) transactionName() string {
	if len(c.txNames) == 0 {
		return ""
	}
	return c.txNames[len(c.txNames)-1]
}

// Send emits one telemetry frame enriched with the context's id data and
// current transaction name.
func (c *Context) Send(msgType string, fields map[string]any) {
	if c.send == nil {
		return
	}
	enriched := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		enriched[k] = v
	}
	enriched["transaction"] = c.transactionName()
	c.send.Send(msgType, c.idData, enriched)
}

func (c *Context) startTransaction(name string) {
	c.txNames = append(c.txNames, name)
	c.Send("start", map[string]any{"time": time.Now().UnixNano()})
}

func (c *Context) endTransaction() {
	c.Send("end", map[string]any{"time": time.Now().UnixNano()})
	if len(c.txNames) > 0 {
		c.txNames = c.txNames[:len(c.txNames)-1]
	}
}

// TxResult is the explicit outcome of a transaction-scoped step, replacing
// the source's re-raised "handled" marker exception with a typed value the
// caller inspects directly.
type TxResult struct {
	// Kind is "" on success, "error" for a DomainError, "exception" for
	// anything else that escaped the step.
	Kind       string
	Message    string
	Fields     map[string]any
	Stacktrace string
}

// Completed reports whether the step finished without error.
func (r TxResult) Completed() bool { return r.Kind == "" }

// Transaction runs fn inside a named, reported transaction. Any DomainError
// returned (or panicking) is sent as an "error" frame; any other panic or
// error is sent as an "exception" frame with a captured stacktrace. In both
// cases the transaction's end frame is always emitted and the function
// always returns rather than propagating, so the caller can account for the
// grant as finished either way.
func (c *Context) Transaction(name string, fn func(*Context) error) (result TxResult) {
	c.startTransaction(name)
	defer c.endTransaction()

	defer func() {
		if r := recover(); r != nil {
			result = c.reportFailure(r)
		}
	}()

	if err := fn(c); err != nil {
		result = c.reportFailure(err)
		return result
	}
	return TxResult{}
}

func (c *Context) reportFailure(r any) TxResult {
	if de, ok := r.(*DomainError); ok {
		c.Send("error", map[string]any{"message": de.Message, "fields": de.Fields})
		return TxResult{Kind: "error", Message: de.Message, Fields: de.Fields}
	}
	var msg string
	switch v := r.(type) {
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprintf("%v", v)
	}
	stack := string(debug.Stack())
	c.Send("exception", map[string]any{"message": msg, "stacktrace": stack})
	return TxResult{Kind: "exception", Message: msg, Stacktrace: stack}
}
