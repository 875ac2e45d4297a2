// Package telemetry implements the uniform envelope and push/pull bus every
// process in the system (journeys via their Context, the controller, the
// collector) sends frames over.
//
// Grounded on _examples/original_source/mite/context.py's send()/
// _add_context_headers(), which enriches every outgoing message with the
// same id fields before it reaches the wire.
package telemetry

import "time"

// Envelope is the uniform frame shape described by the specification's
// external interfaces: every message carries the full set of identifying
// fields regardless of its Type, plus a free-form Fields map for
// type-specific content.
type Envelope struct {
	Type       string         `msgpack:"type"`
	Time       int64          `msgpack:"time"` // unix nanoseconds
	Test       string         `msgpack:"test"`
	RunnerID   uint64         `msgpack:"runner_id"`
	Journey    string         `msgpack:"journey"`
	ContextID  uint64         `msgpack:"context_id"`
	ScenarioID uint64         `msgpack:"scenario_id"`
	DataID     uint64         `msgpack:"data_id"`
	Transaction string        `msgpack:"transaction"`
	Fields     map[string]any `msgpack:"fields"`
}

// Sender is the telemetry production side: anything that can emit one
// envelope. internal/journeycontext.Sender is a narrower view of the same
// capability scoped to one grant's id data.
type Sender interface {
	SendEnvelope(Envelope)
}

func newEnvelope(msgType string, fields map[string]any) Envelope {
	return Envelope{
		Type:   msgType,
		Time:   time.Now().UnixNano(),
		Fields: fields,
	}
}

// NewStart builds a "start" envelope for entering a named transaction.
func NewStart() Envelope { return newEnvelope("start", nil) }

// NewEnd builds an "end" envelope for leaving a named transaction.
func NewEnd() Envelope { return newEnvelope("end", nil) }

// NewError builds a DomainError report.
func NewError(message string, fields map[string]any) Envelope {
	f := map[string]any{"message": message}
	for k, v := range fields {
		f[k] = v
	}
	return newEnvelope("error", f)
}

// NewException builds an unhandled-failure report with a captured
// stacktrace.
func NewException(message, stacktrace string) Envelope {
	return newEnvelope("exception", map[string]any{"message": message, "stacktrace": stacktrace})
}

// NewHTTPCurlMetrics builds an HTTP request timing/outcome report.
func NewHTTPCurlMetrics(method, url string, status int, latency time.Duration, err error) Envelope {
	f := map[string]any{
		"method":     method,
		"url":        url,
		"status":     status,
		"latency_ms": float64(latency) / float64(time.Millisecond),
	}
	if err != nil {
		f["error"] = err.Error()
	}
	return newEnvelope("http_curl_metrics", f)
}

// NewControllerReport builds a periodic controller-side snapshot: how many
// scenarios are live, how many runners are active, and the current fair
// share / hit rate figures.
func NewControllerReport(fields map[string]any) Envelope {
	return newEnvelope("controller_report", fields)
}

// NewDataCreated reports that a data pool produced a new item worth
// recording (e.g. an account a later journey will look up by id).
func NewDataCreated(dataID uint64, fields map[string]any) Envelope {
	f := map[string]any{"data_id": dataID}
	for k, v := range fields {
		f[k] = v
	}
	return newEnvelope("data_created", f)
}
