package journeycontext

import "fmt"

// DomainError is an expected failure a journey reports deliberately, e.g. an
// unexpected HTTP status code. It is reported to the telemetry bus as an
// "error" frame rather than an "exception" frame, and it never carries a
// Go stacktrace.
//
// Grounded on original_source/mite/exceptions.py's MiteException, whose
// Fields map is forwarded verbatim onto the telemetry envelope.
type DomainError struct {
	Message string
	Fields  map[string]any
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError carrying fields, or an empty field
// set when fields is nil.
func NewDomainError(message string, fields map[string]any) *DomainError {
	if fields == nil {
		fields = map[string]any{}
	}
	return &DomainError{Message: message, Fields: fields}
}

// UnexpectedStatusError is a DomainError raised by the internal/builtin
// HTTP journeys when a response's status code falls outside the set a
// journey expected.
func UnexpectedStatusError(method, url string, status int, body string) *DomainError {
	return NewDomainError(
		fmt.Sprintf("unexpected status %d for %s %s", status, method, url),
		map[string]any{
			"method": method,
			"url":    url,
			"status": status,
			"body":   body,
		},
	)
}
