package journeycontext

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type recordingSender struct {
	sent []sentFrame
}

type sentFrame struct {
	msgType string
	idData  IDData
	fields  map[string]any
}

func (r *recordingSender) Send(msgType string, idData IDData, fields map[string]any) {
	r.sent = append(r.sent, sentFrame{msgType: msgType, idData: idData, fields: fields})
}

type fakeConfig struct {
	values map[string]string
}

func (f fakeConfig) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

type fakeHTTPClient struct{}

func (fakeHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return nil, nil
}

func TestContextConfigLooksUpThroughConfigLookup(t *testing.T) {
	c := New(&recordingSender{}, fakeConfig{values: map[string]string{"k": "v"}}, IDData{}, fakeHTTPClient{}, nil, false)

	v, ok := c.Config("k")
	if !ok || v != "v" {
		t.Fatalf("Config(%q) = (%q, %v), want (%q, true)", "k", v, ok, "v")
	}
	if _, ok := c.Config("missing"); ok {
		t.Error("expected Config to report false for an unset key")
	}
}

func TestContextConfigWithNilLookupReturnsFalse(t *testing.T) {
	c := New(&recordingSender{}, nil, IDData{}, fakeHTTPClient{}, nil, false)
	if _, ok := c.Config("k"); ok {
		t.Error("expected Config to return false when no ConfigLookup was supplied")
	}
}

func TestContextShouldStopDefaultsToFalse(t *testing.T) {
	c := New(&recordingSender{}, nil, IDData{}, fakeHTTPClient{}, nil, false)
	if c.ShouldStop() {
		t.Error("expected ShouldStop to default to false when no callback is given")
	}
}

func TestContextShouldStopDelegatesToCallback(t *testing.T) {
	stop := false
	c := New(&recordingSender{}, nil, IDData{}, fakeHTTPClient{}, func() bool { return stop }, false)
	if c.ShouldStop() {
		t.Fatal("expected false before flipping stop")
	}
	stop = true
	if !c.ShouldStop() {
		t.Error("expected true after flipping stop")
	}
}

func TestTransactionOnSuccessSendsStartAndEndOnly(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{Test: "t1"}, fakeHTTPClient{}, nil, false)

	result := c.Transaction("checkout", func(c *Context) error { return nil })

	if !result.Completed() {
		t.Fatalf("expected Completed, got Kind=%q Message=%q", result.Kind, result.Message)
	}
	var types []string
	for _, f := range sender.sent {
		types = append(types, f.msgType)
	}
	if len(types) != 2 || types[0] != "start" || types[1] != "end" {
		t.Fatalf("expected [start end], got %v", types)
	}
}

func TestTransactionReturnedDomainErrorSendsErrorFrame(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{}, fakeHTTPClient{}, nil, false)

	de := NewDomainError("bad status", map[string]any{"status": 503})
	result := c.Transaction("checkout", func(c *Context) error { return de })

	if result.Completed() {
		t.Fatal("expected a failed result")
	}
	if result.Kind != "error" {
		t.Errorf("Kind = %q, want %q", result.Kind, "error")
	}
	if result.Message != "bad status" {
		t.Errorf("Message = %q, want %q", result.Message, "bad status")
	}

	var gotErrorFrame bool
	for _, f := range sender.sent {
		if f.msgType == "error" {
			gotErrorFrame = true
			if f.fields["message"] != "bad status" {
				t.Errorf("error frame message = %v, want %q", f.fields["message"], "bad status")
			}
		}
	}
	if !gotErrorFrame {
		t.Error("expected an \"error\" frame to be sent")
	}
}

func TestTransactionPlainErrorSendsExceptionFrameWithStacktrace(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{}, fakeHTTPClient{}, nil, false)

	result := c.Transaction("checkout", func(c *Context) error { return errors.New("boom") })

	if result.Kind != "exception" {
		t.Errorf("Kind = %q, want %q", result.Kind, "exception")
	}
	if result.Stacktrace == "" {
		t.Error("expected a non-empty stacktrace for a plain error")
	}
}

func TestTransactionPanicIsRecoveredAsExceptionAndEndFrameStillSent(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{}, fakeHTTPClient{}, nil, false)

	result := c.Transaction("checkout", func(c *Context) error { panic("kaboom") })

	if result.Kind != "exception" {
		t.Errorf("Kind = %q, want %q", result.Kind, "exception")
	}
	var gotEnd bool
	for _, f := range sender.sent {
		if f.msgType == "end" {
			gotEnd = true
		}
	}
	if !gotEnd {
		t.Error("expected the end frame to be sent even though fn panicked")
	}
}

func TestTransactionPanicWithDomainErrorIsReportedAsError(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{}, fakeHTTPClient{}, nil, false)

	de := NewDomainError("nope", nil)
	result := c.Transaction("checkout", func(c *Context) error { panic(de) })

	if result.Kind != "error" {
		t.Errorf("Kind = %q, want %q", result.Kind, "error")
	}
	if result.Message != "nope" {
		t.Errorf("Message = %q, want %q", result.Message, "nope")
	}
}

func TestNestedTransactionReportsInnermostNameOnSend(t *testing.T) {
	sender := &recordingSender{}
	c := New(sender, nil, IDData{}, fakeHTTPClient{}, nil, false)

	c.Transaction("outer", func(c *Context) error {
		inner := c.Transaction("inner", func(c *Context) error {
			c.Send("custom", map[string]any{})
			return nil
		})
		if !inner.Completed() {
			t.Fatalf("inner transaction failed: %v", inner.Message)
		}
		return nil
	})

	var customFrame *sentFrame
	for i := range sender.sent {
		if sender.sent[i].msgType == "custom" {
			customFrame = &sender.sent[i]
		}
	}
	if customFrame == nil {
		t.Fatal("expected a custom frame to have been sent")
	}
	if customFrame.fields["transaction"] != "inner" {
		t.Errorf("transaction field = %v, want %q", customFrame.fields["transaction"], "inner")
	}
}

func TestUnexpectedStatusErrorCarriesMethodURLStatusAndBody(t *testing.T) {
	err := UnexpectedStatusError(http.MethodGet, "http://x/y", 503, "oops")

	if err.Fields["method"] != http.MethodGet {
		t.Errorf("method = %v, want %q", err.Fields["method"], http.MethodGet)
	}
	if err.Fields["status"] != 503 {
		t.Errorf("status = %v, want 503", err.Fields["status"])
	}
	if err.Fields["body"] != "oops" {
		t.Errorf("body = %v, want %q", err.Fields["body"], "oops")
	}
	if err.Error() == "" {
		t.Error("expected a non-empty error message")
	}
}
