// Package builtin registers a handful of ready-to-use journeys and data
// pool kinds under internal/registry, so a scenario file can reference
// "http_get" or "recyclable" without a caller having to write Go code
// first. Importing this package for its side effects (a blank import in
// cmd/loadgen) is enough; the registrations happen in init.
//
// Grounded on original_source/mite/example.py, whose module-level
// `journey`/`datapool` pair is the same "a name resolves to a runnable
// thing" idiom internal/registry replaces dynamic import with.
package builtin

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/mite-go/loadgen/internal/journeycontext"
	"github.com/mite-go/loadgen/internal/registry"
)

func init() {
	registry.RegisterJourney("http_get", httpGet)
	registry.RegisterJourney("http_get_expect_status", httpGetExpectStatus)
}

// httpGet issues one GET request against target_base_url joined with the
// grant's first argument (a path), inside a "get" transaction, and treats
// any 5xx response as a DomainError. The inner transaction already reports
// a failure as an error/exception frame, so httpGet always returns nil
// itself — returning the failure again here would have the root
// transaction report it a second time.
func httpGet(ctx *journeycontext.Context, args []any) error {
	path := firstStringArg(args)
	ctx.Transaction("get", func(c *journeycontext.Context) error {
		return doGet(c, path, 0)
	})
	return nil
}

// httpGetExpectStatus is httpGet, but args[1] (or "200" if absent) names
// the single status code the response must match; anything else is
// reported as a DomainError via journeycontext.UnexpectedStatusError.
func httpGetExpectStatus(ctx *journeycontext.Context, args []any) error {
	path := firstStringArg(args)
	want := 200
	if len(args) > 1 {
		if s, ok := args[1].(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				want = n
			}
		}
	}
	ctx.Transaction("get", func(c *journeycontext.Context) error {
		return doGet(c, path, want)
	})
	return nil
}

func doGet(c *journeycontext.Context, path string, wantStatus int) error {
	base, _ := c.Config("target_base_url")
	url := base + path

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP().Do(context.Background(), req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if wantStatus != 0 && resp.StatusCode != wantStatus {
		return journeycontext.UnexpectedStatusError(http.MethodGet, url, resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 500 {
		return journeycontext.UnexpectedStatusError(http.MethodGet, url, resp.StatusCode, string(body))
	}
	return nil
}

func firstStringArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return s
}
