// Package httpcapability provides the HTTP client capability journeys use
// to talk to the target under test, grounded on the teacher's
// internal/database.Pool connection-acquisition shape but wrapping
// net/http instead of pgxpool. Retry/redirect policy is intentionally
// minimal: only the shape needed to exercise the telemetry path is
// implemented.
package httpcapability

import (
	"context"
	"net/http"
	"time"
)

// Client is the narrow HTTP capability a journey sees.
type Client interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// MetricsCallback is invoked after every request completes (successfully
// or not) with its outcome, so a caller can forward it into telemetry.
type MetricsCallback func(method, url string, status int, latency time.Duration, err error)

// PoolConfig holds connection pool settings, named to mirror
// database.PoolConfig even though it configures net/http's transport
// instead of pgxpool.
type PoolConfig struct {
	MaxConnsPerHost     int
	MaxIdleConns        int
	IdleConnTimeout     time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultPoolConfig returns sensible default pool settings.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConnsPerHost:       64,
		MaxIdleConns:          64,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
}

// SessionPool is a Client backed by one shared *http.Client and
// connection pool, with every call's outcome reported through an
// optional MetricsCallback. A SessionPool is acquired once per runner
// and shared by every journey's Context, mirroring the teacher's
// database.Pool being acquired once and handed to every query.
type SessionPool struct {
	httpClient *http.Client
	onRequest  MetricsCallback
}

// NewSessionPool builds a SessionPool with the given pool settings.
// onRequest may be nil, in which case metrics are not reported.
func NewSessionPool(cfg PoolConfig, onRequest MetricsCallback) *SessionPool {
	transport := &http.Transport{
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	}
	return &SessionPool{
		httpClient: &http.Client{Transport: transport},
		onRequest:  onRequest,
	}
}

// Do executes req and reports its outcome through the MetricsCallback.
func (p *SessionPool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := p.httpClient.Do(req.WithContext(ctx))
	latency := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if p.onRequest != nil {
		p.onRequest(req.Method, req.URL.String(), status, latency, err)
	}
	return resp, err
}

// Close releases idle connections held by the pool.
func (p *SessionPool) Close() {
	p.httpClient.CloseIdleConnections()
}
