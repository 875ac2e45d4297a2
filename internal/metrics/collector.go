// Package metrics aggregates http_curl_metrics telemetry envelopes into a
// per-(journey,transaction) latency and error-rate snapshot.
//
// Kept from the teacher's internal/metrics.Collector, which aggregated
// Postgres query latencies per operation type; here the aggregation key is
// a journey/transaction pair and the input is a telemetry envelope's field
// map rather than a direct RecordLatency call from a query executor, but
// the HdrHistogram-backed accumulation itself is unchanged.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/mite-go/loadgen/internal/telemetry"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

type opMetrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	count     atomic.Int64
	errors    atomic.Int64
	errorMap  map[string]int64
}

func newOpMetrics() *opMetrics {
	return &opMetrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
		errorMap:  make(map[string]int64),
	}
}

// Collector aggregates metrics for multiple (journey, transaction) keys.
type Collector struct {
	mu        sync.RWMutex
	ops       map[string]*opMetrics
	startTime time.Time
}

// NewCollector creates a new metrics Collector.
func NewCollector() *Collector {
	return &Collector{
		ops:       make(map[string]*opMetrics),
		startTime: time.Now(),
	}
}

func (c *Collector) getOrCreateOp(key string) *opMetrics {
	c.mu.RLock()
	op, exists := c.ops[key]
	c.mu.RUnlock()

	if exists {
		return op
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if op, exists = c.ops[key]; exists {
		return op
	}

	op = newOpMetrics()
	c.ops[key] = op
	return op
}

// RecordLatency records a request latency in nanoseconds under key.
func (c *Collector) RecordLatency(key string, latencyNs int64) {
	op := c.getOrCreateOp(key)

	latencyUs := latencyNs / 1000
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	op.mu.Lock()
	op.histogram.RecordValue(latencyUs)
	op.mu.Unlock()

	op.count.Add(1)
}

// IncrementCount increments key's count without recording latency.
func (c *Collector) IncrementCount(key string) {
	op := c.getOrCreateOp(key)
	op.count.Add(1)
}

// IncrementError increments key's error count, tagged by errType.
func (c *Collector) IncrementError(key string, errType string) {
	op := c.getOrCreateOp(key)
	op.errors.Add(1)

	op.mu.Lock()
	op.errorMap[errType]++
	op.mu.Unlock()
}

// GetSnapshot returns a point-in-time view of all metrics.
func (c *Collector) GetSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	duration := time.Since(c.startTime)
	snap := &Snapshot{
		StartTime:  c.startTime,
		Duration:   duration,
		Operations: make(map[string]*OperationStats),
	}

	var totalRequests, totalErrors int64

	for key, op := range c.ops {
		count := op.count.Load()
		errs := op.errors.Load()

		totalRequests += count
		totalErrors += errs

		op.mu.Lock()
		hist := op.histogram.Export()
		errorMapCopy := make(map[string]int64, len(op.errorMap))
		for k, v := range op.errorMap {
			errorMapCopy[k] = v
		}
		op.mu.Unlock()

		imported := hdrhistogram.Import(hist)

		opStats := &OperationStats{
			Count:  count,
			Errors: errs,
			Latency: LatencyStats{
				Min:    time.Duration(imported.Min()) * time.Microsecond,
				Max:    time.Duration(imported.Max()) * time.Microsecond,
				Mean:   time.Duration(imported.Mean()) * time.Microsecond,
				StdDev: time.Duration(imported.StdDev()) * time.Microsecond,
				P50:    time.Duration(imported.ValueAtQuantile(50)) * time.Microsecond,
				P90:    time.Duration(imported.ValueAtQuantile(90)) * time.Microsecond,
				P95:    time.Duration(imported.ValueAtQuantile(95)) * time.Microsecond,
				P99:    time.Duration(imported.ValueAtQuantile(99)) * time.Microsecond,
				P999:   time.Duration(imported.ValueAtQuantile(99.9)) * time.Microsecond,
			},
			ErrorTypes: errorMapCopy,
		}

		if duration.Seconds() > 0 {
			opStats.RPS = float64(count) / duration.Seconds()
		}

		snap.Operations[key] = opStats
	}

	snap.TotalRequests = totalRequests
	snap.TotalErrors = totalErrors
	if duration.Seconds() > 0 {
		snap.RPS = float64(totalRequests) / duration.Seconds()
	}

	return snap
}

// Reset clears all collected metrics and resets the start time.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ops = make(map[string]*opMetrics)
	c.startTime = time.Now()
}

// AsListener adapts the collector into a telemetry.Listener: every
// http_curl_metrics envelope it sees is fed into RecordEnvelope; every
// other envelope type is ignored (unlike internal/collector.Roller.AsListener,
// which takes every envelope).
func (c *Collector) AsListener() telemetry.Listener {
	return func(e telemetry.Envelope) {
		if e.Type != "http_curl_metrics" {
			return
		}
		c.RecordEnvelope(e.Journey, e.Transaction, e.Fields)
	}
}

// RecordEnvelope feeds one decoded http_curl_metrics envelope's fields into
// the collector under a journey/transaction key.
func (c *Collector) RecordEnvelope(journey, transaction string, fields map[string]any) {
	key := journey + "/" + transaction

	var latencyMs float64
	switch v := fields["latency_ms"].(type) {
	case float64:
		latencyMs = v
	case float32:
		latencyMs = float64(v)
	}

	status := 0
	switch v := fields["status"].(type) {
	case int:
		status = v
	case int64:
		status = int(v)
	case float64:
		status = int(v)
	}

	c.RecordLatency(key, int64(latencyMs*float64(time.Millisecond)))
	if status == 0 || status >= 400 {
		c.IncrementError(key, statusBucket(status))
	}
}

func statusBucket(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
