package gateway

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/lores-mesh/site-admin/internal/result"
)

// Metrics tracks node API call metrics
type Metrics struct {
	calls           int64
	transportErrors int64
	domainErrors    int64
	latency         int64 // Total latency in nanoseconds
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Calls           int64   `json:"calls"`
	TransportErrors int64   `json:"transport_errors"`
	DomainErrors    int64   `json:"domain_errors"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}

// Snapshot returns the current metrics snapshot
func (m *Metrics) Snapshot() MetricsSnapshot {
	calls := atomic.LoadInt64(&m.calls)
	snap := MetricsSnapshot{
		Calls:           calls,
		TransportErrors: atomic.LoadInt64(&m.transportErrors),
		DomainErrors:    atomic.LoadInt64(&m.domainErrors),
	}
	if calls > 0 {
		snap.AvgLatencyMs = float64(atomic.LoadInt64(&m.latency)) / float64(calls) / float64(time.Millisecond)
	}
	return snap
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.calls, 0)
	atomic.StoreInt64(&m.transportErrors, 0)
	atomic.StoreInt64(&m.domainErrors, 0)
	atomic.StoreInt64(&m.latency, 0)
}

func (m *Metrics) record(duration time.Duration, res result.Result[json.RawMessage], err error) {
	atomic.AddInt64(&m.calls, 1)
	atomic.AddInt64(&m.latency, duration.Nanoseconds())
	switch {
	case err != nil:
		atomic.AddInt64(&m.transportErrors, 1)
	case !res.IsOk():
		atomic.AddInt64(&m.domainErrors, 1)
	}
}
