// Package metrics registers Prometheus collectors for the sync pipeline
// and the read path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all collectors. A nil *Metrics is safe to call, so
// components can run unmetered in tests.
type Metrics struct {
	registry *prometheus.Registry

	syncCycles   *prometheus.CounterVec
	syncDuration prometheus.Histogram
	rowsInserted prometheus.Counter
	rowsRemoved  prometheus.Counter
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		syncCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rankradar",
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Sync cycles by result.",
		}, []string{"result"}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rankradar",
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full fetch and reconcile cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		rowsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rankradar",
			Subsystem: "sync",
			Name:      "rows_inserted_total",
			Help:      "Observation rows inserted by reconciliation.",
		}),
		rowsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rankradar",
			Subsystem: "sync",
			Name:      "rows_removed_total",
			Help:      "Observation rows pruned for untracked users.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rankradar",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Read cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rankradar",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Read cache misses.",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSync records one finished sync cycle.
func (m *Metrics) ObserveSync(result string, d time.Duration, inserted, removed int64) {
	if m == nil {
		return
	}
	m.syncCycles.WithLabelValues(result).Inc()
	m.syncDuration.Observe(d.Seconds())
	m.rowsInserted.Add(float64(inserted))
	m.rowsRemoved.Add(float64(removed))
}

// CacheHit increments the cache hit counter.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss increments the cache miss counter.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
