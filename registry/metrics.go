package registry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/segmentlab/mempool/pool"
)

// metrics tracks process-wide and per-pool gauges. Per-pool gauges are
// keyed by the pool handle's string form; they are registered lazily
// on first observation and unregistered on Close so a long-lived
// process doesn't accumulate label series for pools it has forgotten.
type metrics struct {
	poolsOpen prometheus.Gauge

	totalSize *prometheus.GaugeVec
	allocSize *prometheus.GaugeVec
	numAllocs *prometheus.GaugeVec
	numGaps   *prometheus.GaugeVec
}

func newMetrics() *metrics {
	return &metrics{
		poolsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pools_open",
			Help:      "Number of pools currently open in this registry.",
		}),
		totalSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pool_total_bytes",
			Help:      "Backing-buffer size of a pool.",
		}, []string{"pool"}),
		allocSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pool_alloc_bytes",
			Help:      "Bytes currently allocated in a pool.",
		}, []string{"pool"}),
		numAllocs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pool_num_allocs",
			Help:      "Live allocation count in a pool.",
		}, []string{"pool"}),
		numGaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pool_num_gaps",
			Help:      "Free segment count in a pool.",
		}, []string{"pool"}),
	}
}

func (m *metrics) observe(poolID string, s pool.Stats) {
	m.totalSize.WithLabelValues(poolID).Set(float64(s.TotalSize))
	m.allocSize.WithLabelValues(poolID).Set(float64(s.AllocSize))
	m.numAllocs.WithLabelValues(poolID).Set(float64(s.NumAllocs))
	m.numGaps.WithLabelValues(poolID).Set(float64(s.NumGaps))
}

func (m *metrics) forget(poolID string) {
	m.totalSize.DeleteLabelValues(poolID)
	m.allocSize.DeleteLabelValues(poolID)
	m.numAllocs.DeleteLabelValues(poolID)
	m.numGaps.DeleteLabelValues(poolID)
}

// Collectors returns every collector Registry maintains, for a caller
// that wants to register them with a *prometheus.Registry of its own.
func (r *Registry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.m.poolsOpen,
		r.m.totalSize,
		r.m.allocSize,
		r.m.numAllocs,
		r.m.numGaps,
	}
}
