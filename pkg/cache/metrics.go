package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the result cache.
type Metrics struct {
	HitsTotal   prometheus.Counter
	MissesTotal prometheus.Counter
	Size        prometheus.Gauge
}

// NewMetrics creates and registers Prometheus metrics for the cache.
//
// sync.Once guards registration so repeated construction never panics
// with a duplicate collector error. All metrics are prefixed with
// "commtrace_cache_".
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HitsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "commtrace_cache_hits_total",
				Help: "Total number of analysis cache hits",
			}),
			MissesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "commtrace_cache_misses_total",
				Help: "Total number of analysis cache misses",
			}),
			Size: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "commtrace_cache_size",
				Help: "Current number of cached analysis results",
			}),
		}
	})
	return globalMetrics
}

// RecordHit records a cache hit.
func (m *Metrics) RecordHit() {
	m.HitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (m *Metrics) RecordMiss() {
	m.MissesTotal.Inc()
}

// SetSize updates the current cache size gauge.
func (m *Metrics) SetSize(size int) {
	m.Size.Set(float64(size))
}
