package analyzer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the analysis engine.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	RecordsTotal     prometheus.Counter
	StepFailures     *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics for the engine.
//
// sync.Once guards registration so repeated construction never panics
// with a duplicate collector error.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			AnalysesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "commtrace_analyses_total",
					Help: "Total number of analysis runs by status",
				},
				[]string{"status"}, // "ok" or "rejected"
			),
			AnalysisDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "commtrace_analysis_duration_seconds",
					Help:    "Duration of full analysis runs in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
				},
			),
			RecordsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "commtrace_records_processed_total",
					Help: "Total number of records processed across analyses",
				},
			),
			StepFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "commtrace_step_failures_total",
					Help: "Total number of isolated sub-analysis failures",
				},
				[]string{"step"},
			),
		}
	})
	return globalMetrics
}

// RecordAnalysis records one completed analysis run.
func (m *Metrics) RecordAnalysis(status string, elapsed time.Duration, recordCount int) {
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	m.RecordsTotal.Add(float64(recordCount))
}

// RecordStepFailure records an isolated sub-analysis failure.
func (m *Metrics) RecordStepFailure(step string) {
	m.StepFailures.WithLabelValues(step).Inc()
}
