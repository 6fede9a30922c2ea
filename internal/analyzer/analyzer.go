// Package analyzer is the response analysis engine: it composes
// segmentation, timing, reciprocity, anomaly, and pattern analysis over a
// record table into a single report.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commtrace/internal/anomaly"
	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/pattern"
	"github.com/fyrsmithlabs/commtrace/internal/reciprocity"
	"github.com/fyrsmithlabs/commtrace/internal/records"
	"github.com/fyrsmithlabs/commtrace/internal/segment"
	"github.com/fyrsmithlabs/commtrace/internal/timing"
	"github.com/fyrsmithlabs/commtrace/pkg/cache"
)

const tracerName = "commtrace/analyzer"

// Config holds the engine thresholds. The zero value resolves to the
// documented defaults.
type Config struct {
	ConversationTimeout time.Duration
	CounterpartyTimeout time.Duration
	QuickThreshold      time.Duration
	DelayedThreshold    time.Duration
	BalanceLow          float64
	BalanceHigh         float64
}

// Report is the full response analysis output. When Error is set the
// input was rejected and no other field is populated.
type Report struct {
	ResponseTimes *timing.Stats          `json:"response_times,omitempty"`
	Reciprocity   *reciprocity.Report    `json:"reciprocity_patterns,omitempty"`
	Flows         *segment.FlowSummary   `json:"conversation_flows,omitempty"`
	Anomalies     []anomaly.Anomaly      `json:"anomalies,omitempty"`
	Patterns      []pattern.Pattern      `json:"patterns,omitempty"`
	Predictions   map[string]*Prediction `json:"response_predictions,omitempty"`
	RecordCount   int                    `json:"record_count,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// Analyzer runs response analysis over record tables. Construct with New;
// the zero value is not usable.
type Analyzer struct {
	cfg      Config
	logger   *logging.Logger
	cache    cache.Store
	predict  Predictor
	detector *anomaly.Detector
	metrics  *Metrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache wires a shared result cache. Without it the analyzer uses a
// no-op cache and recomputes every call.
func WithCache(store cache.Store) Option {
	return func(a *Analyzer) {
		if store != nil {
			a.cache = store
		}
	}
}

// WithPredictor wires a trainable response prediction model. Prediction
// failures degrade to no predictions, never to a failed analysis.
func WithPredictor(p Predictor) Option {
	return func(a *Analyzer) { a.predict = p }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates an analyzer. A nil logger falls back to a no-op one.
func New(cfg Config, logger *logging.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("analyzer")
	a := &Analyzer{
		cfg:      cfg,
		logger:   logger,
		cache:    cache.Nop{},
		predict:  HeuristicPredictor{},
		detector: anomaly.NewDetector(logger),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline over the table. Invalid input short
// circuits into a Report carrying only Error; failures inside one
// sub-analysis land in that section's Error field and never abort the
// others.
func (a *Analyzer) Analyze(ctx context.Context, table *records.Table) *Report {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analyzer.Analyze")
	defer span.End()
	start := time.Now()

	if err := table.Validate(); err != nil {
		a.logger.Warn(ctx, "rejecting analysis input", zap.Error(err))
		a.observe("rejected", start, 0)
		return &Report{Error: err.Error()}
	}

	span.SetAttributes(
		attribute.Int("records.count", table.Len()),
		attribute.Int("records.counterparties", len(table.Counterparties())),
	)

	report := &Report{RecordCount: table.Len()}

	a.runStep(ctx, "response_times", func() {
		report.ResponseTimes = a.computeTiming(table)
	}, func(msg string) {
		report.ResponseTimes = &timing.Stats{Error: msg}
	})

	a.runStep(ctx, "reciprocity", func() {
		report.Reciprocity = a.computeReciprocity(table)
	}, func(msg string) {
		report.Reciprocity = &reciprocity.Report{Error: msg}
	})

	a.runStep(ctx, "conversation_flows", func() {
		report.Flows = a.computeFlows(table)
	}, func(msg string) {
		report.Flows = &segment.FlowSummary{Error: msg}
	})

	report.Anomalies = a.detector.Detect(ctx, report.ResponseTimes, report.Reciprocity)

	a.runStep(ctx, "patterns", func() {
		report.Patterns = append(report.Patterns, pattern.FromTiming(report.ResponseTimes)...)
		report.Patterns = append(report.Patterns, pattern.FromReciprocity(report.Reciprocity)...)
		report.Patterns = append(report.Patterns, pattern.FromFlows(report.Flows)...)
	}, func(string) {
		report.Patterns = nil
	})

	report.Predictions = a.computePredictions(ctx, table, report.ResponseTimes)

	a.observe("ok", start, table.Len())
	a.logger.Info(ctx, "analysis complete",
		zap.Int("records", table.Len()),
		zap.Int("anomalies", len(report.Anomalies)),
		zap.Int("patterns", len(report.Patterns)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report
}

// runStep executes one sub-analysis, converting a panic into a logged
// warning plus the section's error stub.
func (a *Analyzer) runStep(ctx context.Context, name string, fn func(), onErr func(msg string)) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%s analysis failed: %v", name, r)
			a.logger.Warn(ctx, "sub-analysis failed", zap.String("step", name), zap.Any("cause", r))
			if a.metrics != nil {
				a.metrics.RecordStepFailure(name)
			}
			onErr(msg)
		}
	}()
	fn()
}

func (a *Analyzer) computeTiming(table *records.Table) *timing.Stats {
	key := fingerprint("response_times", table, a.cfg)
	if v, ok := a.cache.Get(key); ok {
		if stats, ok := v.(*timing.Stats); ok {
			return stats
		}
	}
	stats := timing.Compute(timing.ExtractPairs(table), timing.Config{
		QuickThreshold:   a.cfg.QuickThreshold,
		DelayedThreshold: a.cfg.DelayedThreshold,
	})
	a.cache.Put(key, stats)
	return stats
}

func (a *Analyzer) computeReciprocity(table *records.Table) *reciprocity.Report {
	key := fingerprint("reciprocity", table, a.cfg)
	if v, ok := a.cache.Get(key); ok {
		if report, ok := v.(*reciprocity.Report); ok {
			return report
		}
	}
	report := reciprocity.Analyze(table, reciprocity.Config{
		LowThreshold:  a.cfg.BalanceLow,
		HighThreshold: a.cfg.BalanceHigh,
		Timeout:       a.cfg.CounterpartyTimeout,
	})
	a.cache.Put(key, report)
	return report
}

func (a *Analyzer) computeFlows(table *records.Table) *segment.FlowSummary {
	key := fingerprint("conversation_flows", table, a.cfg)
	if v, ok := a.cache.Get(key); ok {
		if flows, ok := v.(*segment.FlowSummary); ok {
			return flows
		}
	}
	flows := segment.NewSegmenter(a.cfg.ConversationTimeout).AnalyzeFlows(table.Records())
	a.cache.Put(key, flows)
	return flows
}

func (a *Analyzer) computePredictions(ctx context.Context, table *records.Table, stats *timing.Stats) map[string]*Prediction {
	if a.predict == nil || stats == nil || stats.Error != "" {
		return nil
	}
	out := make(map[string]*Prediction)
	for _, party := range table.Counterparties() {
		p, err := a.predict.PredictResponse(ctx, party, stats)
		if err != nil {
			a.logger.Warn(ctx, "response prediction failed",
				zap.String("counterparty", party), zap.Error(err))
			continue
		}
		if p != nil {
			out[party] = p
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AnalyzeTiming runs only the response-time portion of the pipeline.
func (a *Analyzer) AnalyzeTiming(ctx context.Context, table *records.Table) (*timing.Stats, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return a.computeTiming(table), nil
}

// AnalyzeReciprocity runs only the reciprocity portion of the pipeline.
func (a *Analyzer) AnalyzeReciprocity(ctx context.Context, table *records.Table) (*reciprocity.Report, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return a.computeReciprocity(table), nil
}

// AnalyzeFlows runs only the conversation-flow portion of the pipeline.
func (a *Analyzer) AnalyzeFlows(ctx context.Context, table *records.Table) (*segment.FlowSummary, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return a.computeFlows(table), nil
}

func (a *Analyzer) observe(status string, start time.Time, recordCount int) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordAnalysis(status, time.Since(start), recordCount)
}
