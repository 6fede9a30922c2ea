// Package orchestrator composes the response analyzer with sibling
// pattern detectors into one ranked composite report. Detector failures
// are isolated: each failing detector contributes an error entry, never
// an aborted run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commtrace/internal/analyzer"
	"github.com/fyrsmithlabs/commtrace/internal/anomaly"
	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/pattern"
	"github.com/fyrsmithlabs/commtrace/internal/records"
)

const tracerName = "commtrace/orchestrator"

// Result is one detector's contribution to the composite report.
type Result struct {
	Patterns  []pattern.Pattern
	Anomalies []anomaly.Anomaly
}

// Detector is a sibling pattern detector (trend, seasonality, gap,
// overlap analysis and the like) run alongside the response analyzer.
type Detector interface {
	Name() string
	Analyze(ctx context.Context, table *records.Table) (*Result, error)
}

// CompositeReport is the orchestrator's output. DetectedPatterns carry
// final [0,1] significance and are sorted descending. Errors lists
// detectors that failed; a set top-level Error means the input itself was
// rejected.
type CompositeReport struct {
	RunID            string            `json:"run_id"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Response         *analyzer.Report  `json:"response_analysis,omitempty"`
	DetectedPatterns []pattern.Pattern `json:"detected_patterns,omitempty"`
	Anomalies        []anomaly.Anomaly `json:"anomalies,omitempty"`
	Errors           []string          `json:"errors,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// Orchestrator runs the full detection pipeline.
type Orchestrator struct {
	analyzer  *analyzer.Analyzer
	detectors []Detector
	logger    *logging.Logger
}

// New creates an orchestrator around the response analyzer. A nil logger
// falls back to a no-op one.
func New(a *analyzer.Analyzer, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		analyzer: a,
		logger:   logger.Named("orchestrator"),
	}
}

// RegisterDetector adds a sibling detector. Detectors run in registration
// order after the response analyzer.
func (o *Orchestrator) RegisterDetector(d Detector) {
	o.detectors = append(o.detectors, d)
}

// Run executes the response analyzer and every registered detector over
// the table, rescales all pattern significances onto a common [0,1]
// scale, and returns the ranked composite report.
func (o *Orchestrator) Run(ctx context.Context, table *records.Table) *CompositeReport {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "orchestrator.Run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))

	report := &CompositeReport{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
	}

	if err := table.Validate(); err != nil {
		report.Error = err.Error()
		return report
	}

	response := o.analyzer.Analyze(ctx, table)
	report.Response = response
	report.Anomalies = append(report.Anomalies, response.Anomalies...)

	patterns := make([]pattern.Pattern, 0, len(response.Patterns))
	patterns = append(patterns, response.Patterns...)

	for _, d := range o.detectors {
		result, err := o.runDetector(ctx, d, table)
		if err != nil {
			o.logger.Warn(ctx, "detector failed", zap.String("detector", d.Name()), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", d.Name(), err))
			continue
		}
		if result == nil {
			continue
		}
		patterns = append(patterns, result.Patterns...)
		report.Anomalies = append(report.Anomalies, result.Anomalies...)
	}

	report.DetectedPatterns = pattern.Rescore(patterns, table.Len())
	span.SetAttributes(
		attribute.Int("patterns.count", len(report.DetectedPatterns)),
		attribute.Int("anomalies.count", len(report.Anomalies)),
	)
	return report
}

// runDetector invokes one detector, converting a panic into an error so a
// misbehaving sibling cannot take down the run.
func (o *Orchestrator) runDetector(ctx context.Context, d Detector, table *records.Table) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "detector."+d.Name())
	defer span.End()
	return d.Analyze(ctx, table)
}
