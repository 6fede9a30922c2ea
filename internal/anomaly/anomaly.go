// Package anomaly flags unusual response behavior: statistical latency
// outliers and heavily one-sided counterparty relationships.
package anomaly

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/reciprocity"
	"github.com/fyrsmithlabs/commtrace/internal/timing"
)

// Anomaly types.
const (
	TypeResponseTimeOutlier  = "response_time_outlier"
	TypeReciprocityImbalance = "reciprocity_imbalance"
)

// reciprocitySeverity is the fixed severity assigned to one-sided
// relationships; imbalance has no natural magnitude on the outlier scale.
const reciprocitySeverity = 0.6

// Anomaly is a single flagged observation.
type Anomaly struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Counterparty string         `json:"counterparty"`
	Timestamp    time.Time      `json:"timestamp,omitempty"`
	Severity     float64        `json:"severity"`
	Description  string         `json:"description"`
	Details      map[string]any `json:"details,omitempty"`
}

// Detector scans completed sub-analyses for anomalies.
type Detector struct {
	logger *logging.Logger
}

// NewDetector creates a detector. A nil logger falls back to a no-op one.
func NewDetector(logger *logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{logger: logger.Named("anomaly")}
}

// Detect collects anomalies from the timing and reciprocity results. Each
// kind is detected independently; a failure in one kind is logged and
// yields zero anomalies of that kind without affecting the other. Response
// time anomalies always precede reciprocity anomalies in the result.
func (d *Detector) Detect(ctx context.Context, stats *timing.Stats, recip *reciprocity.Report) []Anomaly {
	var out []Anomaly

	if anomalies, err := d.detectResponseTimes(stats); err != nil {
		d.logger.Warn(ctx, "response time anomaly detection failed", zap.Error(err))
	} else {
		out = append(out, anomalies...)
	}

	if anomalies, err := d.detectReciprocity(recip); err != nil {
		d.logger.Warn(ctx, "reciprocity anomaly detection failed", zap.Error(err))
	} else {
		out = append(out, anomalies...)
	}

	return out
}

// detectResponseTimes emits one anomaly per IQR outlier pair. Severity is
// the relative deviation from the mean latency, capped at 1; a missing or
// zero mean maps to full severity. A panic over malformed details fails
// only this kind.
func (d *Detector) detectResponseTimes(stats *timing.Stats) (out []Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if stats == nil {
		return nil, nil
	}
	for _, p := range stats.Outliers {
		severity := 1.0
		if stats.Average != nil && *stats.Average > 0 {
			ratio := p.LatencySeconds / *stats.Average
			severity = math.Min(1, math.Abs(ratio - 1))
		}
		out = append(out, Anomaly{
			ID:           uuid.NewString(),
			Type:         TypeResponseTimeOutlier,
			Counterparty: p.Counterparty,
			Timestamp:    p.SentAt,
			Severity:     severity,
			Description:  fmt.Sprintf("response time outlier (%.0fs) for counterparty %s", p.LatencySeconds, p.Counterparty),
			Details: map[string]any{
				"latency_seconds": p.LatencySeconds,
			},
		})
	}
	return out, nil
}

// detectReciprocity emits one anomaly per counterparty whose history is
// entirely one-sided. Iteration follows sorted counterparty order so the
// output is stable. A panic over malformed summaries fails only this kind.
func (d *Detector) detectReciprocity(recip *reciprocity.Report) (out []Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if recip == nil {
		return nil, nil
	}
	for _, party := range sortedKeys(recip.ByCounterparty) {
		s := recip.ByCounterparty[party]
		if s.Balance != reciprocity.BalanceOnlySent && s.Balance != reciprocity.BalanceOnlyReceived {
			continue
		}
		out = append(out, Anomaly{
			ID:           uuid.NewString(),
			Type:         TypeReciprocityImbalance,
			Counterparty: party,
			Severity:     reciprocitySeverity,
			Description:  fmt.Sprintf("one-sided relationship (%s) with counterparty %s", s.Balance, party),
			Details: map[string]any{
				"balance":           string(s.Balance),
				"sent_messages":     s.Sent,
				"received_messages": s.Received,
			},
		})
	}
	return out, nil
}
