package analyzer

import (
	"context"

	"github.com/fyrsmithlabs/commtrace/internal/timing"
)

// Prediction estimates a counterparty's next response latency.
type Prediction struct {
	ExpectedLatencySeconds float64 `json:"expected_latency_seconds"`
	Confidence             float64 `json:"confidence"`
	SampleSize             int     `json:"sample_size"`
}

// Predictor is the trainable model collaborator. A nil Prediction with a
// nil error means the model abstains for that counterparty; errors are
// logged and degrade to no prediction, never a failed analysis.
type Predictor interface {
	PredictResponse(ctx context.Context, counterparty string, stats *timing.Stats) (*Prediction, error)
}

// HeuristicPredictor predicts from observed per-counterparty averages.
// It stands in when no trained model is wired.
type HeuristicPredictor struct{}

// PredictResponse returns the counterparty's mean latency with a
// confidence that grows with sample size and caps at 0.5; heuristics
// never claim model-grade confidence.
func (HeuristicPredictor) PredictResponse(_ context.Context, counterparty string, stats *timing.Stats) (*Prediction, error) {
	avg, ok := stats.PerCounterparty[counterparty]
	if !ok {
		return nil, nil
	}
	n := 0
	for _, p := range stats.Pairs {
		if p.Counterparty == counterparty {
			n++
		}
	}
	confidence := 0.1 + float64(n)/100*0.4
	if confidence > 0.5 {
		confidence = 0.5
	}
	return &Prediction{
		ExpectedLatencySeconds: avg,
		Confidence:             confidence,
		SampleSize:             n,
	}, nil
}
