// Package pattern converts raw analysis results into uniform scored
// pattern records and applies the final cross-source significance
// rescaling.
package pattern

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/commtrace/internal/reciprocity"
	"github.com/fyrsmithlabs/commtrace/internal/segment"
	"github.com/fyrsmithlabs/commtrace/internal/timing"
)

// Pattern types.
const (
	TypeResponseTime     = "response_time"
	TypeReciprocity      = "reciprocity"
	TypeConversationFlow = "conversation_flow"
)

// Pattern subtypes.
const (
	SubtypeAverage             = "average"
	SubtypeQuickResponder      = "quick_responder"
	SubtypeDelayedResponder    = "delayed_responder"
	SubtypeInitiationImbalance = "initiation_imbalance"
	SubtypeLongConversations   = "long_conversations"
	SubtypeMessageIntensive    = "message_intensive"
)

// Pattern is a uniform, scored, human-describable summary record.
// Significance carries the first-stage score (scale 0..3) until Rescore
// replaces it with the final [0,1] value. Confidence, when set by the
// producer, is a [0,1] value that overrides the derived one.
type Pattern struct {
	Type         string         `json:"pattern_type"`
	Subtype      string         `json:"subtype"`
	Description  string         `json:"description"`
	Significance float64        `json:"significance"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Occurrences  int            `json:"occurrences"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Thresholds for first-stage pattern emission. All comparisons are strict.
const (
	quickRatioThreshold     = 0.3
	delayedRatioThreshold   = 0.2
	initiationLowThreshold  = 0.3
	initiationHighThreshold = 0.7
	longConversationMin     = 10
	longDurationSeconds     = 1800
	intensiveMessageCount   = 15
)

// FromTiming derives response-time patterns from timing statistics.
func FromTiming(stats *timing.Stats) []Pattern {
	if stats == nil {
		return nil
	}
	var out []Pattern

	if stats.Average != nil {
		avg := *stats.Average
		out = append(out, Pattern{
			Type:         TypeResponseTime,
			Subtype:      SubtypeAverage,
			Description:  fmt.Sprintf("average response time of %.0f seconds", avg),
			Significance: averageSignificance(avg),
			Occurrences:  stats.PairCount,
			Metadata:     map[string]any{"average_seconds": avg},
		})
	}

	// Ratio denominators fall back to quick+delayed when no pair count is
	// recorded; zero total emits no ratio patterns.
	total := stats.PairCount
	if total == 0 {
		total = stats.QuickCount + stats.DelayedCount
	}
	if total > 0 {
		if ratio := float64(stats.QuickCount) / float64(total); ratio > quickRatioThreshold {
			out = append(out, Pattern{
				Type:         TypeResponseTime,
				Subtype:      SubtypeQuickResponder,
				Description:  fmt.Sprintf("quick responses for %.0f%% of replies", ratio*100),
				Significance: math.Min(3, ratio*5),
				Occurrences:  stats.QuickCount,
				Metadata:     map[string]any{"quick_ratio": ratio},
			})
		}
		if ratio := float64(stats.DelayedCount) / float64(total); ratio > delayedRatioThreshold {
			out = append(out, Pattern{
				Type:         TypeResponseTime,
				Subtype:      SubtypeDelayedResponder,
				Description:  fmt.Sprintf("delayed responses for %.0f%% of replies", ratio*100),
				Significance: math.Min(3, ratio*6),
				Occurrences:  stats.DelayedCount,
				Metadata:     map[string]any{"delayed_ratio": ratio},
			})
		}
	}
	return out
}

// FromReciprocity derives initiation-balance patterns.
func FromReciprocity(report *reciprocity.Report) []Pattern {
	if report == nil || report.OverallInitiationRatio == nil {
		return nil
	}
	ratio := *report.OverallInitiationRatio
	if ratio >= initiationLowThreshold && ratio <= initiationHighThreshold {
		return nil
	}

	occurrences := 0
	for _, s := range report.ByCounterparty {
		occurrences += s.TotalInitiations
	}
	side := "user"
	if ratio < initiationLowThreshold {
		side = "counterparty"
	}
	return []Pattern{{
		Type:         TypeReciprocity,
		Subtype:      SubtypeInitiationImbalance,
		Description:  fmt.Sprintf("conversations are mostly %s-initiated (ratio %.2f)", side, ratio),
		Significance: math.Min(2.5, math.Abs(0.5-ratio)*6),
		Occurrences:  occurrences,
		Metadata:     map[string]any{"initiation_ratio": ratio},
	}}
}

// FromFlows derives conversation-flow patterns from the flow summary.
func FromFlows(flows *segment.FlowSummary) []Pattern {
	if flows == nil {
		return nil
	}
	var out []Pattern

	if flows.ConversationCount > longConversationMin &&
		flows.AverageDuration != nil && *flows.AverageDuration > longDurationSeconds {
		out = append(out, Pattern{
			Type:         TypeConversationFlow,
			Subtype:      SubtypeLongConversations,
			Description:  fmt.Sprintf("conversations average %.0f minutes", *flows.AverageDuration/60),
			Significance: math.Min(2, *flows.AverageDuration/3600),
			Occurrences:  flows.ConversationCount,
			Metadata:     map[string]any{"average_duration_seconds": *flows.AverageDuration},
		})
	}
	if flows.AverageMessageCount != nil && *flows.AverageMessageCount > intensiveMessageCount {
		out = append(out, Pattern{
			Type:         TypeConversationFlow,
			Subtype:      SubtypeMessageIntensive,
			Description:  fmt.Sprintf("conversations average %.0f messages", *flows.AverageMessageCount),
			Significance: math.Min(2, *flows.AverageMessageCount/10),
			Occurrences:  flows.ConversationCount,
			Metadata:     map[string]any{"average_message_count": *flows.AverageMessageCount},
		})
	}
	return out
}

// averageSignificance scores an average latency: very fast and very slow
// averages score high, the middle band is clamped to [0.5, 1.5].
func averageSignificance(avg float64) float64 {
	switch {
	case avg < 60:
		return math.Min(3, 3*(60-avg)/50)
	case avg > 3600:
		return math.Min(3, 1.5*avg/3600)
	default:
		return clamp(math.Abs(600-avg)/600, 0.5, 1.5)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
