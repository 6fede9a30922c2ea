package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/commtrace/internal/reciprocity"
	"github.com/fyrsmithlabs/commtrace/internal/segment"
	"github.com/fyrsmithlabs/commtrace/internal/timing"
)

func fp(v float64) *float64 { return &v }

func findPattern(patterns []Pattern, subtype string) *Pattern {
	for i := range patterns {
		if patterns[i].Subtype == subtype {
			return &patterns[i]
		}
	}
	return nil
}

func TestAverageSignificance(t *testing.T) {
	assert.InDelta(t, 3, averageSignificance(10), 1e-9)
	assert.InDelta(t, 1.5, averageSignificance(35), 1e-9)
	assert.InDelta(t, 0.5, averageSignificance(600), 1e-9)
	assert.InDelta(t, 1.5, averageSignificance(3000), 1e-9) // clamped
	assert.InDelta(t, 3, averageSignificance(10000), 1e-9)  // min(3, 1.5*10000/3600)
	assert.InDelta(t, 1.875, averageSignificance(4500), 1e-9)
}

func TestFromTiming_QuickThresholdStrict(t *testing.T) {
	// quick ratio exactly 0.3 must not emit a pattern.
	stats := &timing.Stats{PairCount: 10, QuickCount: 3}
	assert.Nil(t, findPattern(FromTiming(stats), SubtypeQuickResponder))

	stats.QuickCount = 4
	p := findPattern(FromTiming(stats), SubtypeQuickResponder)
	require.NotNil(t, p)
	assert.InDelta(t, 2, p.Significance, 1e-9) // min(3, 0.4*5)
	assert.Equal(t, 4, p.Occurrences)
}

func TestFromTiming_DelayedAndAverage(t *testing.T) {
	stats := &timing.Stats{Average: fp(5000), PairCount: 10, DelayedCount: 3}

	patterns := FromTiming(stats)
	avg := findPattern(patterns, SubtypeAverage)
	require.NotNil(t, avg)
	assert.InDelta(t, 1.5*5000/3600, avg.Significance, 1e-9)

	delayed := findPattern(patterns, SubtypeDelayedResponder)
	require.NotNil(t, delayed)
	assert.InDelta(t, 1.8, delayed.Significance, 1e-9) // 0.3*6
}

func TestFromTiming_ZeroTotalNoRatioPatterns(t *testing.T) {
	patterns := FromTiming(&timing.Stats{})
	assert.Empty(t, patterns)
}

func TestFromTiming_FallbackDenominator(t *testing.T) {
	// No pair count recorded: denominator is quick+delayed.
	stats := &timing.Stats{QuickCount: 2, DelayedCount: 2}
	p := findPattern(FromTiming(stats), SubtypeQuickResponder)
	require.NotNil(t, p)
	assert.InDelta(t, 2.5, p.Significance, 1e-9) // ratio 0.5 -> min(3, 2.5)
}

func TestFromReciprocity(t *testing.T) {
	report := &reciprocity.Report{
		OverallInitiationRatio: fp(0.9),
		ByCounterparty: map[string]*reciprocity.Summary{
			"a": {TotalInitiations: 8},
			"b": {TotalInitiations: 2},
		},
	}

	patterns := FromReciprocity(report)
	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Equal(t, SubtypeInitiationImbalance, p.Subtype)
	assert.InDelta(t, 2.4, p.Significance, 1e-9) // |0.5-0.9|*6
	assert.Equal(t, 10, p.Occurrences)
	assert.Contains(t, p.Description, "user-initiated")
}

func TestFromReciprocity_BalancedOrMissing(t *testing.T) {
	assert.Nil(t, FromReciprocity(&reciprocity.Report{OverallInitiationRatio: fp(0.5)}))
	assert.Nil(t, FromReciprocity(&reciprocity.Report{}))
	assert.Nil(t, FromReciprocity(nil))
}

func TestFromFlows(t *testing.T) {
	flows := &segment.FlowSummary{
		ConversationCount:   12,
		AverageDuration:     fp(5400),
		AverageMessageCount: fp(20),
	}

	patterns := FromFlows(flows)
	long := findPattern(patterns, SubtypeLongConversations)
	require.NotNil(t, long)
	assert.InDelta(t, 1.5, long.Significance, 1e-9) // min(2, 5400/3600)

	intensive := findPattern(patterns, SubtypeMessageIntensive)
	require.NotNil(t, intensive)
	assert.InDelta(t, 2, intensive.Significance, 1e-9) // min(2, 20/10)
}

func TestFromFlows_BelowThresholds(t *testing.T) {
	flows := &segment.FlowSummary{
		ConversationCount:   10, // not > 10
		AverageDuration:     fp(5400),
		AverageMessageCount: fp(15), // not > 15
	}
	assert.Empty(t, FromFlows(flows))
}

func TestRescore_BoundedAndSorted(t *testing.T) {
	patterns := []Pattern{
		{Subtype: "low", Significance: 1.5, Occurrences: 1},
		{Subtype: "high", Significance: 3, Occurrences: 100},
	}

	out := Rescore(patterns, 100)
	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].Subtype)
	assert.InDelta(t, 1.0, out[0].Significance, 1e-9) // 1 * min(1, 100/10)
	assert.InDelta(t, 0.05, out[1].Significance, 1e-9)
	for _, p := range out {
		assert.LessOrEqual(t, p.Significance, 1.0)
	}
}

func TestRescore_MonotonicInOccurrences(t *testing.T) {
	prev := -1.0
	for _, occ := range []int{0, 1, 2, 5, 10, 50} {
		out := Rescore([]Pattern{{Significance: 3, Occurrences: occ}}, 100)
		assert.GreaterOrEqual(t, out[0].Significance, prev)
		prev = out[0].Significance
	}
}

func TestRescore_SuppliedConfidenceWins(t *testing.T) {
	out := Rescore([]Pattern{{Significance: 3, Confidence: fp(0.2), Occurrences: 100}}, 100)
	assert.InDelta(t, 0.2, out[0].Significance, 1e-9)
}

func TestRescore_ZeroRecords(t *testing.T) {
	out := Rescore([]Pattern{{Significance: 3, Occurrences: 5}}, 0)
	assert.Zero(t, out[0].Significance)
}

func TestRescore_DoesNotMutateInput(t *testing.T) {
	in := []Pattern{{Significance: 3, Occurrences: 5}}
	Rescore(in, 100)
	assert.InDelta(t, 3, in[0].Significance, 1e-9)
}
