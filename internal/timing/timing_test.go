package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/commtrace/internal/records"
)

func rec(ts time.Time, party string, dir records.Direction) records.Record {
	return records.Record{Timestamp: ts, Counterparty: party, Direction: dir}
}

func TestExtractPairs_ReceivedThenSent(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	table := records.NewTable([]records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(3*time.Minute), "a", records.DirectionSent),
		rec(base.Add(5*time.Minute), "a", records.DirectionReceived),
	})

	pairs := ExtractPairs(table)
	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].Counterparty)
	assert.InDelta(t, 180, pairs[0].LatencySeconds, 1e-9)
}

func TestExtractPairs_SentThenReceivedIgnored(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	table := records.NewTable([]records.Record{
		rec(base, "a", records.DirectionSent),
		rec(base.Add(time.Minute), "a", records.DirectionReceived),
	})
	assert.Empty(t, ExtractPairs(table))
}

func TestExtractPairs_CrossCounterpartyNotPaired(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	table := records.NewTable([]records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(time.Minute), "b", records.DirectionSent),
	})
	assert.Empty(t, ExtractPairs(table))
}

func TestExtractPairs_DropsNonPositiveLatency(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	table := records.NewTable([]records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base, "a", records.DirectionSent), // simultaneous: dropped
		rec(base.Add(time.Minute), "a", records.DirectionReceived),
		rec(base.Add(2*time.Minute), "a", records.DirectionSent),
	})

	pairs := ExtractPairs(table)
	require.Len(t, pairs, 1)
	for _, p := range pairs {
		assert.Greater(t, p.LatencySeconds, 0.0)
	}
}

func TestExtractPairs_OnlySentCounterparty(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	table := records.NewTable([]records.Record{
		rec(base, "a", records.DirectionSent),
		rec(base.Add(time.Minute), "a", records.DirectionSent),
		rec(base.Add(2*time.Minute), "a", records.DirectionSent),
	})
	assert.Empty(t, ExtractPairs(table))
}

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil, DefaultConfig())
	assert.Nil(t, stats.Average)
	assert.Nil(t, stats.Median)
	assert.Zero(t, stats.PairCount)
	assert.Zero(t, stats.QuickCount)
	assert.Zero(t, stats.DelayedCount)
}

func TestCompute_BasicStats(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	pairs := []ResponsePair{
		{Counterparty: "a", SentAt: base, LatencySeconds: 60},
		{Counterparty: "a", SentAt: base.Add(time.Hour), LatencySeconds: 120},
		{Counterparty: "b", SentAt: base.Add(2 * time.Hour), LatencySeconds: 7200},
	}

	stats := Compute(pairs, DefaultConfig())
	require.NotNil(t, stats.Average)
	assert.InDelta(t, 2460, *stats.Average, 1e-9)
	require.NotNil(t, stats.Median)
	assert.InDelta(t, 120, *stats.Median, 1e-9)
	assert.Equal(t, 2, stats.QuickCount)   // 60s, 120s < 300s
	assert.Equal(t, 1, stats.DelayedCount) // 7200s > 3600s
	assert.InDelta(t, 90, stats.PerCounterparty["a"], 1e-9)
	assert.InDelta(t, 7200, stats.PerCounterparty["b"], 1e-9)
	assert.Equal(t, 3, stats.PairCount)
}

func TestCompute_IQROutliersDeterministic(t *testing.T) {
	pairs := func() []ResponsePair {
		base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
		var ps []ResponsePair
		for i := 0; i < 10; i++ {
			ps = append(ps, ResponsePair{
				Counterparty:   "a",
				SentAt:         base.Add(time.Duration(i) * time.Minute),
				LatencySeconds: 100,
			})
		}
		// One extreme value well past the upper fence.
		ps = append(ps, ResponsePair{Counterparty: "a", SentAt: base, LatencySeconds: 50000})
		return ps
	}

	first := Compute(pairs(), DefaultConfig())
	second := Compute(pairs(), DefaultConfig())

	require.Len(t, first.Outliers, 1)
	assert.InDelta(t, 50000, first.Outliers[0].LatencySeconds, 1e-9)
	assert.Equal(t, first.Outliers, second.Outliers)
}

func TestCompute_DistributionAndBestHour(t *testing.T) {
	base := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	pairs := []ResponsePair{
		{Counterparty: "a", SentAt: base, LatencySeconds: 30},                     // bin [0,60), morning
		{Counterparty: "a", SentAt: base.Add(13 * time.Hour), LatencySeconds: 90}, // bin [60,300), evening
	}

	stats := Compute(pairs, DefaultConfig())
	require.NotNil(t, stats.Distribution)
	assert.Equal(t, 1, stats.Distribution.Counts[0])
	assert.Equal(t, 1, stats.Distribution.Counts[1])
	require.NotNil(t, stats.BestHour)
	assert.Equal(t, 8, *stats.BestHour)
	require.NotNil(t, stats.TimeOfDay.Morning)
	assert.InDelta(t, 30, *stats.TimeOfDay.Morning, 1e-9)
	require.NotNil(t, stats.TimeOfDay.Evening)
	assert.InDelta(t, 90, *stats.TimeOfDay.Evening, 1e-9)
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, percentile(values, 50), 1e-9)
	assert.InDelta(t, 1.75, percentile(values, 25), 1e-9)
	assert.InDelta(t, 4, percentile(values, 100), 1e-9)
	assert.InDelta(t, 7, percentile([]float64{7}, 95), 1e-9)
}
