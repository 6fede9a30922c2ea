package segment

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

func TestSegment_Empty(t *testing.T) {
	s := NewSegmenter(DefaultTimeout)
	assert.Empty(t, s.Segment(nil))
}

func TestSegment_SingleRecord(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewSegmenter(DefaultTimeout)

	convs := s.Segment([]records.Record{rec(base, "a", records.DirectionSent)})
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].MessageCount)
	assert.Zero(t, convs[0].DurationSeconds)
	assert.Equal(t, records.DirectionSent, convs[0].InitiatorDirection)
	assert.Equal(t, records.DirectionSent, convs[0].TerminatorDirection)
}

func TestSegment_SplitsOnTimeout(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	recs := []records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(10*time.Minute), "a", records.DirectionSent),
		rec(base.Add(2*time.Hour), "a", records.DirectionReceived),
	}

	convs := NewSegmenter(time.Hour).Segment(recs)
	require.Len(t, convs, 2)
	assert.Equal(t, 1, convs[0].ID)
	assert.Equal(t, 2, convs[0].MessageCount)
	assert.Equal(t, 2, convs[1].ID)
	assert.Equal(t, 1, convs[1].MessageCount)
}

func TestSegment_GapEqualToTimeoutDoesNotSplit(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	recs := []records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(time.Hour), "a", records.DirectionSent),
	}

	convs := NewSegmenter(time.Hour).Segment(recs)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].MessageCount)
}

func TestSegment_HugeTimeoutYieldsOneConversation(t *testing.T) {
	base := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	recs := []records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(48*time.Hour), "b", records.DirectionSent),
		rec(base.Add(200*time.Hour), "a", records.DirectionReceived),
	}

	convs := NewSegmenter(1000000 * time.Hour).Segment(recs)
	require.Len(t, convs, 1)
	assert.Equal(t, 3, convs[0].MessageCount)
	assert.Equal(t, []string{"a", "b"}, convs[0].Counterparties)
}

func TestAnalyzeFlows(t *testing.T) {
	base := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC) // a Monday
	recs := []records.Record{
		rec(base, "a", records.DirectionReceived),
		rec(base.Add(5*time.Minute), "a", records.DirectionSent),
		rec(base.Add(10*time.Minute), "a", records.DirectionReceived),
		rec(base.Add(12*time.Minute), "a", records.DirectionSent),
		rec(base.Add(5*time.Hour), "b", records.DirectionSent),
	}

	summary := NewSegmenter(time.Hour).AnalyzeFlows(recs)
	require.Equal(t, 2, summary.ConversationCount)
	require.NotNil(t, summary.AverageMessageCount)
	assert.InDelta(t, 2.5, *summary.AverageMessageCount, 1e-9)
	assert.Equal(t, map[int]int{9: 1, 14: 1}, summary.StartsByHour)
	assert.Equal(t, map[string]int{"Monday": 2}, summary.StartsByDay)

	// First conversation contributes the received/sent 3-grams.
	require.NotEmpty(t, summary.CommonSequences)
	assert.Equal(t, 3, len(summary.CommonSequences[0].Sequence))

	// All runs in the 4-message conversation have length 1.
	require.NotNil(t, summary.TurnTaking.AvgUserTurnLength)
	assert.InDelta(t, 1.0, *summary.TurnTaking.AvgUserTurnLength, 1e-9)
	assert.Zero(t, summary.TurnTaking.MonologueCount)
}

func TestAnalyzeFlows_Empty(t *testing.T) {
	summary := NewSegmenter(time.Hour).AnalyzeFlows(nil)
	assert.Zero(t, summary.ConversationCount)
	assert.Nil(t, summary.AverageDuration)
	assert.Empty(t, summary.Error)
}
