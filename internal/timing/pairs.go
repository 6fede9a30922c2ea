// Package timing extracts response pairs from communication records and
// aggregates their latencies into distribution statistics.
package timing

import (
	"time"

	"github.com/fyrsmithlabs/commtrace/internal/records"
)

// ResponsePair is a received record immediately followed, within the same
// counterparty's timeline, by a sent record. Latency is always positive:
// pairs with zero or negative latency (clock skew, duplicate timestamps)
// are dropped during extraction, never clamped or reported.
type ResponsePair struct {
	Counterparty   string    `json:"counterparty"`
	ReceivedAt     time.Time `json:"received_ts"`
	SentAt         time.Time `json:"sent_ts"`
	LatencySeconds float64   `json:"response_time_seconds"`
	IsOutlier      bool      `json:"is_outlier"`
	IsQuick        bool      `json:"is_quick"`
	IsDelayed      bool      `json:"is_delayed"`
}

// ExtractPairs finds received-then-sent transitions between temporally adjacent
// records of the same counterparty. The table's (counterparty, time) order
// with stable ties defines adjacency.
func ExtractPairs(t *records.Table) []ResponsePair {
	recs := t.SortedByCounterparty()

	var pairs []ResponsePair
	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if cur.Counterparty != prev.Counterparty {
			continue
		}
		if prev.Direction != records.DirectionReceived || cur.Direction != records.DirectionSent {
			continue
		}
		latency := cur.Timestamp.Sub(prev.Timestamp).Seconds()
		if latency <= 0 {
			continue
		}
		pairs = append(pairs, ResponsePair{
			Counterparty:   cur.Counterparty,
			ReceivedAt:     prev.Timestamp,
			SentAt:         cur.Timestamp,
			LatencySeconds: latency,
		})
	}
	return pairs
}
