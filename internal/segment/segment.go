// Package segment groups time-sorted records into conversations by
// inactivity timeout and derives conversation-flow statistics from them.
package segment

import (
	"time"

	"github.com/fyrsmithlabs/commtrace/internal/records"
)

// DefaultTimeout is the inactivity gap that ends a conversation.
const DefaultTimeout = time.Hour

// Conversation is a maximal run of records whose consecutive gaps do not
// exceed the timeout. Conversations are derived values: recomputed per
// analysis call and never mutated after creation.
type Conversation struct {
	ID                  int               `json:"conversation_id"`
	StartTime           time.Time         `json:"start_time"`
	EndTime             time.Time         `json:"end_time"`
	DurationSeconds     float64           `json:"duration_seconds"`
	MessageCount        int               `json:"message_count"`
	Counterparties      []string          `json:"counterparties_involved"`
	InitiatorDirection  records.Direction `json:"initiator_direction"`
	TerminatorDirection records.Direction `json:"terminator_direction"`

	records []records.Record
}

// Records returns the conversation's records in time order.
func (c *Conversation) Records() []records.Record {
	return c.records
}

// Segmenter splits a sorted record sequence into conversations.
type Segmenter struct {
	timeout time.Duration
}

// NewSegmenter creates a segmenter. A non-positive timeout falls back to
// DefaultTimeout; use a timeout larger than the dataset span to force a
// single conversation.
func NewSegmenter(timeout time.Duration) *Segmenter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Segmenter{timeout: timeout}
}

// Timeout returns the configured inactivity timeout.
func (s *Segmenter) Timeout() time.Duration {
	return s.timeout
}

// Segment groups recs into conversations. recs must already be sorted by
// time (optionally pre-filtered to one counterparty). A record starts a new
// conversation when it is the first record or its gap from the predecessor
// strictly exceeds the timeout. Empty input yields zero conversations.
func (s *Segmenter) Segment(recs []records.Record) []Conversation {
	if len(recs) == 0 {
		return nil
	}

	var convs []Conversation
	start := 0
	for i := 1; i <= len(recs); i++ {
		if i < len(recs) && recs[i].Timestamp.Sub(recs[i-1].Timestamp) <= s.timeout {
			continue
		}
		convs = append(convs, build(len(convs)+1, recs[start:i]))
		start = i
	}
	return convs
}

func build(id int, recs []records.Record) Conversation {
	first, last := recs[0], recs[len(recs)-1]

	seen := make(map[string]struct{})
	var parties []string
	for _, r := range recs {
		if _, ok := seen[r.Counterparty]; !ok {
			seen[r.Counterparty] = struct{}{}
			parties = append(parties, r.Counterparty)
		}
	}

	return Conversation{
		ID:                  id,
		StartTime:           first.Timestamp,
		EndTime:             last.Timestamp,
		DurationSeconds:     last.Timestamp.Sub(first.Timestamp).Seconds(),
		MessageCount:        len(recs),
		Counterparties:      parties,
		InitiatorDirection:  first.Direction,
		TerminatorDirection: last.Direction,
		records:             recs,
	}
}
