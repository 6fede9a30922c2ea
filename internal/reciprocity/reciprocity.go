// Package reciprocity computes the sent/received balance and initiation
// behavior between the user and each counterparty.
package reciprocity

import (
	"encoding/json"
	"math"
	"time"

	"github.com/fyrsmithlabs/commtrace/internal/records"
	"github.com/fyrsmithlabs/commtrace/internal/segment"
)

// Balance classifies a counterparty relationship by sent ratio.
type Balance string

const (
	BalanceBalanced       Balance = "balanced"
	BalanceMostlySent     Balance = "mostly_sent"
	BalanceMostlyReceived Balance = "mostly_received"
	BalanceOnlySent       Balance = "only_sent"
	BalanceOnlyReceived   Balance = "only_received"
	BalanceNoMessages     Balance = "no_messages"
)

// Default ratio thresholds for the balanced band.
const (
	DefaultLowThreshold  = 0.4
	DefaultHighThreshold = 0.6
)

// Ratio is a float64 that marshals the IEEE infinities as strings, keeping
// one-sided message ratios JSON-representable.
type Ratio float64

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsInf(v, 1) {
		return json.Marshal("inf")
	}
	if math.IsInf(v, -1) {
		return json.Marshal("-inf")
	}
	return json.Marshal(v)
}

// Summary holds the per-counterparty reciprocity metrics.
type Summary struct {
	Sent                    int      `json:"sent_messages"`
	Received                int      `json:"received_messages"`
	Total                   int      `json:"total_messages"`
	SentRatio               float64  `json:"sent_ratio"`
	Balance                 Balance  `json:"relationship_balance"`
	MessageRatio            Ratio    `json:"message_ratio"`
	UserInitiations         int      `json:"user_initiations"`
	CounterpartyInitiations int      `json:"counterparty_initiations"`
	TotalInitiations        int      `json:"total_initiations"`
	UserInitiationRatio     *float64 `json:"user_initiation_ratio"`
}

// Report is the reciprocity analysis over a whole dataset.
type Report struct {
	OverallInitiationRatio *float64            `json:"overall_initiation_ratio"`
	ByCounterparty         map[string]*Summary `json:"contact_reciprocity"`
	Error                  string              `json:"error,omitempty"`
}

// Config holds the reciprocity analysis parameters. The conversation
// timeout here is the per-counterparty one, distinct from the global
// segmenter instance.
type Config struct {
	LowThreshold  float64
	HighThreshold float64
	Timeout       time.Duration
}

// DefaultConfig returns the default thresholds and timeout.
func DefaultConfig() Config {
	return Config{
		LowThreshold:  DefaultLowThreshold,
		HighThreshold: DefaultHighThreshold,
		Timeout:       segment.DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.LowThreshold <= 0 {
		c.LowThreshold = DefaultLowThreshold
	}
	if c.HighThreshold <= 0 {
		c.HighThreshold = DefaultHighThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = segment.DefaultTimeout
	}
	return c
}

// Analyze computes per-counterparty balance and initiation metrics. Each
// counterparty's timeline is segmented with the per-counterparty timeout;
// the direction of the first record in each conversation is an initiation
// attributed to that direction.
func Analyze(t *records.Table, cfg Config) *Report {
	cfg = cfg.withDefaults()
	seg := segment.NewSegmenter(cfg.Timeout)

	report := &Report{ByCounterparty: make(map[string]*Summary)}
	var userInits, partyInits int

	for _, party := range t.Counterparties() {
		recs := t.ForCounterparty(party)

		s := &Summary{}
		for _, r := range recs {
			if r.Direction == records.DirectionSent {
				s.Sent++
			} else {
				s.Received++
			}
		}
		s.Total = s.Sent + s.Received
		if s.Total > 0 {
			s.SentRatio = float64(s.Sent) / float64(s.Total)
		}
		s.Balance = classify(s.Sent, s.Received, cfg.LowThreshold, cfg.HighThreshold)
		s.MessageRatio = messageRatio(s.Sent, s.Received)

		for _, conv := range seg.Segment(recs) {
			if conv.InitiatorDirection == records.DirectionSent {
				s.UserInitiations++
			} else {
				s.CounterpartyInitiations++
			}
		}
		s.TotalInitiations = s.UserInitiations + s.CounterpartyInitiations
		if s.TotalInitiations > 0 {
			ratio := float64(s.UserInitiations) / float64(s.TotalInitiations)
			s.UserInitiationRatio = &ratio
		}
		userInits += s.UserInitiations
		partyInits += s.CounterpartyInitiations

		report.ByCounterparty[party] = s
	}

	if total := userInits + partyInits; total > 0 {
		ratio := float64(userInits) / float64(total)
		report.OverallInitiationRatio = &ratio
	}
	return report
}

// classify is a pure function of the counts and thresholds; it is always
// defined, falling back to no_messages for an empty relationship.
func classify(sent, received int, low, high float64) Balance {
	total := sent + received
	switch {
	case total == 0:
		return BalanceNoMessages
	case received == 0 && sent > 0:
		return BalanceOnlySent
	case sent == 0 && received > 0:
		return BalanceOnlyReceived
	}
	ratio := float64(sent) / float64(total)
	switch {
	case ratio < low:
		return BalanceMostlyReceived
	case ratio > high:
		return BalanceMostlySent
	default:
		return BalanceBalanced
	}
}

// messageRatio is sent/received with defined edges: one-sided histories
// map to +Inf or 0, and an empty history defaults to 1.
func messageRatio(sent, received int) Ratio {
	switch {
	case received == 0 && sent > 0:
		return Ratio(math.Inf(1))
	case sent == 0 && received > 0:
		return 0
	case sent == 0 && received == 0:
		return 1
	default:
		return Ratio(float64(sent) / float64(received))
	}
}
