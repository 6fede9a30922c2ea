package segment

import (
	"sort"

	"github.com/fyrsmithlabs/commtrace/internal/records"
)

// Runs of this length or more count as monologues.
const monologueRunLength = 5

// DirectionSequence is a frequent 3-message direction n-gram observed
// within conversations.
type DirectionSequence struct {
	Sequence []records.Direction `json:"sequence"`
	Count    int                 `json:"count"`
}

// TurnTaking summarizes consecutive same-direction message runs.
type TurnTaking struct {
	AvgUserTurnLength         *float64 `json:"avg_user_turn_length"`
	AvgCounterpartyTurnLength *float64 `json:"avg_counterparty_turn_length"`
	MaxUserTurnLength         int      `json:"max_user_turn_length"`
	MaxCounterpartyTurnLength int      `json:"max_counterparty_turn_length"`
	MonologueCount            int      `json:"monologue_count"`
}

// FlowSummary aggregates conversation-flow statistics across a dataset.
// An unset Error with zero ConversationCount is a valid result for sparse
// input, not a failure.
type FlowSummary struct {
	ConversationCount   int                 `json:"conversation_count"`
	AverageDuration     *float64            `json:"average_duration_seconds"`
	AverageMessageCount *float64            `json:"average_message_count"`
	StartsByHour        map[int]int         `json:"distribution_by_hour"`
	StartsByDay         map[string]int      `json:"distribution_by_day"`
	CommonSequences     []DirectionSequence `json:"common_sequences"`
	TurnTaking          TurnTaking          `json:"turn_taking_metrics"`
	Conversations       []Conversation      `json:"details"`
	Error               string              `json:"error,omitempty"`
}

// AnalyzeFlows segments recs and aggregates per-conversation statistics:
// counts, averages, start-time distributions, frequent direction 3-grams,
// and turn-taking metrics.
func (s *Segmenter) AnalyzeFlows(recs []records.Record) *FlowSummary {
	convs := s.Segment(recs)
	summary := &FlowSummary{
		StartsByHour: make(map[int]int),
		StartsByDay:  make(map[string]int),
	}
	if len(convs) == 0 {
		return summary
	}

	var durationSum, countSum float64
	for _, c := range convs {
		durationSum += c.DurationSeconds
		countSum += float64(c.MessageCount)
		summary.StartsByHour[c.StartTime.Hour()]++
		summary.StartsByDay[c.StartTime.Weekday().String()]++
	}

	n := float64(len(convs))
	avgDur := durationSum / n
	avgCount := countSum / n
	summary.ConversationCount = len(convs)
	summary.AverageDuration = &avgDur
	summary.AverageMessageCount = &avgCount
	summary.CommonSequences = commonSequences(convs)
	summary.TurnTaking = turnTaking(convs)
	summary.Conversations = convs
	return summary
}

// commonSequences counts sliding 3-message direction windows in
// conversations with at least 3 messages and returns the top 5.
func commonSequences(convs []Conversation) []DirectionSequence {
	counts := make(map[[3]records.Direction]int)
	for _, c := range convs {
		recs := c.Records()
		for i := 0; i+2 < len(recs); i++ {
			key := [3]records.Direction{recs[i].Direction, recs[i+1].Direction, recs[i+2].Direction}
			counts[key]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]DirectionSequence, 0, len(counts))
	for key, count := range counts {
		out = append(out, DirectionSequence{
			Sequence: []records.Direction{key[0], key[1], key[2]},
			Count:    count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return less(out[i].Sequence, out[j].Sequence)
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func less(a, b []records.Direction) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// turnTaking measures run lengths of consecutive same-direction messages
// across conversations with at least 3 messages.
func turnTaking(convs []Conversation) TurnTaking {
	var userRuns, partyRuns []int
	for _, c := range convs {
		recs := c.Records()
		if len(recs) < 3 {
			continue
		}
		runDir := recs[0].Direction
		runLen := 1
		for _, r := range recs[1:] {
			if r.Direction == runDir {
				runLen++
				continue
			}
			if runDir == records.DirectionSent {
				userRuns = append(userRuns, runLen)
			} else {
				partyRuns = append(partyRuns, runLen)
			}
			runDir = r.Direction
			runLen = 1
		}
		if runDir == records.DirectionSent {
			userRuns = append(userRuns, runLen)
		} else {
			partyRuns = append(partyRuns, runLen)
		}
	}

	tt := TurnTaking{}
	if avg, max := runStats(userRuns); avg != nil {
		tt.AvgUserTurnLength = avg
		tt.MaxUserTurnLength = max
	}
	if avg, max := runStats(partyRuns); avg != nil {
		tt.AvgCounterpartyTurnLength = avg
		tt.MaxCounterpartyTurnLength = max
	}
	for _, l := range append(append([]int{}, userRuns...), partyRuns...) {
		if l >= monologueRunLength {
			tt.MonologueCount++
		}
	}
	return tt
}

func runStats(runs []int) (*float64, int) {
	if len(runs) == 0 {
		return nil, 0
	}
	sum, max := 0, 0
	for _, l := range runs {
		sum += l
		if l > max {
			max = l
		}
	}
	avg := float64(sum) / float64(len(runs))
	return &avg, max
}
