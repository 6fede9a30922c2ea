package records

import (
	"sort"
	"time"
)

// Table is an ordered, time-sorted collection of records. The sort is
// stable: records with identical timestamps keep their original input
// order. A Table is never mutated after construction.
type Table struct {
	recs []Record
}

// NewTable copies recs and stable-sorts them by timestamp.
func NewTable(recs []Record) *Table {
	cp := make([]Record, len(recs))
	copy(cp, recs)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})
	return &Table{recs: cp}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.recs)
}

// Records returns the time-sorted records. Callers must not modify the
// returned slice.
func (t *Table) Records() []Record {
	return t.recs
}

// Counterparties returns the distinct counterparty identifiers in first-seen
// order, which keeps iteration deterministic.
func (t *Table) Counterparties() []string {
	seen := make(map[string]struct{}, len(t.recs))
	var out []string
	for _, r := range t.recs {
		if _, ok := seen[r.Counterparty]; !ok {
			seen[r.Counterparty] = struct{}{}
			out = append(out, r.Counterparty)
		}
	}
	return out
}

// ForCounterparty returns the time-sorted records for one counterparty.
func (t *Table) ForCounterparty(id string) []Record {
	var out []Record
	for _, r := range t.recs {
		if r.Counterparty == id {
			out = append(out, r)
		}
	}
	return out
}

// SortedByCounterparty returns a copy of the records stable-sorted by
// (counterparty, time). This is the ordering the pair extractor requires.
func (t *Table) SortedByCounterparty() []Record {
	cp := make([]Record, len(t.recs))
	copy(cp, t.recs)
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].Counterparty != cp[j].Counterparty {
			return cp[i].Counterparty < cp[j].Counterparty
		}
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})
	return cp
}

// Span returns the first and last timestamps. The zero times are returned
// for an empty table.
func (t *Table) Span() (time.Time, time.Time) {
	if len(t.recs) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.recs[0].Timestamp, t.recs[len(t.recs)-1].Timestamp
}

// Validate checks the invariants the analyzers rely on. An empty table and
// zero-valued timestamps are validation errors; direction values are typed
// at parse time and need no re-check here.
func (t *Table) Validate() error {
	if t == nil || len(t.recs) == 0 {
		return ErrEmptyDataset
	}
	for _, r := range t.recs {
		if r.Timestamp.IsZero() {
			return ErrBadTimestamp
		}
	}
	return nil
}
