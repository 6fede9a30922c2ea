package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing source timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTimestamp parses a source timestamp, trying the supported layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// LoadCSV reads records from CSV data with a header row. The field map
// adapts sources with non-standard column names; empty aliases fall back to
// the standard names. Any unparsable timestamp or direction value fails the
// whole load, matching the short-circuit validation policy.
func LoadCSV(r io.Reader, fields FieldMap) (*Table, error) {
	fields = fields.normalize()

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	cols := map[string]string{
		"timestamp":    fields.Timestamp,
		"counterparty": fields.Counterparty,
		"direction":    fields.Direction,
	}
	pos := make(map[string]int, len(cols))
	for std, alias := range cols {
		i, ok := idx[alias]
		if !ok {
			return nil, fmt.Errorf("%w: %s (column %q)", ErrMissingField, std, alias)
		}
		pos[std] = i
	}

	var recs []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", line, err)
		}

		ts, err := ParseTimestamp(row[pos["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		dir, err := ParseDirection(strings.TrimSpace(row[pos["direction"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		recs = append(recs, Record{
			Timestamp:    ts,
			Counterparty: strings.TrimSpace(row[pos["counterparty"]]),
			Direction:    dir,
		})
	}

	if len(recs) == 0 {
		return nil, ErrEmptyDataset
	}
	return NewTable(recs), nil
}
