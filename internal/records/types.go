// Package records provides the input dataset abstraction for the analysis
// engine: timestamped communication events with a direction and counterparty,
// loaded from heterogeneous sources through a field-alias map.
package records

import (
	"errors"
	"fmt"
	"time"
)

// Direction indicates whether a record was sent by the user or received
// from the counterparty. Any other value is rejected at ingestion.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ParseDirection validates a raw direction value. The match is exact and
// case-sensitive; values are rejected here rather than deep inside the
// analysis algorithms.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionSent:
		return DirectionSent, nil
	case DirectionReceived:
		return DirectionReceived, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Record is one communication event. Records are immutable once loaded;
// identity is positional and duplicate timestamps are legal.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Counterparty string    `json:"counterparty"`
	Direction    Direction `json:"direction"`
}

// FieldMap maps the standard field names to the names used by a source
// (e.g. {Timestamp: "time", Counterparty: "contact", Direction: "msg_type"}).
type FieldMap struct {
	Timestamp    string `json:"timestamp"`
	Counterparty string `json:"counterparty"`
	Direction    string `json:"direction"`
}

// DefaultFieldMap returns the identity mapping.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Timestamp:    "timestamp",
		Counterparty: "counterparty",
		Direction:    "direction",
	}
}

// normalize fills empty aliases with the standard names.
func (m FieldMap) normalize() FieldMap {
	def := DefaultFieldMap()
	if m.Timestamp == "" {
		m.Timestamp = def.Timestamp
	}
	if m.Counterparty == "" {
		m.Counterparty = def.Counterparty
	}
	if m.Direction == "" {
		m.Direction = def.Direction
	}
	return m
}

// Validation errors surfaced at the ingestion boundary.
var (
	ErrEmptyDataset     = errors.New("empty dataset provided for analysis")
	ErrInvalidDirection = errors.New("invalid direction value")
	ErrMissingField     = errors.New("missing required field")
	ErrBadTimestamp     = errors.New("invalid timestamp format")
)
