// Package id provides identifier generation for records and subscriptions.
//
// Two formats are used across the codebase:
//
//   - UUID: random UUID v4 for subscription and event identifiers
//   - Sequence: monotonically increasing decimal strings ("1", "2", ...) for
//     server-assigned record identifiers; issued values are never reused,
//     even after the owning record is deleted
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Sequence issues monotonically increasing decimal string identifiers.
// Safe for concurrent use.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a Sequence whose first issued identifier is start.
// A start below 1 is treated as 1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.Reset(start)
	return s
}

// Next issues the next identifier in the sequence.
func (s *Sequence) Next() string {
	return strconv.FormatUint(s.next.Add(1)-1, 10)
}

// Peek returns the identifier Next would issue, without consuming it.
func (s *Sequence) Peek() string {
	return strconv.FormatUint(s.next.Load(), 10)
}

// Reset rewinds the sequence so the next issued identifier is start.
func (s *Sequence) Reset(start uint64) {
	if start < 1 {
		start = 1
	}
	s.next.Store(start)
}

// NumericValue parses an identifier previously issued by a Sequence.
// Returns the value and true, or 0 and false if the identifier is not a
// plain decimal number.
func NumericValue(id string) (uint64, bool) {
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
