// Package stats accumulates worst-case statistics over a stream of records.
package stats

import (
	"errors"
	"math"
)

// ErrEmpty is returned by Finalize when nothing was folded.
var ErrEmpty = errors.New("no test cases processed")

// Extreme is the finalized content of a Max. Line is -1 and Value NaN when
// no folded record had a defined metric.
type Extreme[E any] struct {
	Record E
	Value  float64
	Line   int
}

// Max holds the record with the largest value of one metric. NaN metric
// values are counted but never compared. Ties keep the earlier record, so
// the held value never decreases.
type Max[E any] struct {
	metric func(E) float64
	seen   int
	held   bool
	rec    E
	value  float64
	line   int
}

// NewMax returns an empty Max over the given metric.
func NewMax[E any](metric func(E) float64) *Max[E] {
	return &Max[E]{metric: metric, value: math.NaN(), line: -1}
}

// Fold offers rec, produced by the given line, to the maximum. It reports
// whether rec became the new holder.
func (m *Max[E]) Fold(rec E, line int) bool {
	m.seen++
	v := m.metric(rec)
	if math.IsNaN(v) {
		return false
	}
	if m.held && !(v > m.value) {
		return false
	}
	m.held = true
	m.rec = rec
	m.value = v
	m.line = line
	return true
}

// Value returns the current maximum, NaN if none is held.
func (m *Max[E]) Value() float64 { return m.value }

// Line returns the line of the current maximum, -1 if none is held.
func (m *Max[E]) Line() int { return m.line }

// Seen returns the number of records folded so far.
func (m *Max[E]) Seen() int { return m.seen }

// Finalize returns the held extreme. It is an error to finalize a Max that
// never had anything folded into it.
func (m *Max[E]) Finalize() (Extreme[E], error) {
	if m.seen == 0 {
		return Extreme[E]{}, ErrEmpty
	}
	return Extreme[E]{Record: m.rec, Value: m.value, Line: m.line}, nil
}
