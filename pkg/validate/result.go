package validate

import (
	"math"

	"github.com/michaelkirk/validate-geographiclib/pkg/geoderr"
	"github.com/michaelkirk/validate-geographiclib/pkg/testcase"
)

// Extreme is the worst error of one dimension. Value is NaN, Line -1 and
// Record nil when no calculation defined the dimension.
type Extreme struct {
	Dimension geoderr.Dimension
	Value     float64
	Line      int
	Record    geoderr.Record
}

// Defined reports whether any calculation produced a value.
func (e Extreme) Defined() bool { return !math.IsNaN(e.Value) }

// Kind returns the calculation that produced the worst error.
func (e Extreme) Kind() (testcase.Kind, bool) {
	if e.Record == nil {
		return 0, false
	}
	return e.Record.Kind(), true
}

// worseThan orders extremes as a single running maximum over the whole
// run would: larger value first, then the earlier line. Kinds are merged
// in processing order, so a tie on the same line keeps the earlier kind.
func (e Extreme) worseThan(o Extreme) bool {
	if !e.Defined() {
		return false
	}
	if !o.Defined() {
		return true
	}
	return e.Value > o.Value || (e.Value == o.Value && e.Line < o.Line)
}

// RegionExtreme is an Extreme restricted to calculations starting inside a
// region.
type RegionExtreme struct {
	Region string
	Extreme
}

// Result is the outcome of a complete run.
type Result struct {
	Cases     int
	Exchanges map[testcase.Kind]int
	// Extremes holds one entry per tracked dimension, ascending.
	Extremes []Extreme
	// ByKind holds the extremes of each enabled kind separately.
	ByKind map[testcase.Kind][]Extreme
	// Regions is ordered by region, then dimension.
	Regions []RegionExtreme
}
