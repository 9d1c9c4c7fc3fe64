// Package geoderr turns a candidate solver's answers into error magnitudes
// by comparing them with the values stored in a test case.
package geoderr

import (
	"fmt"
	"math"

	"github.com/michaelkirk/validate-geographiclib/pkg/geo"
	"github.com/michaelkirk/validate-geographiclib/pkg/testcase"
)

const degree = math.Pi / 180

// conjugacyMaxM12 is the reduced length below which a long inverse
// geodesic is considered near conjugacy, where m12 and S12 are too
// sensitive to compare.
const conjugacyMaxM12 = 10e3

// Dimension identifies one error metric. The values are stable and appear
// in the report.
type Dimension int

const (
	Position       Dimension = iota // direct: position of the far point, meters
	Azimuth                         // direct: azimuth at the far point, scaled by a
	ReducedLength                   // direct and inverse: m12, meters
	Distance                        // inverse: s12, meters
	InverseAzimuth                  // inverse: azimuths scaled by |m12|
	Consistency                     // inverse: do the azimuths lead to each other
	Area                            // direct and inverse: S12 scaled by 1/a

	NumDimensions
)

func (d Dimension) String() string {
	switch d {
	case Position:
		return "position"
	case Azimuth:
		return "azimuth"
	case ReducedLength:
		return "reduced_length"
	case Distance:
		return "distance"
	case InverseAzimuth:
		return "inverse_azimuth"
	case Consistency:
		return "consistency"
	case Area:
		return "area"
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// Reference is the trusted geodesic oracle.
type Reference interface {
	EquatorialRadius() float64
	Flattening() float64
	EllipsoidArea() float64
	Direct(lat1, lon1, azi1, s12 float64) (lat2, lon2, azi2 float64)
}

// Record is an error record from one calculation on one test case.
type Record interface {
	LineNumber() int
	Kind() testcase.Kind
	// Metric returns the error for d, NaN if this record does not define it.
	Metric(d Dimension) float64
}

// DirectError is the error of one direct calculation.
type DirectError struct {
	Position      float64
	Azimuth       float64
	ReducedLength float64 // NaN when either side lacks m12
	Area          float64 // NaN when either side lacks S12
	Line          int
	Calculation   testcase.Kind
}

// NewDirectError compares the endpoint a solver computed with the one the
// test case expects.
func NewDirectError(ref Reference, computed, expected testcase.Endpoint, line int, kind testcase.Kind) DirectError {
	a := ref.EquatorialRadius()
	// A 360° difference in azimuth shifts S12 by half the ellipsoid area.
	area := computed.Area - ref.EllipsoidArea()*(computed.Azi-expected.Azi)/720
	return DirectError{
		Position: geo.Dist(a, ref.Flattening(), expected.Lat, expected.Lon, computed.Lat, computed.Lon),
		Azimuth: math.Abs(geo.AziDiff(expected.Lat, expected.Lon, computed.Lon,
			expected.Azi, computed.Azi)) * a,
		ReducedLength: math.Abs(computed.M12 - expected.M12),
		Area:          math.Abs(area-expected.Area) / a,
		Line:          line,
		Calculation:   kind,
	}
}

func (e DirectError) LineNumber() int     { return e.Line }
func (e DirectError) Kind() testcase.Kind { return e.Calculation }

func (e DirectError) Metric(d Dimension) float64 {
	switch d {
	case Position:
		return e.Position
	case Azimuth:
		return e.Azimuth
	case ReducedLength:
		return e.ReducedLength
	case Area:
		return e.Area
	}
	return math.NaN()
}

// InverseError is the error of one inverse calculation.
type InverseError struct {
	Distance      float64
	Azimuth       float64
	ReducedLength float64 // NaN near conjugacy or without m12
	Area          float64 // NaN near conjugacy or without S12
	Consistency   float64 // NaN unless requested
	Line          int
}

// NewInverseError compares a solver's inverse solution with tc. When
// consistency is set the reference is used to check that the solver's
// azimuths and distance lead from each endpoint towards the other.
func NewInverseError(ref Reference, tc testcase.TestCase, computed testcase.InverseSolution, line int, consistency bool) InverseError {
	a := ref.EquatorialRadius()
	e := InverseError{
		Distance:      math.Abs(computed.S12 - tc.S12),
		Azimuth:       inverseAzimuthError(tc, computed),
		ReducedLength: math.NaN(),
		Area:          math.NaN(),
		Consistency:   math.NaN(),
		Line:          line,
	}

	if !(tc.S12 > a && tc.M12 < conjugacyMaxM12) {
		e.ReducedLength = math.Abs(computed.M12 - tc.M12)
		area := computed.Area - ref.EllipsoidArea()*
			((computed.Azi2-tc.Azi2)-(computed.Azi1-tc.Azi1))/720
		e.Area = math.Abs(area-tc.Area) / a
	}
	if consistency {
		e.Consistency = consistencyError(ref, tc, computed)
	}
	return e
}

// inverseAzimuthError converts the azimuth errors at both ends into a
// displacement by scaling with |m12|. Geodesics symmetric about the
// equator have two valid solutions, so the swapped pairing is accepted too.
func inverseAzimuthError(tc testcase.TestCase, c testcase.InverseSolution) float64 {
	m := math.Abs(tc.M12) * degree
	err := math.Max(math.Abs(geo.AngDiff(tc.Azi1, c.Azi1)), math.Abs(geo.AngDiff(tc.Azi2, c.Azi2))) * m
	if tc.Lat1+tc.Lat2 == 0 {
		swapped := math.Max(math.Abs(geo.AngDiff(tc.Azi1, c.Azi2)), math.Abs(geo.AngDiff(tc.Azi2, c.Azi1))) * m
		err = math.Min(err, swapped)
	}
	return err
}

// consistencyError walks from each endpoint along the solver's azimuths
// and measures how far apart the walks end up. Long geodesics meet in the
// middle; short ones are both extended by a past the far end, in each
// direction.
func consistencyError(ref Reference, tc testcase.TestCase, c testcase.InverseSolution) float64 {
	a, f := ref.EquatorialRadius(), ref.Flattening()
	gap := func(s1, s2 float64) float64 {
		lat2, lon2, _ := ref.Direct(tc.Lat1, tc.Lon1, c.Azi1, s1)
		lat1, lon1, _ := ref.Direct(tc.Lat2, tc.Lon2, c.Azi2, s2)
		return geo.Dist(a, f, lat1, lon1, lat2, lon2)
	}
	if tc.S12 > a {
		return gap(c.S12/2, -c.S12/2)
	}
	return math.Max(gap(c.S12+a, a), gap(-a, -c.S12-a))
}

func (e InverseError) LineNumber() int     { return e.Line }
func (e InverseError) Kind() testcase.Kind { return testcase.Inverse }

func (e InverseError) Metric(d Dimension) float64 {
	switch d {
	case Distance:
		return e.Distance
	case InverseAzimuth:
		return e.Azimuth
	case ReducedLength:
		return e.ReducedLength
	case Area:
		return e.Area
	case Consistency:
		return e.Consistency
	}
	return math.NaN()
}
