// Package reference wraps the trusted geodesic computation used as the
// oracle for validation. All solving is delegated to github.com/tidwall/geodesic.
package reference

import (
	"math"

	"github.com/tidwall/geodesic"
)

// Geodesic is the full set of quantities for one geodesic segment, in the
// order GeodSolve prints them with -f.
type Geodesic struct {
	Lat1, Lon1, Azi1 float64
	Lat2, Lon2, Azi2 float64
	S12              float64 // distance, meters
	A12              float64 // arc length, degrees (NaN: not exposed by the oracle)
	M12              float64 // reduced length, meters
	MM12, MM21       float64 // geodesic scales
	Area             float64 // S12, square meters
}

const lineCaps = geodesic.Distance | geodesic.DistanceIn | geodesic.ReducedLength |
	geodesic.GeodesicScale | geodesic.Area

// Ellipsoid is a reference ellipsoid together with its geodesic solver.
type Ellipsoid struct {
	g    *geodesic.Ellipsoid
	a, f float64
	area float64
}

// WGS84 is the ellipsoid GeodTest.dat was generated on.
var WGS84 = NewEllipsoid(6378137, 1/298.257223563)

// NewEllipsoid creates an ellipsoid with equatorial radius a (meters) and
// flattening f.
func NewEllipsoid(a, f float64) *Ellipsoid {
	return &Ellipsoid{
		g:    geodesic.NewEllipsoid(a, f),
		a:    a,
		f:    f,
		area: ellipsoidArea(a, f),
	}
}

// EquatorialRadius returns a in meters.
func (e *Ellipsoid) EquatorialRadius() float64 { return e.a }

// Flattening returns f.
func (e *Ellipsoid) Flattening() float64 { return e.f }

// EllipsoidArea returns the total surface area in square meters.
func (e *Ellipsoid) EllipsoidArea() float64 { return e.area }

// Direct solves the direct problem for position and azimuth only.
func (e *Ellipsoid) Direct(lat1, lon1, azi1, s12 float64) (lat2, lon2, azi2 float64) {
	e.g.Direct(lat1, lon1, azi1, s12, &lat2, &lon2, &azi2)
	return lat2, lon2, azi2
}

// SolveDirect solves the direct problem with all outputs.
func (e *Ellipsoid) SolveDirect(lat1, lon1, azi1, s12 float64) Geodesic {
	out := Geodesic{Lat1: lat1, Lon1: lon1, Azi1: azi1, S12: s12, A12: math.NaN()}
	out.Lat2, out.Lon2, out.Azi2 = e.Direct(lat1, lon1, azi1, s12)
	e.fillLine(&out)
	return out
}

// SolveInverse solves the inverse problem with all outputs.
func (e *Ellipsoid) SolveInverse(lat1, lon1, lat2, lon2 float64) Geodesic {
	out := Geodesic{Lat1: lat1, Lon1: lon1, Lat2: lat2, Lon2: lon2, A12: math.NaN()}
	e.g.Inverse(lat1, lon1, lat2, lon2, &out.S12, &out.Azi1, &out.Azi2)
	e.fillLine(&out)
	return out
}

// fillLine computes the reduced length, geodesic scales and area along the
// geodesic starting at (Lat1, Lon1, Azi1) for distance S12.
func (e *Ellipsoid) fillLine(out *Geodesic) {
	line := e.g.LineInit(out.Lat1, out.Lon1, out.Azi1, lineCaps)
	var lat2, lon2, azi2, s12 float64
	line.GenPosition(geodesic.NoFlags, out.S12,
		&lat2, &lon2, &azi2, &s12, &out.M12, &out.MM12, &out.MM21, &out.Area)
}

// ellipsoidArea is 4*pi*c^2 where c is the authalic radius.
func ellipsoidArea(a, f float64) float64 {
	b := a * (1 - f)
	e2 := f * (2 - f)
	var c2 float64
	switch {
	case e2 == 0:
		c2 = a * a
	case e2 > 0:
		e := math.Sqrt(e2)
		c2 = (a*a + b*b*math.Atanh(e)/e) / 2
	default:
		e := math.Sqrt(-e2)
		c2 = (a*a + b*b*math.Atan(e)/e) / 2
	}
	return 4 * math.Pi * c2
}
