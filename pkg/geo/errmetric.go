package geo

import "math"

const degree = math.Pi / 180

// polarThreshold is the |lat0+lat1| above which Dist switches to polar
// coordinates. Both points then lie within 0.002° of the same pole.
const polarThreshold = 179.998

// AngDiff returns a2-a1 in degrees, folded once into [-180, 180).
// Inputs are assumed to lie within one period of each other.
func AngDiff(a1, a2 float64) float64 {
	d := a2 - a1
	if d >= 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// AziDiff measures the inconsistency between azimuth azi1 at (lat, lon1) and
// azi2 at (lat, lon2). The result is dimensionless (radians of error in the
// direction perpendicular to the course) and accounts for meridian
// convergence, so it does not blow up near the poles the way azi2-azi1 does.
func AziDiff(lat, lon1, lon2, azi1, azi2 float64) float64 {
	phi := lat * degree
	dalpha := (azi2 - azi1) * degree
	dlam := AngDiff(lon1, lon2) * degree
	return math.Sin(dalpha)*math.Cos(dlam) -
		math.Cos(dalpha)*math.Sin(dlam)*math.Sin(phi)
}

// Dist returns the separation in meters between two nearby points on an
// ellipsoid with equatorial radius a and flattening f.
//
// Near a pole the points are treated as polar coordinates (colatitude,
// longitude) and the planar difference is scaled by the polar radius of
// curvature. Elsewhere the latitude and longitude deltas are scaled by the
// meridional and transverse radii of curvature at lat0.
func Dist(a, f, lat0, lon0, lat1, lon1 float64) float64 {
	a *= degree
	if math.Abs(lat0+lat1) > polarThreshold {
		r0 := 90 - math.Abs(lat0)
		r1 := 90 - math.Abs(lat1)
		lam0 := lon0 * degree
		lam1 := lon1 * degree
		return (a / (1 - f)) *
			math.Hypot(r0*math.Cos(lam0)-r1*math.Cos(lam1), r0*math.Sin(lam0)-r1*math.Sin(lam1))
	}

	phi := lat0 * degree
	// cos(phi) loses relative precision as phi approaches 90°; the sine of
	// the colatitude does not.
	var cphi float64
	if math.Abs(lat0) <= 45 {
		cphi = math.Cos(phi)
	} else {
		cphi = math.Sin((90 - math.Abs(lat0)) * degree)
	}
	e2 := f * (2 - f)
	sphi := math.Sin(phi)
	n := 1 / math.Sqrt(1-e2*sphi*sphi)
	degreeLon := a * cphi * n
	degreeLat := a * (1 - e2) * n * n * n
	dlon := AngDiff(lon1, lon0) * degreeLon
	dlat := (lat1 - lat0) * degreeLat
	return math.Hypot(dlat, dlon)
}
