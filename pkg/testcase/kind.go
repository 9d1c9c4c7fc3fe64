package testcase

import "fmt"

// Kind is the calculation a test case is checked with.
type Kind int

const (
	DirectP1ToP2 Kind = iota // direct problem from point 1, checked at point 2
	DirectP2ToP1             // direct problem from point 2, checked at point 1
	Inverse                  // inverse problem between the two points
)

// Kinds lists every Kind in processing order.
var Kinds = []Kind{DirectP1ToP2, DirectP2ToP1, Inverse}

func (k Kind) String() string {
	switch k {
	case DirectP1ToP2:
		return "direct-p1"
	case DirectP2ToP1:
		return "direct-p2"
	case Inverse:
		return "inverse"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown calculation kind %q", s)
}

// IsDirect reports whether k runs against a direct-mode solver.
func (k Kind) IsDirect() bool {
	return k == DirectP1ToP2 || k == DirectP2ToP1
}

// Reverse selects how DirectP2ToP1 expresses travelling back from point 2
// to point 1.
type Reverse int

const (
	// NegateDistance sends "lat2 lon2 azi2 -s12". The solver must accept a
	// negative distance as travel against the azimuth.
	NegateDistance Reverse = iota
	// FlipAzimuth sends "lat2 lon2 azi2+180 s12" for solvers that reject
	// negative distances.
	FlipAzimuth
)

func (r Reverse) String() string {
	if r == FlipAzimuth {
		return "flip-azimuth"
	}
	return "negate-distance"
}

// ParseReverse is the inverse of Reverse.String.
func ParseReverse(s string) (Reverse, error) {
	switch s {
	case "negate-distance", "":
		return NegateDistance, nil
	case "flip-azimuth":
		return FlipAzimuth, nil
	}
	return 0, fmt.Errorf("unknown reverse convention %q", s)
}

// Endpoint is the far end of a direct calculation: either what a test case
// expects or what a solver answered. M12 and Area are NaN when unknown.
type Endpoint struct {
	Lat, Lon, Azi float64
	M12           float64
	Area          float64
}

// InverseSolution is a solver's answer to an inverse request. M12 and Area
// are NaN when unknown.
type InverseSolution struct {
	Azi1, Azi2 float64
	S12        float64
	M12        float64
	Area       float64
}

// Encode returns the request fields k sends for tc.
func (k Kind) Encode(tc TestCase, rev Reverse) []float64 {
	switch k {
	case DirectP1ToP2:
		return []float64{tc.Lat1, tc.Lon1, tc.Azi1, tc.S12}
	case DirectP2ToP1:
		if rev == FlipAzimuth {
			return []float64{tc.Lat2, tc.Lon2, flip(tc.Azi2), tc.S12}
		}
		return []float64{tc.Lat2, tc.Lon2, tc.Azi2, -tc.S12}
	default:
		return []float64{tc.Lat1, tc.Lon1, tc.Lat2, tc.Lon2}
	}
}

// Expected returns the endpoint a direct calculation of kind k should
// reach. It is meaningless for Inverse.
func (k Kind) Expected(tc TestCase, rev Reverse) Endpoint {
	if k == DirectP1ToP2 {
		return Endpoint{Lat: tc.Lat2, Lon: tc.Lon2, Azi: tc.Azi2, M12: tc.M12, Area: tc.Area}
	}
	if rev == FlipAzimuth {
		// m12 is symmetric in its endpoints; the area flips sign with the
		// direction of travel.
		return Endpoint{Lat: tc.Lat1, Lon: tc.Lon1, Azi: flip(tc.Azi1), M12: tc.M12, Area: -tc.Area}
	}
	return Endpoint{Lat: tc.Lat1, Lon: tc.Lon1, Azi: tc.Azi1, M12: -tc.M12, Area: -tc.Area}
}

// flip reverses an azimuth, keeping the result in [-180, 180).
func flip(azi float64) float64 {
	if azi >= 0 {
		return azi - 180
	}
	return azi + 180
}
