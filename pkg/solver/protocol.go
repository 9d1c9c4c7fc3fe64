package solver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/michaelkirk/validate-geographiclib/pkg/testcase"
)

// Request is one request line: a fixed-arity numeric tuple.
type Request []float64

// AppendLine appends the space-separated, newline-terminated encoding of r.
// Numbers are written in the shortest exact decimal form without exponents.
func (r Request) AppendLine(dst []byte) []byte {
	for i, v := range r {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	}
	return append(dst, '\n')
}

func (r Request) String() string {
	b := r.AppendLine(nil)
	return string(b[:len(b)-1])
}

// Response is one parsed response line.
type Response []float64

// ParseResponse parses a response line into numbers. Any non-numeric field
// is an ErrMalformedResponse.
func ParseResponse(line string) (Response, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedResponse)
	}
	resp := make(Response, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d %q", ErrMalformedResponse, i+1, s)
		}
		resp[i] = v
	}
	return resp, nil
}

// Layout is the candidate's declared output order.
type Layout int

const (
	// Short is GeodSolve's default output: "lat2 lon2 azi2 [m12]" for the
	// direct problem and "azi1 azi2 s12" for the inverse problem.
	Short Layout = iota
	// Full is GeodSolve -f output: "lat1 lon1 azi1 lat2 lon2 azi2 s12 a12 m12"
	// optionally followed by "M12 M21 S12".
	Full
)

const (
	fullFields     = 9
	fullAreaFields = 12
)

func (l Layout) String() string {
	if l == Full {
		return "full"
	}
	return "short"
}

// ParseLayout is the inverse of Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "short":
		return Short, nil
	case "full", "":
		return Full, nil
	}
	return 0, fmt.Errorf("unknown output layout %q", s)
}

// Direct maps a direct-mode response onto the endpoint it describes.
func (l Layout) Direct(resp Response) (testcase.Endpoint, error) {
	if l == Short {
		switch len(resp) {
		case 3:
			return testcase.Endpoint{Lat: resp[0], Lon: resp[1], Azi: resp[2], M12: math.NaN(), Area: math.NaN()}, nil
		case 4:
			return testcase.Endpoint{Lat: resp[0], Lon: resp[1], Azi: resp[2], M12: resp[3], Area: math.NaN()}, nil
		}
		return testcase.Endpoint{}, fieldCountError(l, len(resp), "3 or 4")
	}

	if err := l.checkFull(resp); err != nil {
		return testcase.Endpoint{}, err
	}
	return testcase.Endpoint{Lat: resp[3], Lon: resp[4], Azi: resp[5], M12: resp[8], Area: area(resp)}, nil
}

// Inverse maps an inverse-mode response onto its solution.
func (l Layout) Inverse(resp Response) (testcase.InverseSolution, error) {
	if l == Short {
		if len(resp) != 3 {
			return testcase.InverseSolution{}, fieldCountError(l, len(resp), "3")
		}
		return testcase.InverseSolution{Azi1: resp[0], Azi2: resp[1], S12: resp[2], M12: math.NaN(), Area: math.NaN()}, nil
	}

	if err := l.checkFull(resp); err != nil {
		return testcase.InverseSolution{}, err
	}
	return testcase.InverseSolution{Azi1: resp[2], Azi2: resp[5], S12: resp[6], M12: resp[8], Area: area(resp)}, nil
}

func (l Layout) checkFull(resp Response) error {
	if len(resp) != fullFields && len(resp) != fullAreaFields {
		return fieldCountError(l, len(resp), "9 or 12")
	}
	return nil
}

func area(resp Response) float64 {
	if len(resp) == fullAreaFields {
		return resp[11]
	}
	return math.NaN()
}

func fieldCountError(l Layout, got int, want string) error {
	return fmt.Errorf("%w: %s layout wants %s fields, got %d", ErrMalformedResponse, l, want, got)
}
