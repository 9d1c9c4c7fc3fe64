// Package testcase reads geodesic test vectors in GeodTest.dat format.
package testcase

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	minFields = 9
	maxFields = 10
)

// ErrFieldCount is returned for lines with fewer than 9 or more than 10 fields.
var ErrFieldCount = errors.New("wrong number of fields")

// TestCase is one line of test data: a geodesic from point 1 to point 2.
type TestCase struct {
	Lat1, Lon1, Azi1 float64
	Lat2, Lon2, Azi2 float64
	S12              float64 // distance, meters
	A12              float64 // arc length, degrees
	M12              float64 // reduced length, meters
	Area             float64 // S12 in square meters; NaN when absent
}

// HasArea reports whether the area field is present.
func (tc TestCase) HasArea() bool {
	return !math.IsNaN(tc.Area)
}

// ParseError reports a malformed input line. Line is 0-based.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("test case line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a single whitespace-separated test case line.
func Parse(line string) (TestCase, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields || len(fields) > maxFields {
		return TestCase{}, fmt.Errorf("%w: got %d, want %d or %d", ErrFieldCount, len(fields), minFields, maxFields)
	}

	var v [maxFields]float64
	v[maxFields-1] = math.NaN()
	for i, s := range fields {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return TestCase{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v[i] = x
	}

	return TestCase{
		Lat1: v[0], Lon1: v[1], Azi1: v[2],
		Lat2: v[3], Lon2: v[4], Azi2: v[5],
		S12: v[6], A12: v[7], M12: v[8],
		Area: v[9],
	}, nil
}

// Reader is the test case feed. It yields one TestCase per input line.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next test case and its 0-based line number. It returns
// io.EOF once the input is exhausted.
func (r *Reader) Next() (TestCase, int, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return TestCase{}, r.line, fmt.Errorf("read test cases: %w", err)
		}
		return TestCase{}, r.line, io.EOF
	}
	line := r.line
	r.line++

	tc, err := Parse(r.scanner.Text())
	if err != nil {
		return TestCase{}, line, &ParseError{Line: line, Err: err}
	}
	return tc, line, nil
}
