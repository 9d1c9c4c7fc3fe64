// Package validate runs test cases through candidate solvers and keeps the
// worst error seen for every error dimension.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/michaelkirk/validate-geographiclib/pkg/geoderr"
	"github.com/michaelkirk/validate-geographiclib/pkg/region"
	"github.com/michaelkirk/validate-geographiclib/pkg/solver"
	"github.com/michaelkirk/validate-geographiclib/pkg/stats"
	"github.com/michaelkirk/validate-geographiclib/pkg/testcase"
)

const progressEvery = 100_000

// Solver is one side of a lock-step conversation with a candidate.
type Solver interface {
	Exchange(req solver.Request) (solver.Response, error)
}

// Feed yields test cases with their 0-based line numbers and io.EOF at the
// end.
type Feed interface {
	Next() (testcase.TestCase, int, error)
}

// Options selects what a run checks.
type Options struct {
	Kinds       []testcase.Kind // empty means all
	Reverse     testcase.Reverse
	Layout      solver.Layout
	Consistency bool
	Regions     *region.Index
}

// Validator drives one run. Direct kinds share the direct solver; Inverse
// uses the inverse solver.
type Validator struct {
	ref     geoderr.Reference
	direct  Solver
	inverse Solver
	opts    Options
	kinds   []testcase.Kind
	logger  *zap.Logger
}

// New checks that every enabled kind has a solver. A solver may be nil
// when no enabled kind needs it.
func New(ref geoderr.Reference, direct, inverse Solver, opts Options, logger *zap.Logger) (*Validator, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = testcase.Kinds
	}
	kinds = slices.Clone(kinds)
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)

	for _, k := range kinds {
		if k.IsDirect() && direct == nil {
			return nil, fmt.Errorf("%s enabled without a direct solver", k)
		}
		if k == testcase.Inverse && inverse == nil {
			return nil, fmt.Errorf("%s enabled without an inverse solver", k)
		}
	}

	return &Validator{
		ref:     ref,
		direct:  direct,
		inverse: inverse,
		opts:    opts,
		kinds:   kinds,
		logger:  logger,
	}, nil
}

// Kinds returns the enabled kinds in processing order.
func (v *Validator) Kinds() []testcase.Kind { return v.kinds }

// Dimensions returns the dimensions k produces under the options.
func (v *Validator) Dimensions(k testcase.Kind) []geoderr.Dimension {
	full := v.opts.Layout == solver.Full
	if k.IsDirect() {
		dims := []geoderr.Dimension{geoderr.Position, geoderr.Azimuth, geoderr.ReducedLength}
		if full {
			dims = append(dims, geoderr.Area)
		}
		return dims
	}

	dims := []geoderr.Dimension{geoderr.Distance, geoderr.InverseAzimuth}
	if full {
		dims = append(dims, geoderr.ReducedLength, geoderr.Area)
	}
	if v.opts.Consistency {
		dims = append(dims, geoderr.Consistency)
	}
	slices.Sort(dims)
	return dims
}

// tracked returns the union of all enabled kinds' dimensions, ascending.
func (v *Validator) tracked() []geoderr.Dimension {
	var dims []geoderr.Dimension
	for _, k := range v.kinds {
		dims = append(dims, v.Dimensions(k)...)
	}
	slices.Sort(dims)
	return slices.Compact(dims)
}

// run is the mutable state of one Run.
type run struct {
	byKind    map[testcase.Kind]map[geoderr.Dimension]*stats.Max[geoderr.Record]
	byRegion  []map[geoderr.Dimension]*stats.Max[geoderr.Record]
	exchanges map[testcase.Kind]int
	cases     int
}

func newTrackers(dims []geoderr.Dimension) map[geoderr.Dimension]*stats.Max[geoderr.Record] {
	m := make(map[geoderr.Dimension]*stats.Max[geoderr.Record], len(dims))
	for _, d := range dims {
		d := d
		m[d] = stats.NewMax(func(r geoderr.Record) float64 { return r.Metric(d) })
	}
	return m
}

// Run feeds every test case through every enabled kind and returns the
// worst errors. Any feed or protocol error aborts the run without a result.
func (v *Validator) Run(ctx context.Context, feed Feed) (*Result, error) {
	start := time.Now()
	r := &run{
		byKind:    make(map[testcase.Kind]map[geoderr.Dimension]*stats.Max[geoderr.Record], len(v.kinds)),
		exchanges: make(map[testcase.Kind]int, len(v.kinds)),
	}
	for _, k := range v.kinds {
		r.byKind[k] = newTrackers(v.Dimensions(k))
	}
	tracked := v.tracked()
	if ix := v.opts.Regions; ix != nil {
		for i := 0; i < ix.Len(); i++ {
			r.byRegion = append(r.byRegion, newTrackers(tracked))
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tc, line, err := feed.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read test case: %w", err)
		}

		for _, k := range v.kinds {
			rec, err := v.check(k, tc, line)
			if err != nil {
				return nil, err
			}
			r.exchanges[k]++
			r.fold(v, k, tc, rec)
		}

		r.cases++
		if r.cases%progressEvery == 0 {
			v.logger.Info("Progress", zap.Int("cases", r.cases), zap.Duration("elapsed", time.Since(start)))
		}
	}

	if r.cases == 0 {
		return nil, stats.ErrEmpty
	}
	res, err := v.finalize(r, tracked)
	if err != nil {
		return nil, err
	}
	v.logger.Info("Validation complete",
		zap.Int("cases", r.cases),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// check runs one calculation of kind k on tc.
func (v *Validator) check(k testcase.Kind, tc testcase.TestCase, line int) (geoderr.Record, error) {
	req := solver.Request(k.Encode(tc, v.opts.Reverse))

	if k.IsDirect() {
		resp, err := v.direct.Exchange(req)
		if err != nil {
			return nil, fmt.Errorf("line %d %s: %w", line, k, err)
		}
		computed, err := v.opts.Layout.Direct(resp)
		if err != nil {
			return nil, fmt.Errorf("line %d %s: %w", line, k, err)
		}
		return geoderr.NewDirectError(v.ref, computed, k.Expected(tc, v.opts.Reverse), line, k), nil
	}

	resp, err := v.inverse.Exchange(req)
	if err != nil {
		return nil, fmt.Errorf("line %d %s: %w", line, k, err)
	}
	computed, err := v.opts.Layout.Inverse(resp)
	if err != nil {
		return nil, fmt.Errorf("line %d %s: %w", line, k, err)
	}
	return geoderr.NewInverseError(v.ref, tc, computed, line, v.opts.Consistency), nil
}

func (r *run) fold(v *Validator, k testcase.Kind, tc testcase.TestCase, rec geoderr.Record) {
	line := rec.LineNumber()
	for _, m := range r.byKind[k] {
		m.Fold(rec, line)
	}
	if len(r.byRegion) == 0 {
		return
	}

	lat, lon := tc.Lat1, tc.Lon1
	if k == testcase.DirectP2ToP1 {
		lat, lon = tc.Lat2, tc.Lon2
	}
	dims := v.Dimensions(k)
	v.opts.Regions.Containing(lat, lon, func(i int) {
		for _, d := range dims {
			r.byRegion[i][d].Fold(rec, line)
		}
	})
}

func (v *Validator) finalize(r *run, tracked []geoderr.Dimension) (*Result, error) {
	res := &Result{
		Cases:     r.cases,
		Exchanges: r.exchanges,
		ByKind:    make(map[testcase.Kind][]Extreme, len(v.kinds)),
	}

	for _, k := range v.kinds {
		for _, d := range v.Dimensions(k) {
			ext, err := extreme(d, r.byKind[k][d])
			if err != nil {
				return nil, fmt.Errorf("finalize %s %s: %w", k, d, err)
			}
			res.ByKind[k] = append(res.ByKind[k], ext)
		}
	}

	for _, d := range tracked {
		merged := Extreme{Dimension: d, Value: math.NaN(), Line: -1}
		for _, k := range v.kinds {
			for _, ext := range res.ByKind[k] {
				if ext.Dimension == d && ext.worseThan(merged) {
					merged = ext
				}
			}
		}
		res.Extremes = append(res.Extremes, merged)
	}

	for i, trackers := range r.byRegion {
		name := v.opts.Regions.Region(i).Name
		for _, d := range tracked {
			m := trackers[d]
			if m.Seen() == 0 {
				res.Regions = append(res.Regions, RegionExtreme{
					Region:  name,
					Extreme: Extreme{Dimension: d, Value: math.NaN(), Line: -1},
				})
				continue
			}
			ext, err := extreme(d, m)
			if err != nil {
				return nil, fmt.Errorf("finalize region %s %s: %w", name, d, err)
			}
			res.Regions = append(res.Regions, RegionExtreme{Region: name, Extreme: ext})
		}
	}
	return res, nil
}

func extreme(d geoderr.Dimension, m *stats.Max[geoderr.Record]) (Extreme, error) {
	ext, err := m.Finalize()
	if err != nil {
		return Extreme{}, err
	}
	return Extreme{Dimension: d, Value: ext.Value, Line: ext.Line, Record: ext.Record}, nil
}
