// Package report prints the outcome of a validation run.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/michaelkirk/validate-geographiclib/pkg/validate"
)

// Scale converts meters to the nanometers the report prints.
const Scale = 1e9

// WriteSummary writes one line per tracked dimension in ascending order:
// the dimension index, the worst error in nanometers and its 0-based line.
// An undefined dimension prints NaN and line -1.
func WriteSummary(w io.Writer, extremes []validate.Extreme) error {
	bw := bufio.NewWriter(w)
	for _, e := range extremes {
		if _, err := fmt.Fprintf(bw, "%d %.2f %d\n", int(e.Dimension), e.Value*Scale, e.Line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// WriteRegions writes the per-region breakdown, one line per region and
// dimension: "<region> <index> <nanometers> <line>".
func WriteRegions(w io.Writer, regions []validate.RegionExtreme) error {
	bw := bufio.NewWriter(w)
	for _, r := range regions {
		if _, err := fmt.Fprintf(bw, "%s %d %.2f %d\n", r.Region, int(r.Dimension), r.Value*Scale, r.Line); err != nil {
			return fmt.Errorf("write regions: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write regions: %w", err)
	}
	return nil
}
