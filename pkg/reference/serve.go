package reference

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ServeOptions selects the GeodSolve mode.
type ServeOptions struct {
	Inverse   bool // -i
	Full      bool // -f
	Precision int  // -p
}

// DefaultPrecision matches GeodSolve's default -p.
const DefaultPrecision = 3

// Serve answers one geodesic problem per input line until r is exhausted,
// writing and flushing exactly one output line per input line. Lines that
// cannot be parsed produce an "ERROR: ..." line, as GeodSolve does, so the
// conversation stays in lock-step.
func Serve(ctx context.Context, e *Ellipsoid, r io.Reader, w io.Writer, opts ServeOptions) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := e.answer(scanner.Text(), opts)
		if err != nil {
			out = "ERROR: " + err.Error()
		}
		if _, err := bw.WriteString(out + "\n"); err != nil {
			return fmt.Errorf("write answer: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush answer: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

func (e *Ellipsoid) answer(line string, opts ServeOptions) (string, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return "", fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	var v [4]float64
	for i, s := range fields {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", fmt.Errorf("field %d: %w", i+1, err)
		}
		v[i] = x
	}

	f := formatter{prec: opts.Precision}
	if opts.Inverse {
		g := e.SolveInverse(v[0], v[1], v[2], v[3])
		if opts.Full {
			return f.full(g), nil
		}
		return f.join(f.angle(g.Azi1), f.angle(g.Azi2), f.length(g.S12)), nil
	}
	g := e.SolveDirect(v[0], v[1], v[2], v[3])
	if opts.Full {
		return f.full(g), nil
	}
	return f.join(f.angle(g.Lat2), f.angle(g.Lon2), f.angle(g.Azi2)), nil
}

// formatter prints angles with prec+5 decimals and lengths with prec
// decimals, following GeodSolve's -p convention.
type formatter struct {
	prec int
}

func (f formatter) angle(x float64) string {
	return strconv.FormatFloat(x, 'f', f.prec+5, 64)
}

func (f formatter) length(x float64) string {
	return strconv.FormatFloat(x, 'f', f.prec, 64)
}

func (f formatter) scale(x float64) string {
	return strconv.FormatFloat(x, 'f', f.prec+7, 64)
}

func (f formatter) join(parts ...string) string {
	return strings.Join(parts, " ")
}

func (f formatter) full(g Geodesic) string {
	return f.join(
		f.angle(g.Lat1), f.angle(g.Lon1), f.angle(g.Azi1),
		f.angle(g.Lat2), f.angle(g.Lon2), f.angle(g.Azi2),
		f.length(g.S12), f.angle(g.A12), f.length(g.M12),
		f.scale(g.MM12), f.scale(g.MM21), f.length(g.Area),
	)
}
