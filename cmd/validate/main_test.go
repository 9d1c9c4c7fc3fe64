package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michaelkirk/validate-geographiclib/pkg/config"
	"github.com/michaelkirk/validate-geographiclib/pkg/reference"
	"github.com/michaelkirk/validate-geographiclib/pkg/solver"
	"github.com/michaelkirk/validate-geographiclib/pkg/stats"
)

const helperEnv = "GEODSOLVE_HELPER"

// Helper behaviours selected through helperEnv.
const (
	helperServe   = "1"
	helperGarbage = "garbage"
	helperClose   = "close"
)

// TestMain turns the test binary into a GeodSolve lookalike when it is
// started as a solver by the tests below.
func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case helperServe:
		args := os.Args[1:]
		opts := reference.ServeOptions{
			Inverse:   slices.Contains(args, "-i"),
			Full:      slices.Contains(args, "-f"),
			Precision: 16,
		}
		if err := reference.Serve(context.Background(), reference.WGS84, os.Stdin, os.Stdout, opts); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	case helperGarbage:
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			fmt.Println("not a number")
		}
		os.Exit(0)
	case helperClose:
		// Output ends before the first answer; keep reading so the
		// request write still succeeds.
		_ = os.Stdout.Close()
		_, _ = io.Copy(io.Discard, os.Stdin)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func testInput(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	for _, c := range [][4]float64{
		{0, 0, 90, 111319.49079327357},
		{10, 20, 30, 1e6},
		{-45, 170, 135, 5e6},
	} {
		g := reference.WGS84.SolveDirect(c[0], c[1], c[2], c[3])
		for i, v := range []float64{g.Lat1, g.Lon1, g.Azi1, g.Lat2, g.Lon2, g.Azi2, g.S12, g.A12, g.M12, g.Area} {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "cases.dat")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func runValidate(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	chdir(t, t.TempDir())
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// runErr runs the command without the exit status mapping so tests can
// inspect the error chain.
func runErr(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	var stdout bytes.Buffer
	a := &app{v: config.New(), stdin: strings.NewReader(""), stdout: &stdout}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestValidateReferenceSolver(t *testing.T) {
	t.Setenv(helperEnv, helperServe)
	input := testInput(t)
	metrics := filepath.Join(t.TempDir(), "geodvalidate.prom")

	code, stdout, stderr := runValidate(t, "",
		"--input", input, "--metrics-file", metrics, "--region", "eq:-1,-1,1,2", "--report-regions", os.Args[0])
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	// Full layout without consistency: dimensions 0,1,2,3,4,6 then the
	// region breakdown of the same dimensions.
	require.Len(t, lines, 12)
	for i, want := range []string{"0", "1", "2", "3", "4", "6"} {
		fields := strings.Fields(lines[i])
		require.Len(t, fields, 3)
		require.Equal(t, want, fields[0])
		v, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
		require.Less(t, v, 1000.0, "dimension %s: %s nm", want, fields[1])
		line, err := strconv.Atoi(fields[2])
		require.NoError(t, err)
		require.GreaterOrEqual(t, line, 0)
		require.Less(t, line, 3)
	}
	require.True(t, strings.HasPrefix(lines[6], "eq 0 "))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(data), "geodvalidate_test_cases_total 3")
}

func TestValidateStdinShortLayout(t *testing.T) {
	t.Setenv(helperEnv, helperServe)
	data, err := os.ReadFile(testInput(t))
	require.NoError(t, err)

	code, stdout, stderr := runValidate(t, string(data),
		"--layout", "short", "--direct-args=-p,16", "--inverse-args=-i,-p,16", os.Args[0])
	require.Equal(t, 0, code, stderr)

	var dims []string
	for _, line := range strings.Split(strings.TrimSuffix(stdout, "\n"), "\n") {
		dims = append(dims, strings.Fields(line)[0])
	}
	require.Equal(t, []string{"0", "1", "2", "3", "4"}, dims)
	// Short direct output carries no m12.
	require.Contains(t, stdout, "2 NaN -1\n")
}

func TestValidateUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"No solver", nil},
		{"Two solvers", []string{"a", "b"}},
		{"Unknown flag", []string{"--bogus", "solver"}},
		{"Bad layout", []string{"--layout", "wide", "solver"}},
		{"Bad kind", []string{"--kinds", "sideways", "solver"}},
		{"Bad region", []string{"--region", "nowhere", "solver"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runValidate(t, "", tt.args...)
			require.Equal(t, exitUsage, code)
			require.Empty(t, stdout)
			require.Contains(t, stderr, "Usage:")
		})
	}
}

func TestValidateSpawnFailure(t *testing.T) {
	code, stdout, _ := runValidate(t, "", "--input", testInput(t), "/nonexistent/GeodSolve")
	require.Equal(t, exitFailure, code)
	require.Empty(t, stdout)
}

func TestValidateEmptyInput(t *testing.T) {
	t.Setenv(helperEnv, helperServe)
	code, stdout, _ := runValidate(t, "", os.Args[0])
	require.Equal(t, exitFailure, code)
	require.Empty(t, stdout)

	stdout, err := runErr(t, os.Args[0])
	require.ErrorIs(t, err, stats.ErrEmpty)
	require.Empty(t, stdout)
}

func TestValidateSolverNotFollowingProtocol(t *testing.T) {
	tests := []struct {
		name   string
		helper string
		want   error
	}{
		{"Malformed response", helperGarbage, solver.ErrMalformedResponse},
		{"Closed output", helperClose, solver.ErrSolverClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(helperEnv, tt.helper)
			input := testInput(t)

			code, stdout, _ := runValidate(t, "", "--input", input, "--kinds", "direct-p1", os.Args[0])
			require.Equal(t, exitFailure, code)
			require.Empty(t, stdout)

			stdout, err := runErr(t, "--input", input, "--kinds", "direct-p1", os.Args[0])
			require.ErrorIs(t, err, tt.want)
			var pe *solver.ProtocolError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, "direct", pe.Solver)
			require.Equal(t, 0, pe.Exchange)
			require.Empty(t, stdout)
		})
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
