package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/michaelkirk/validate-geographiclib/pkg/config"
	"github.com/michaelkirk/validate-geographiclib/pkg/logging"
	"github.com/michaelkirk/validate-geographiclib/pkg/reference"
	"github.com/michaelkirk/validate-geographiclib/pkg/region"
	"github.com/michaelkirk/validate-geographiclib/pkg/report"
	"github.com/michaelkirk/validate-geographiclib/pkg/solver"
	"github.com/michaelkirk/validate-geographiclib/pkg/testcase"
	"github.com/michaelkirk/validate-geographiclib/pkg/validate"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by the command line or settings rather
// than by the run itself.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps its outcome to an exit status.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{v: config.New(), stdin: stdin, stdout: stdout}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if a.logger != nil {
		defer func() { _ = a.logger.Sync() }()
	}
	if err == nil {
		return 0
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Error: %v\n%s", ue.err, cmd.UsageString())
		return exitUsage
	}
	if a.logger != nil {
		a.logger.Error("Validation failed", zap.Error(err))
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitFailure
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] <solver>",
		Short: "Validate a geodesic solver against GeodTest.dat style test data",
		Long: `Reads test cases (lat1 lon1 azi1 lat2 lon2 azi2 s12 a12 m12 [S12]) from
stdin or --input and runs each through the candidate solver:
  1. direct from point 1, checked at point 2
  2. direct from point 2 backwards, checked at point 1
  3. inverse between the two points

Prints one line per error dimension: index, worst error in nanometers,
0-based line that produced it.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0])
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	configFile := flags.String("config", "", "Config file (default: ./geodvalidate.yaml or ./config/geodvalidate.yaml)")
	flags.String("input", "", "Test case file (default: stdin)")
	flags.StringSlice("direct-args", nil, "Solver arguments for direct mode (default -f,-p,16)")
	flags.StringSlice("inverse-args", nil, "Solver arguments for inverse mode (default -i,-f,-p,16)")
	flags.String("layout", "", "Solver output layout: full or short")
	flags.StringSlice("kinds", nil, "Calculations to run: direct-p1, direct-p2, inverse")
	flags.String("reverse", "", "Reverse course for direct-p2: negate-distance or flip-azimuth")
	flags.Bool("consistency", false, "Also check that inverse azimuths lead to each other (dimension 5)")
	flags.StringArray("region", nil, "Region to break errors down by: preset name or name:minLat,minLon,maxLat,maxLon (repeatable)")
	flags.Bool("report-regions", false, "Print per-region worst errors after the summary")
	flags.String("metrics-file", "", "Write Prometheus textfile metrics to this path")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: json or console")
	verbose := flags.BoolP("verbose", "v", false, "Shortcut for --log-level debug")

	bind := map[string]string{
		"input":               "input",
		"solver.direct_args":  "direct-args",
		"solver.inverse_args": "inverse-args",
		"solver.layout":       "layout",
		"kinds":               "kinds",
		"reverse":             "reverse",
		"consistency":         "consistency",
		"regions":             "region",
		"report.regions":      "report-regions",
		"report.metrics_file": "metrics-file",
		"log.level":           "log-level",
		"log.format":          "log-format",
	}
	for key, name := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.PreRunE = func(*cobra.Command, []string) error {
		if *configFile != "" {
			a.v.SetConfigFile(*configFile)
		}
		if *verbose {
			a.v.Set("log.level", "debug")
		}
		return nil
	}
	return cmd
}

// options turns settings into validator options.
func options(cfg *config.Config) (validate.Options, error) {
	var opts validate.Options
	var err error

	if opts.Layout, err = solver.ParseLayout(cfg.Solver.Layout); err != nil {
		return opts, err
	}
	if opts.Reverse, err = testcase.ParseReverse(cfg.Reverse); err != nil {
		return opts, err
	}
	for _, s := range cfg.Kinds {
		k, err := testcase.ParseKind(s)
		if err != nil {
			return opts, err
		}
		opts.Kinds = append(opts.Kinds, k)
	}
	opts.Consistency = cfg.Consistency

	if len(cfg.Regions) > 0 {
		regions, err := region.ParseAll(cfg.Regions)
		if err != nil {
			return opts, err
		}
		opts.Regions = region.NewIndex(regions)
	}
	return opts, nil
}

func needs(kinds []testcase.Kind, direct bool) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k.IsDirect() == direct {
			return true
		}
	}
	return false
}

func (a *app) run(ctx context.Context, solverPath string) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return &usageError{fmt.Errorf("load config: %w", err)}
	}
	opts, err := options(cfg)
	if err != nil {
		return &usageError{err}
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return &usageError{err}
	}
	runID := uuid.NewString()
	a.logger = logger.With(zap.String("run_id", runID))
	logger = a.logger

	ref := reference.WGS84
	if cfg.Ellipsoid.A != ref.EquatorialRadius() || cfg.Ellipsoid.F != ref.Flattening() {
		ref = reference.NewEllipsoid(cfg.Ellipsoid.A, cfg.Ellipsoid.F)
	}

	// Step 1: Open the test case feed.
	in := a.stdin
	source := "stdin"
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in, source = f, cfg.Input
	}
	logger.Info("Reading test cases", zap.String("source", source))

	// Step 2: Start the solvers. Cancelling ctx kills them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pool solver.Pool
	var direct, inverse validate.Solver
	if needs(opts.Kinds, true) {
		c, err := solver.Start(ctx, solver.Spec{Name: "direct", Path: solverPath, Args: cfg.Solver.DirectArgs}, logger)
		if err != nil {
			return err
		}
		pool.Add(c)
		direct = c
	}
	if needs(opts.Kinds, false) {
		c, err := solver.Start(ctx, solver.Spec{Name: "inverse", Path: solverPath, Args: cfg.Solver.InverseArgs}, logger)
		if err != nil {
			cancel()
			_ = pool.Close()
			return err
		}
		pool.Add(c)
		inverse = c
	}

	// Step 3: Validate.
	v, err := validate.New(ref, direct, inverse, opts, logger)
	if err != nil {
		cancel()
		_ = pool.Close()
		return err
	}
	logger.Info("Validating",
		zap.Stringers("kinds", v.Kinds()),
		zap.Stringer("layout", opts.Layout),
		zap.Stringer("reverse", opts.Reverse))

	res, err := v.Run(ctx, testcase.NewReader(in))
	if err != nil {
		cancel()
		_ = pool.Close()
		return err
	}
	if err := pool.Close(); err != nil {
		logger.Warn("Solver did not exit cleanly", zap.Error(err))
	}

	// Step 4: Report.
	if err := report.WriteSummary(a.stdout, res.Extremes); err != nil {
		return err
	}
	if cfg.Report.Regions {
		if err := report.WriteRegions(a.stdout, res.Regions); err != nil {
			return err
		}
	}

	// Step 5: Metrics.
	if cfg.Report.MetricsFile != "" {
		m := report.NewMetrics()
		m.Observe(runID, solverPath, res)
		if err := m.WriteTextfile(cfg.Report.MetricsFile); err != nil {
			return err
		}
		logger.Info("Wrote metrics", zap.String("path", cfg.Report.MetricsFile))
	}

	fields := []zap.Field{zap.Int("cases", res.Cases)}
	for _, k := range v.Kinds() {
		fields = append(fields, zap.Int(k.String()+"_exchanges", res.Exchanges[k]))
	}
	logger.Info("Done", fields...)
	return nil
}
