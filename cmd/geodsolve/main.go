package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelkirk/validate-geographiclib/pkg/logging"
	"github.com/michaelkirk/validate-geographiclib/pkg/reference"
)

func main() {
	cmd := rootCmd(os.Stdin, os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var (
		opts     reference.ServeOptions
		a, f     float64
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "geodsolve [-i] [-f] [-p prec]",
		Short: "Solve geodesic problems read from stdin, one per line",
		Long: `Reads "lat1 lon1 azi1 s12" (or "lat1 lon1 lat2 lon2" with -i) per line and
prints the solution in GeodSolve's format, flushing after every line:
  direct:  lat2 lon2 azi2
  inverse: azi1 azi2 s12
  -f:      lat1 lon1 azi1 lat2 lon2 azi2 s12 a12 m12 M12 M21 S12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logLevel, "console")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ref := reference.WGS84
			if a != ref.EquatorialRadius() || f != ref.Flattening() {
				ref = reference.NewEllipsoid(a, f)
			}
			logger.Debug("Serving",
				zap.Bool("inverse", opts.Inverse),
				zap.Bool("full", opts.Full),
				zap.Int("precision", opts.Precision),
				zap.Float64("a", a),
				zap.Float64("f", f))

			if err := reference.Serve(cmd.Context(), ref, stdin, stdout, opts); err != nil {
				logger.Error("Serve failed", zap.Error(err))
				return err
			}
			return nil
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Inverse, "inverse", "i", false, "Solve the inverse problem")
	flags.BoolVarP(&opts.Full, "full", "f", false, "Print all 12 output fields")
	flags.IntVarP(&opts.Precision, "precision", "p", reference.DefaultPrecision, "Output precision (lengths in decimals; angles get 5 more)")
	flags.Float64VarP(&a, "equatorial-radius", "a", reference.WGS84.EquatorialRadius(), "Equatorial radius in meters")
	flags.Float64Var(&f, "flattening", reference.WGS84.Flattening(), "Flattening")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level")

	cmd.PreRunE = func(*cobra.Command, []string) error {
		if opts.Precision < 0 || opts.Precision > 16 {
			return fmt.Errorf("precision %d out of range [0, 16]", opts.Precision)
		}
		return nil
	}
	return cmd
}
