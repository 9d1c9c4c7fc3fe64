package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/michaelkirk/validate-geographiclib/pkg/validate"
)

// Metrics holds the gauges describing one run, for the node_exporter
// textfile collector.
type Metrics struct {
	reg *prometheus.Registry

	RunInfo        *prometheus.GaugeVec
	MaxError       *prometheus.GaugeVec
	WorstLine      *prometheus.GaugeVec
	KindMaxError   *prometheus.GaugeVec
	TestCasesTotal prometheus.Counter
	ExchangesTotal *prometheus.CounterVec
}

// NewMetrics registers the run's metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RunInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geodvalidate_run_info",
				Help: "Identifies the validation run",
			},
			[]string{"run_id", "solver"},
		),
		MaxError: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geodvalidate_max_error",
				Help: "Worst error per dimension in meters",
			},
			[]string{"index", "dimension"},
		),
		WorstLine: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geodvalidate_worst_line",
				Help: "0-based input line of the worst error per dimension",
			},
			[]string{"index", "dimension"},
		),
		KindMaxError: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geodvalidate_kind_max_error",
				Help: "Worst error per calculation kind and dimension in meters",
			},
			[]string{"kind", "index", "dimension"},
		),
		TestCasesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geodvalidate_test_cases_total",
				Help: "Test cases validated",
			},
		),
		ExchangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geodvalidate_exchanges_total",
				Help: "Request/response exchanges per calculation kind",
			},
			[]string{"kind"},
		),
	}
	m.reg.MustRegister(m.RunInfo, m.MaxError, m.WorstLine, m.KindMaxError, m.TestCasesTotal, m.ExchangesTotal)
	return m
}

// Observe records res.
func (m *Metrics) Observe(runID, solverPath string, res *validate.Result) {
	m.RunInfo.WithLabelValues(runID, solverPath).Set(1)
	for _, e := range res.Extremes {
		index := strconv.Itoa(int(e.Dimension))
		m.MaxError.WithLabelValues(index, e.Dimension.String()).Set(e.Value)
		m.WorstLine.WithLabelValues(index, e.Dimension.String()).Set(float64(e.Line))
	}
	for k, extremes := range res.ByKind {
		for _, e := range extremes {
			m.KindMaxError.WithLabelValues(k.String(), strconv.Itoa(int(e.Dimension)), e.Dimension.String()).Set(e.Value)
		}
	}
	m.TestCasesTotal.Add(float64(res.Cases))
	for k, n := range res.Exchanges {
		m.ExchangesTotal.WithLabelValues(k.String()).Add(float64(n))
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteTextfile atomically writes the metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
