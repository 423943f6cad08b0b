// Package metrics exposes per-run analysis counters on a private
// Prometheus registry and writes them as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rubiojr/bindplan/plan"
)

// Metrics holds the collectors of one process. Gauges describe the most
// recent run; counters accumulate across runs in watch mode.
type Metrics struct {
	reg *prometheus.Registry

	RunsTotal        prometheus.Counter
	AnalysisDuration prometheus.Histogram
	Functions        *prometheus.GaugeVec
	Failures         *prometheus.GaugeVec
	Dropped          *prometheus.GaugeVec
	ExtraAPIs        *prometheus.GaugeVec
	Shims            prometheus.Gauge
	UnsafeFunctions  prometheus.Gauge
}

// New registers the bindplan collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bindplan_runs_total",
			Help: "Total number of analysis runs.",
		}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bindplan_analysis_seconds",
			Help:    "Time spent analyzing one declaration batch.",
			Buckets: prometheus.DefBuckets,
		}),
		Functions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bindplan_functions",
			Help: "Functions that survived analysis in the last run, by kind.",
		}, []string{"kind"}),
		Failures: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bindplan_failures",
			Help: "Declarations that failed analysis in the last run, by error code.",
		}, []string{"code"}),
		Dropped: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bindplan_dropped",
			Help: "Declarations filtered out in the last run, by reason.",
		}, []string{"reason"}),
		ExtraAPIs: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bindplan_extra_apis",
			Help: "Auxiliary APIs queued in the last run, by kind.",
		}, []string{"kind"}),
		Shims: f.NewGauge(prometheus.GaugeOpts{
			Name: "bindplan_shims",
			Help: "Functions that need a synthesized wrapper in the last run.",
		}),
		UnsafeFunctions: f.NewGauge(prometheus.GaugeOpts{
			Name: "bindplan_unsafe_functions",
			Help: "Functions marked as requiring unsafe in the last run.",
		}),
	}
}

// Record replaces the last-run gauges with the contents of p.
func (m *Metrics) Record(p *plan.Plan, elapsed time.Duration) {
	m.RunsTotal.Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())

	m.Functions.Reset()
	m.Failures.Reset()
	m.Dropped.Reset()
	m.ExtraAPIs.Reset()

	var shims, unsafe float64
	for _, f := range p.Functions {
		m.Functions.WithLabelValues(f.Kind).Inc()
		if f.Shim != nil {
			shims++
		}
		if f.RequiresUnsafe {
			unsafe++
		}
	}
	m.Shims.Set(shims)
	m.UnsafeFunctions.Set(unsafe)

	for _, d := range p.Diagnostics {
		m.Failures.WithLabelValues(d.Code).Inc()
	}
	for _, d := range p.Dropped {
		m.Dropped.WithLabelValues(d.Reason).Inc()
	}
	for _, e := range p.ExtraAPIs {
		m.ExtraAPIs.WithLabelValues(e.Kind).Inc()
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteTextfile writes the current values to path in the text exposition
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
