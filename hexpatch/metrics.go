package hexpatch

import (
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the work of patch runs in a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	directives   prometheus.Counter
	replacements prometheus.Counter
	bytesIn      prometheus.Gauge
	bytesOut     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hexpatch_runs_total",
				Help: "Patch runs by result (ok, test, failed)",
			},
			[]string{"result"},
		),
		directives: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexpatch_directives_applied_total",
			Help: "Directives applied by successful runs",
		}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hexpatch_replacements_total",
			Help: "Replacements made by successful runs",
		}),
		bytesIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hexpatch_input_bytes",
			Help: "Size of the last loaded target",
		}),
		bytesOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hexpatch_output_bytes",
			Help: "Size of the last patched result",
		}),
	}

	m.registry.MustRegister(m.runs, m.directives, m.replacements, m.bytesIn, m.bytesOut)
	return m
}

// ObserveRun records a finished run. report is nil for failed runs.
func (m *Metrics) ObserveRun(report *Report, err error) {
	if err != nil || report == nil {
		m.runs.WithLabelValues("failed").Inc()
		return
	}

	result := "ok"
	if !report.Committed {
		result = "test"
	}
	m.runs.WithLabelValues(result).Inc()
	m.directives.Add(float64(report.Directives))
	m.replacements.Add(float64(len(report.Replacements)))
	m.bytesIn.Set(float64(report.BytesIn))
	m.bytesOut.Set(float64(report.BytesOut))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Annotatef(err, "write metrics %s", path)
	}
	return nil
}
