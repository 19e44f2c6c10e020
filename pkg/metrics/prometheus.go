package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder implements the domain Metrics interface with Prometheus
// collectors. The pipeline is a one-shot batch process, so metrics are
// pushed to a Pushgateway at the end of a run rather than scraped.
type Recorder struct {
	registry      *prometheus.Registry
	rowsTotal     *prometheus.CounterVec
	anomalies     *prometheus.CounterVec
	forecastRows  prometheus.Counter
	stageDuration *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// New creates a Recorder with its own registry, so a push carries only the
// pipeline's series.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunpulse_rows_total",
				Help: "Rows written per persisted table",
			},
			[]string{"table"},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunpulse_anomalies_total",
				Help: "Anomaly flags raised, by kind",
			},
			[]string{"kind"},
		),
		forecastRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunpulse_forecast_rows_total",
				Help: "Forecast rows emitted",
			},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunpulse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunpulse_errors_total",
				Help: "Errors encountered, by type",
			},
			[]string{"type"},
		),
	}
	registry.MustRegister(r.rowsTotal, r.anomalies, r.forecastRows, r.stageDuration, r.errorsTotal)
	return r
}

func (r *Recorder) RecordRows(table string, n int) {
	r.rowsTotal.WithLabelValues(table).Add(float64(n))
}

func (r *Recorder) RecordAnomaly(kind string) {
	r.anomalies.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordForecastRows(n int) {
	r.forecastRows.Add(float64(n))
}

func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Push sends the run's metrics to a Pushgateway.
func (r *Recorder) Push(gateway, job string) error {
	if err := push.New(gateway, job).Gatherer(r.registry).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
