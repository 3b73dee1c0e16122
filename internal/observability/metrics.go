package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "extreme_temps"

// Metrics holds the Prometheus counters, histograms, and gauges for wave extraction.
type Metrics struct {
	ObservationsRead *prometheus.CounterVec // labels: extreme={cold,hot}
	ExtremeDays      *prometheus.CounterVec // labels: extreme={cold,hot}
	WavesDetected    *prometheus.CounterVec // labels: extreme={cold,hot}
	WaveLength       *prometheus.HistogramVec

	// Job metrics.
	Jobs            *prometheus.CounterVec // labels: outcome={generated,skipped,failed}
	JobDuration     prometheus.Histogram
	PassDuration    *prometheus.HistogramVec // labels: extreme={cold,hot}
	PipelineRunning prometheus.Gauge

	// Loader metrics.
	LoaderErrors *prometheus.CounterVec // labels: loader
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_read_total",
			Help:      "Daily observations read from input tables.",
		}, []string{"extreme"}),
		ExtremeDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extreme_days_total",
			Help:      "Observations that crossed their cutoff.",
		}, []string{"extreme"}),
		WavesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waves_total",
			Help:      "Waves closed by the detector, singletons included.",
		}, []string{"extreme"}),
		WaveLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wave_length_days",
			Help:      "Length of closed waves in days.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 14, 21, 30},
		}, []string{"extreme"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Output files by outcome.",
		}, []string{"outcome"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of a complete cold and hot extraction for one output file.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one filter, sort and detect pass.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"extreme"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while jobs are being processed, 0 otherwise.",
		}),
		LoaderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_errors_total",
			Help:      "Wave summary loads that failed after the output was committed.",
		}, []string{"loader"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsRead,
		m.ExtremeDays,
		m.WavesDetected,
		m.WaveLength,
		m.Jobs,
		m.JobDuration,
		m.PassDuration,
		m.PipelineRunning,
		m.LoaderErrors,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
