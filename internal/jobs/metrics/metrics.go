package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the batch jobs.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Items       *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	LastRun     *prometheus.GaugeVec
}

// New registers the job metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_job_runs_total",
			Help: "Total job runs by job and completion state",
		}, []string{"job", "state"}),

		Items: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_job_items_total",
			Help: "Items processed by job and outcome",
		}, []string{"job", "outcome"}),

		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reseller_job_run_duration_seconds",
			Help:    "Wall clock duration of job runs",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"job"}),

		LastRun: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reseller_job_last_run_timestamp_seconds",
			Help: "Unix time the job last finished",
		}, []string{"job"}),
	}
}

func (m *Metrics) IncItem(job, outcome string) {
	if m != nil {
		m.Items.WithLabelValues(job, outcome).Inc()
	}
}

func (m *Metrics) ObserveRun(job, state string, d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(job, state).Inc()
	m.RunDuration.WithLabelValues(job).Observe(d.Seconds())
	m.LastRun.WithLabelValues(job).Set(float64(finished.Unix()))
}
