package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Runs                prometheus.Counter
	JobsFound           prometheus.Counter
	ApplicationsDeduped prometheus.Counter
	ApplicationsSent    prometheus.Counter
	ApplicationsFailed  prometheus.Counter
	ApplicationsSkipped prometheus.Counter
	RunDuration         prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_runs_total",
			Help: "Total number of application runs",
		}),
		JobsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_jobs_found_total",
			Help: "Total number of job postings returned by finders",
		}),
		ApplicationsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_applications_deduped_total",
			Help: "Total number of jobs skipped because an application was already sent",
		}),
		ApplicationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_applications_sent_total",
			Help: "Total number of application emails sent",
		}),
		ApplicationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_applications_failed_total",
			Help: "Total number of jobs whose application failed",
		}),
		ApplicationsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "job_applier_applications_skipped_total",
			Help: "Total number of applications built but not sent",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "job_applier_run_duration_seconds",
			Help:    "Time spent on a whole application run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}
