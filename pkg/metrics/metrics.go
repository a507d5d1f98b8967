// Package metrics provides Prometheus metrics for the analysis worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_jobs_submitted_total",
			Help: "Total number of analysis jobs submitted",
		},
	)
	JobsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_jobs_completed_total",
			Help: "Total number of analysis jobs completed successfully",
		},
	)
	JobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_jobs_failed_total",
			Help: "Total number of analysis jobs that failed",
		},
		[]string{"stage"},
	)
	JobsDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_jobs_degraded_total",
			Help: "Total number of completed jobs whose response could not be structured",
		},
	)
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyzer_job_duration_seconds",
			Help:    "Analysis job execution duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyzer_workers_active",
			Help: "Number of currently active workers",
		},
	)
)

func RecordJobCompleted(duration time.Duration, degraded bool) {
	JobsCompleted.Inc()
	if degraded {
		JobsDegraded.Inc()
	}
	JobDuration.WithLabelValues("completed").Observe(duration.Seconds())
}

func RecordJobFailed(stage string, duration time.Duration) {
	JobsFailed.WithLabelValues(stage).Inc()
	JobDuration.WithLabelValues("failed").Observe(duration.Seconds())
}
