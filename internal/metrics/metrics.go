package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsStarted counts pipeline runs that began executing.
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videogen",
		Name:      "jobs_started_total",
		Help:      "Number of generation jobs started",
	})

	// JobsCompleted counts jobs that reached the completed status.
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videogen",
		Name:      "jobs_completed_total",
		Help:      "Number of generation jobs completed successfully",
	})

	// JobsFailed counts jobs that terminated in the failed status.
	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videogen",
		Name:      "jobs_failed_total",
		Help:      "Number of generation jobs that failed",
	})

	// StageDuration observes wall-clock seconds per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "videogen",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})

	// AssetGenerationFailures counts individual asset tasks dropped by
	// the best-effort asset stage.
	AssetGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videogen",
		Name:      "asset_generation_failures_total",
		Help:      "Number of individual asset generation tasks that failed",
	})
)
