// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	SizingComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sizing_computations_total",
			Help: "Sizing computations by optimization target and outcome code",
		},
		[]string{"target", "outcome"},
	)

	SizingPeakPowerKwc = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sizing_peak_power_kwc",
			Help:    "Required peak power of successful sizings",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	IrradiationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irradiation_lookups_total",
			Help: "Irradiation lookups by source (live, cache, fallback)",
		},
		[]string{"kind", "source"},
	)
)

// Irradiation lookup sources.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// ObserveSizing records the outcome of one computation. An empty outcome
// means success.
func ObserveSizing(target, outcome string, peakPowerKwc float64) {
	if outcome == "" {
		outcome = "ok"
		SizingPeakPowerKwc.Observe(peakPowerKwc)
	}
	SizingComputations.WithLabelValues(target, outcome).Inc()
}
