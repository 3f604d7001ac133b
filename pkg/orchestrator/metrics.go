package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deploykit_runs_total",
			Help: "Total number of deployment runs by result",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deploykit_run_duration_seconds",
			Help:    "End-to-end deployment run duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900},
		},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deploykit_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	activeRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deploykit_active_runs",
			Help: "Number of deployment runs currently in progress",
		},
	)
)

func observeRun(out *Outcome) {
	status := "failure"
	switch {
	case out.Success && out.Warning != "":
		status = "success_with_warning"
	case out.Success:
		status = "success"
	}
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(out.Duration.Seconds())
}
