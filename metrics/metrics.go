// Package metrics exposes Prometheus instrumentation for the rating
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts analysis runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rating_runs_total",
		Help: "Completed rating/projection runs by status",
	}, []string{"status"})

	// PlayersRated counts pitchers that received a rating across all runs.
	PlayersRated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_players_rated_total",
		Help: "Pitchers rated across all runs",
	})

	// FetchFailures counts upstream fetch failures by source, including
	// those that degraded to a fallback.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rating_fetch_failures_total",
		Help: "Upstream data fetch failures by source",
	}, []string{"source"})

	// RunDuration observes end-to-end run time in seconds.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rating_run_duration_seconds",
		Help:    "End-to-end duration of rating/projection runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
