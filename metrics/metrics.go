package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restore_runs_total",
		Help: "Total number of restoration runs, by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restore_stage_duration_seconds",
		Help:    "Duration of each restoration pipeline stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restore_generation_polls_total",
		Help: "Total number of status checks of remote video generation operations",
	})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "restore_active_runs",
		Help: "Number of restoration runs currently in flight",
	})
)
