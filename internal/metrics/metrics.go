package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the optimization engine's prometheus collectors.
type Metrics struct {
	GroupsSolved *prometheus.CounterVec
	SolveSeconds *prometheus.HistogramVec
	PlansStored  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GroupsSolved: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "routeopt_warehouse_groups_solved_total",
			Help: "Total number of warehouse group solves, by outcome.",
		}, []string{"status"}),
		SolveSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routeopt_solver_duration_seconds",
			Help:    "Duration of route solver runs, by solver variant.",
			Buckets: prometheus.DefBuckets,
		}, []string{"solver"}),
		PlansStored: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "routeopt_plans_stored_total",
			Help: "Total number of optimization results persisted.",
		}),
	}
}
