package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ReconTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_ticks_total",
			Help: "Total number of reconciliation ticks by outcome",
		},
		[]string{"outcome"},
	)

	ReconPaymentsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_payments_fetched_total",
			Help: "Total number of incoming payment candidates fetched",
		},
		[]string{"source"},
	)

	ReconMatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciliation_matches_total",
			Help: "Total number of transactions settled by reconciliation",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(
		RepositoryCalls,
		RepositoryDuration,
		ReconTicks,
		ReconPaymentsFetched,
		ReconMatches,
	)
}
