package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SyncUnchanged = "unchanged"
	SyncChanged   = "changed"
	SyncFailed    = "failed"
)

type prometheusMetrics struct {
	syncElapsedTime  prometheus.HistogramVec
	materialized     prometheus.CounterVec
	rollbacks        prometheus.CounterVec
	cascadeSize      prometheus.Histogram
	matchTransitions prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	syncElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volley_schedule_sync_duration_ms",
			Help:    "A histogram of schedule sync durations in milliseconds by outcome",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"})

	materialized := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volley_materialized_matches_total",
			Help: "Matches created, updated or removed by schedule sync",
		}, []string{"action"})

	rollbacks := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volley_rollbacks_total",
			Help: "Rolled back batches by operation",
		}, []string{"operation"})

	cascadeSize := factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "volley_unfinalize_cascade_size",
			Help:    "Number of downstream matches cleared by one unfinalize",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		})

	matchTransitions := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volley_match_transitions_total",
			Help: "Match status transitions by target status",
		}, []string{"status"})

	return prometheusMetrics{
		syncElapsedTime:  *syncElapsedTime,
		materialized:     *materialized,
		rollbacks:        *rollbacks,
		cascadeSize:      cascadeSize,
		matchTransitions: *matchTransitions,
	}
}

func (metrics prometheusMetrics) ObserveSync(outcome string, elapsed time.Duration) {
	metrics.syncElapsedTime.With(prometheus.Labels{"outcome": outcome}).Observe(float64(elapsed.Milliseconds()))
}

func (metrics prometheusMetrics) AddMaterialized(created, updated, removed int) {
	metrics.materialized.With(prometheus.Labels{"action": "created"}).Add(float64(created))
	metrics.materialized.With(prometheus.Labels{"action": "updated"}).Add(float64(updated))
	metrics.materialized.With(prometheus.Labels{"action": "removed"}).Add(float64(removed))
}

func (metrics prometheusMetrics) AddRollback(operation string) {
	metrics.rollbacks.With(prometheus.Labels{"operation": operation}).Inc()
}

func (metrics prometheusMetrics) ObserveCascade(size int) {
	metrics.cascadeSize.Observe(float64(size))
}

func (metrics prometheusMetrics) AddMatchTransition(status string) {
	metrics.matchTransitions.With(prometheus.Labels{"status": status}).Inc()
}
