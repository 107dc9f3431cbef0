package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EngineMetrics interface {
	ObserveSync(outcome string, elapsed time.Duration)
	AddMaterialized(created, updated, removed int)
	AddRollback(operation string)
	ObserveCascade(size int)
	AddMatchTransition(status string)
}

func NewMetrics(registry *prometheus.Registry) EngineMetrics {
	return setupPrometheusMetrics(registry)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSync(string, time.Duration) {}
func (noopMetrics) AddMaterialized(int, int, int)    {}
func (noopMetrics) AddRollback(string)               {}
func (noopMetrics) ObserveCascade(int)               {}
func (noopMetrics) AddMatchTransition(string)        {}

func NewNoop() EngineMetrics {
	return noopMetrics{}
}
