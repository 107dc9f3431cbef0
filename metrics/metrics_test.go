package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry).(prometheusMetrics)

	m.AddMaterialized(3, 1, 2)
	m.AddMaterialized(1, 0, 0)
	m.AddRollback("sync")
	m.AddMatchTransition("final")
	m.ObserveCascade(2)
	m.ObserveSync(SyncChanged, 5*time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.materialized.With(prometheus.Labels{"action": "created"})))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.materialized.With(prometheus.Labels{"action": "removed"})))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.With(prometheus.Labels{"operation": "sync"})))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchTransitions.With(prometheus.Labels{"status": "final"})))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "volley_schedule_sync_duration_ms")
	assert.Contains(t, names, "volley_unfinalize_cascade_size")
}

func TestNoop(t *testing.T) {
	m := NewNoop()
	m.ObserveSync(SyncFailed, time.Second)
	m.AddMaterialized(1, 1, 1)
	m.AddRollback("sync")
	m.ObserveCascade(1)
	m.AddMatchTransition("live")
}
