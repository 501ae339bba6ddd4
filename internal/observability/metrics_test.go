package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("describe", "ok", 20*time.Millisecond)
	m.ObserveRequest("describe", "ok", 30*time.Millisecond)
	m.ObserveRequest("describe", "transport_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReferentialRequestsTotal.WithLabelValues("describe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferentialRequestsTotal.WithLabelValues("describe", "transport_error")))
}

func TestMetrics_ObserveHarvest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveHarvest("desc", "ok", 2, time.Second)
	m.ObserveHarvest("asc", "error", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarvestsTotal.WithLabelValues("desc", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarvestsTotal.WithLabelValues("asc", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HarvestEdges))
}

func TestMetrics_InFlight(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.TaskStarted()
	m.TaskStarted()
	m.TaskDone()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentInFlight))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("describe", "ok", time.Millisecond)
		m.ObserveHarvest("desc", "ok", 1, time.Millisecond)
		m.TaskStarted()
		m.TaskDone()
	})
}
