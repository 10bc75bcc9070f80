package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveSave("created", 0.02)
	m.ObserveSave("conflict", 0.01)
	m.ObserveSave("conflict", 0.01)
	m.ObserveConflictCheck(0)
	m.ObserveConflictCheck(3)
	m.ObserveTransition("scheduled", "confirmed")
	m.ObserveOverdueNotice()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.savesTotal.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.savesTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflictChecks.WithLabelValues("clear")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflictChecks.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("scheduled", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overdueNotices))
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveSave("created", 0.1)
	m.ObserveConflictCheck(1)
	m.ObserveTransition("scheduled", "cancelled")
	m.ObserveOverdueNotice()
}
