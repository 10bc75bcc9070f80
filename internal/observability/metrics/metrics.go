package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for appointment scheduling.
type SchedulingMetrics struct {
	savesTotal       *prometheus.CounterVec
	conflictChecks   *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	overdueNotices   prometheus.Counter
	saveLatency      *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregiver",
			Subsystem: "scheduling",
			Name:      "appointment_saves_total",
			Help:      "Appointment save attempts by outcome",
		}, []string{"outcome"}),
		conflictChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregiver",
			Subsystem: "scheduling",
			Name:      "conflict_checks_total",
			Help:      "Conflict checks by result",
		}, []string{"result"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregiver",
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		overdueNotices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caregiver",
			Subsystem: "scheduling",
			Name:      "overdue_notices_total",
			Help:      "Overdue appointment notices recorded",
		}),
		saveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caregiver",
			Subsystem: "scheduling",
			Name:      "appointment_save_seconds",
			Help:      "Latency of appointment saves including the conflict check",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.savesTotal, m.conflictChecks, m.transitionsTotal, m.overdueNotices, m.saveLatency)
	return m
}

// ObserveSave records one save attempt. Outcome is one of created, updated,
// conflict, invalid, error.
func (m *SchedulingMetrics) ObserveSave(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.savesTotal.WithLabelValues(outcome).Inc()
	m.saveLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveConflictCheck(conflicts int) {
	if m == nil {
		return
	}
	result := "clear"
	if conflicts > 0 {
		result = "conflict"
	}
	m.conflictChecks.WithLabelValues(result).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *SchedulingMetrics) ObserveOverdueNotice() {
	if m == nil {
		return
	}
	m.overdueNotices.Inc()
}
