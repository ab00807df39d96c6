package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks reconciler activity. A nil *Metrics is a no-op.
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionOutcomes *prometheus.CounterVec
	EventsBySource  *prometheus.CounterVec
	TransientErrors *prometheus.CounterVec
	TimeToVerify    prometheus.Histogram
	ActiveSessions  prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "verimint_verification_sessions_started_total",
			Help: "Total number of verification sessions started",
		}),
		SessionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_verification_session_outcomes_total",
			Help: "Verification sessions by final outcome",
		}, []string{"outcome"}),
		EventsBySource: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_verification_events_total",
			Help: "Reconciler events by source and kind",
		}, []string{"source", "kind"}),
		TransientErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_verification_transient_errors_total",
			Help: "Transient status lookup or feed errors by source",
		}, []string{"source"}),
		TimeToVerify: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "verimint_verification_time_to_verify_seconds",
			Help:    "Time from session start to confirmed verification",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "verimint_verification_active_sessions",
			Help: "Sessions currently holding watchers",
		}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
	m.ActiveSessions.Inc()
}

// RecordOutcome counts a released session. outcome is a state name or "abandoned".
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SessionOutcomes.WithLabelValues(outcome).Inc()
	m.ActiveSessions.Dec()
}

func (m *Metrics) IncrementEvent(source, kind string) {
	if m == nil {
		return
	}
	m.EventsBySource.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) IncrementTransientError(source string) {
	if m == nil {
		return
	}
	m.TransientErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveTimeToVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.TimeToVerify.Observe(d.Seconds())
}
