package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks mint activity. A nil *Metrics is a no-op.
type Metrics struct {
	Attempts            *prometheus.CounterVec
	PendingChecks       *prometheus.CounterVec
	ConfirmationLatency prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_mint_attempts_total",
			Help: "Mint attempts by outcome",
		}, []string{"outcome"}),
		PendingChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_mint_pending_checks_total",
			Help: "Pending mint checks by outcome",
		}, []string{"outcome"}),
		ConfirmationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "verimint_mint_confirmation_seconds",
			Help:    "Time from submission to confirmation",
			Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30},
		}),
	}
}

// RecordAttempt counts a finished mint call. outcome is "minted", "cached" or
// an error code.
func (m *Metrics) RecordAttempt(outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCheck(outcome string) {
	if m == nil {
		return
	}
	m.PendingChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveConfirmation(d time.Duration) {
	if m == nil {
		return
	}
	m.ConfirmationLatency.Observe(d.Seconds())
}
