package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks wallet activity. A nil *Metrics is a no-op.
type Metrics struct {
	Connects       *prometheus.CounterVec
	SignRequests   *prometheus.CounterVec
	ConnectedState prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_wallet_connects_total",
			Help: "Wallet connection attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		SignRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_wallet_sign_requests_total",
			Help: "Signing requests by outcome",
		}, []string{"outcome"}),
		ConnectedState: f.NewGauge(prometheus.GaugeOpts{
			Name: "verimint_wallet_connected",
			Help: "1 while a wallet address is connected",
		}),
	}
}

// RecordConnect counts a connect or reconnect attempt.
func (m *Metrics) RecordConnect(kind, outcome string) {
	if m == nil {
		return
	}
	m.Connects.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordSign(outcome string) {
	if m == nil {
		return
	}
	m.SignRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.ConnectedState.Set(1)
		return
	}
	m.ConnectedState.Set(0)
}
