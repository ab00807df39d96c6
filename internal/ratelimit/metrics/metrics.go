package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verimint_ratelimit_decisions_total",
			Help: "Rate limit decisions by route class and outcome (allowed, limited, error)",
		}, []string{"class", "outcome"}),
	}
}

func (m *Metrics) RecordDecision(class, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(class, outcome).Inc()
}
