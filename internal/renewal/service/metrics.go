package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	outcomes *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "renewal",
			Name:      "workflow_outcomes_total",
			Help:      "Terminal outcomes of renewal workflow invocations.",
		}, []string{"outcome", "decision"}),
	}
	reg.MustRegister(m.outcomes)
	return m
}

func (m *Metrics) Observe(outcome, decision string) {
	m.outcomes.WithLabelValues(outcome, decision).Inc()
}
