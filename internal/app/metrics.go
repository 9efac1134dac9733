package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts runner activity.
type Metrics struct {
	reloads *prometheus.CounterVec
	events  *prometheus.CounterVec
}

// NewMetrics creates runner metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Subsystem: "runner",
			Name:      "reloads_total",
			Help:      "Keymap reloads, by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Subsystem: "runner",
			Name:      "events_total",
			Help:      "Source events delivered to the engine, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.reloads, m.events)
	}
	return m
}
