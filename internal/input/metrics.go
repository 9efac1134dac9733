package input

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the engine does.
type Metrics struct {
	keyEvents     *prometheus.CounterVec
	motionSamples prometheus.Counter
	hookConsumed  prometheus.Counter
	actions       *prometheus.CounterVec
	comboFires    *prometheus.CounterVec
	comboReplays  prometheus.Counter
	tapHold       *prometheus.CounterVec
	deferred      prometheus.Counter
	pointerLayer  *prometheus.CounterVec
	layerChanges  prometheus.Counter
	activeLayers  prometheus.Gauge
}

// NewMetrics creates engine metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		keyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "key_events_total",
			Help:      "Raw key events received.",
		}, []string{"state"}),
		motionSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "motion_samples_total",
			Help:      "Pointer motion samples received.",
		}),
		hookConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "hook_consumed_total",
			Help:      "Key events consumed by hooks.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "actions_total",
			Help:      "Actions executed, by kind.",
		}, []string{"kind"}),
		comboFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "combo_fires_total",
			Help:      "Combos fired, by name.",
		}, []string{"combo"}),
		comboReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "combo_replays_total",
			Help:      "Buffered presses replayed after a combo did not complete.",
		}),
		tapHold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "tap_hold_resolutions_total",
			Help:      "Dual-role key resolutions, by outcome.",
		}, []string{"resolution"}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "deferred_events_total",
			Help:      "Events deferred while a dual-role key was undecided.",
		}),
		pointerLayer: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "auto_pointer_layer_total",
			Help:      "Automatic pointer layer switches.",
		}, []string{"state"}),
		layerChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyflow",
			Name:      "layer_changes_total",
			Help:      "Active layer stack changes.",
		}),
		activeLayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keyflow",
			Name:      "active_layers",
			Help:      "Number of active layers including the base layer.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.keyEvents,
			m.motionSamples,
			m.hookConsumed,
			m.actions,
			m.comboFires,
			m.comboReplays,
			m.tapHold,
			m.deferred,
			m.pointerLayer,
			m.layerChanges,
			m.activeLayers,
		)
	}
	return m
}

func (m *Metrics) recordKey(pressed bool) {
	if pressed {
		m.keyEvents.WithLabelValues("pressed").Inc()
		return
	}
	m.keyEvents.WithLabelValues("released").Inc()
}

func (m *Metrics) recordLayers(n int) {
	m.layerChanges.Inc()
	m.activeLayers.Set(float64(n))
}

func (m *Metrics) recordPointerLayer(on bool) {
	if on {
		m.pointerLayer.WithLabelValues("on").Inc()
		return
	}
	m.pointerLayer.WithLabelValues("off").Inc()
}
