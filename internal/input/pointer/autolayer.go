package pointer

import (
	"time"

	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/layer"
)

// Defaults for the auto pointer layer.
const (
	DefaultThreshold = 8
	DefaultTimeout   = 1000 * time.Millisecond
)

// Layers is the part of the layer stack the controller drives.
type Layers interface {
	Activate(id layer.ID)
	Deactivate(id layer.ID)
	Contains(id layer.ID) bool
}

// Lighting is told when the pointer layer is switched automatically.
type Lighting interface {
	PointerLayer(on bool)
}

// AutoConfig configures the auto pointer layer.
type AutoConfig struct {
	// Enabled turns the controller on.
	Enabled bool

	// Threshold is the per-axis motion that counts as movement.
	Threshold int

	// Timeout is the quiet period after which the layer is switched off.
	Timeout time.Duration

	// Layer is the layer to activate.
	Layer layer.ID
}

// DefaultAutoConfig returns the default configuration for a pointer layer.
func DefaultAutoConfig(id layer.ID) AutoConfig {
	return AutoConfig{
		Enabled:   true,
		Threshold: DefaultThreshold,
		Timeout:   DefaultTimeout,
		Layer:     id,
	}
}

// AutoLayer activates a layer on pointer motion and deactivates it once
// motion stops. The timeout switches the layer off even when a key had
// switched it on, matching the firmware's matrix scan.
type AutoLayer struct {
	config   AutoConfig
	layers   Layers
	lighting Lighting

	// timer is the time of the last qualifying sample; zero when idle.
	timer time.Time

	// owned is set when the controller switched the layer on.
	owned bool
}

// NewAutoLayer creates a controller. lighting may be nil.
func NewAutoLayer(config AutoConfig, layers Layers, lighting Lighting) *AutoLayer {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &AutoLayer{
		config:   config,
		layers:   layers,
		lighting: lighting,
	}
}

// Config returns the controller configuration.
func (a *AutoLayer) Config() AutoConfig {
	return a.config
}

// Active reports whether the idle timer is running.
func (a *AutoLayer) Active() bool {
	return !a.timer.IsZero()
}

// Owned reports whether the controller currently owns the layer.
func (a *AutoLayer) Owned() bool {
	return a.owned
}

// HandleMotion processes one motion sample.
// It returns true if the sample switched the layer on.
func (a *AutoLayer) HandleMotion(m key.Motion) bool {
	if !a.config.Enabled || !m.Exceeds(a.config.Threshold) {
		return false
	}

	activated := false
	if !a.layers.Contains(a.config.Layer) {
		a.layers.Activate(a.config.Layer)
		a.owned = true
		activated = true
		if a.lighting != nil {
			a.lighting.PointerLayer(true)
		}
	}
	a.timer = m.Time
	return activated
}

// Tick switches the layer off once the timeout has passed.
// It returns true if the layer was on and got switched off.
func (a *AutoLayer) Tick(now time.Time) bool {
	if a.timer.IsZero() || now.Sub(a.timer) < a.config.Timeout {
		return false
	}
	a.timer = time.Time{}
	a.owned = false
	active := a.layers.Contains(a.config.Layer)
	a.layers.Deactivate(a.config.Layer)
	if a.lighting != nil {
		a.lighting.PointerLayer(false)
	}
	return active
}

// Deadline returns when the layer will be switched off.
func (a *AutoLayer) Deadline() (time.Time, bool) {
	if a.timer.IsZero() {
		return time.Time{}, false
	}
	return a.timer.Add(a.config.Timeout), true
}

// Release gives up ownership without touching the layer.
// Used when the layer was switched off by someone else.
func (a *AutoLayer) Release() {
	a.owned = false
	a.timer = time.Time{}
}
