package input

import (
	"fmt"
	"time"

	"github.com/dshills/keyflow/internal/input/combo"
	"github.com/dshills/keyflow/internal/input/layer"
	"github.com/dshills/keyflow/internal/input/pointer"
	"github.com/dshills/keyflow/internal/input/tapdance"
)

// Config holds the engine timing and feature settings.
type Config struct {
	// EnableCombos turns chord detection on.
	EnableCombos bool

	// ComboWindow is the time allowed to complete a combo.
	// Default: 50ms
	ComboWindow time.Duration

	// TapTerm is how long a dual-role key must be held to resolve hold.
	// Default: 200ms
	TapTerm time.Duration

	// PermissiveHold resolves hold when another key is tapped while a
	// dual-role key is held.
	PermissiveHold bool

	// AutoPointer configures the automatic pointer layer.
	AutoPointer pointer.AutoConfig

	// AutoSnipe enables sniping while AutoSnipeLayer is active.
	AutoSnipe      bool
	AutoSnipeLayer layer.ID

	// Device holds the trackball DPI settings.
	Device pointer.DeviceConfig
}

// DefaultConfig returns the default configuration with the pointer layer
// at id 1.
func DefaultConfig() Config {
	return Config{
		EnableCombos:   true,
		ComboWindow:    combo.DefaultWindow,
		TapTerm:        tapdance.DefaultTerm,
		AutoPointer:    pointer.DefaultAutoConfig(1),
		AutoSnipe:      true,
		AutoSnipeLayer: 1,
		Device:         pointer.DefaultDeviceConfig(),
	}
}

// Keymap is everything the engine needs to resolve input.
type Keymap struct {
	Name      string
	Table     *layer.Table
	Combos    []combo.Definition
	TapDances []tapdance.Binding
	Config    Config
}

// Validate checks the keymap's combos, tap dances and cross references
// without loading it into an engine.
func (km *Keymap) Validate() error {
	if km == nil || km.Table == nil {
		return ErrNoKeymap
	}
	_, _, err := km.build()
	return err
}

func (km *Keymap) build() (*combo.Matcher, *tapdance.Set, error) {
	matcher, err := combo.NewMatcher(km.Config.ComboWindow, km.Combos...)
	if err != nil {
		return nil, nil, fmt.Errorf("combos: %w", err)
	}
	set, err := tapdance.NewSet(km.TapDances...)
	if err != nil {
		return nil, nil, fmt.Errorf("tap dances: %w", err)
	}
	if err := validateRefs(km, set); err != nil {
		return nil, nil, err
	}
	return matcher, set, nil
}
