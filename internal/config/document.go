package config

// Document is the decoded form of a keymap file.
// Optional settings are pointers so that absent values take defaults.
type Document struct {
	Name      string        `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Timing    Timing        `toml:"timing,omitempty" yaml:"timing,omitempty" json:"timing"`
	Pointer   Pointer       `toml:"pointer,omitempty" yaml:"pointer,omitempty" json:"pointer"`
	Layers    []LayerDoc    `toml:"layers" yaml:"layers" json:"layers"`
	Combos    []ComboDoc    `toml:"combos,omitempty" yaml:"combos,omitempty" json:"combos,omitempty"`
	TapDances []TapDanceDoc `toml:"tap_dances,omitempty" yaml:"tap_dances,omitempty" json:"tap_dances,omitempty"`
}

// Timing holds the combo and tap-hold constants.
type Timing struct {
	Combos         *bool `toml:"combos,omitempty" yaml:"combos,omitempty" json:"combos,omitempty"`
	ComboWindowMS  *int  `toml:"combo_window_ms,omitempty" yaml:"combo_window_ms,omitempty" json:"combo_window_ms,omitempty"`
	TapTermMS      *int  `toml:"tap_term_ms,omitempty" yaml:"tap_term_ms,omitempty" json:"tap_term_ms,omitempty"`
	PermissiveHold *bool `toml:"permissive_hold,omitempty" yaml:"permissive_hold,omitempty" json:"permissive_hold,omitempty"`
}

// Pointer holds the auto pointer layer, sniping and DPI settings.
// Layer references are layer names or numbers.
type Pointer struct {
	AutoLayer        *bool   `toml:"auto_layer,omitempty" yaml:"auto_layer,omitempty" json:"auto_layer,omitempty"`
	Layer            *string `toml:"layer,omitempty" yaml:"layer,omitempty" json:"layer,omitempty"`
	Threshold        *int    `toml:"threshold,omitempty" yaml:"threshold,omitempty" json:"threshold,omitempty"`
	TimeoutMS        *int    `toml:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	AutoSnipe        *bool   `toml:"auto_snipe,omitempty" yaml:"auto_snipe,omitempty" json:"auto_snipe,omitempty"`
	SnipeLayer       *string `toml:"snipe_layer,omitempty" yaml:"snipe_layer,omitempty" json:"snipe_layer,omitempty"`
	DPI              DPI     `toml:"dpi,omitempty" yaml:"dpi,omitempty" json:"dpi"`
	DragScrollBuffer *int    `toml:"drag_scroll_buffer,omitempty" yaml:"drag_scroll_buffer,omitempty" json:"drag_scroll_buffer,omitempty"`
	ReverseScroll    *bool   `toml:"reverse_scroll,omitempty" yaml:"reverse_scroll,omitempty" json:"reverse_scroll,omitempty"`
}

// DPI holds the trackball DPI tables.
type DPI struct {
	MinDefault   *int `toml:"min_default,omitempty" yaml:"min_default,omitempty" json:"min_default,omitempty"`
	DefaultStep  *int `toml:"default_step,omitempty" yaml:"default_step,omitempty" json:"default_step,omitempty"`
	DefaultSteps *int `toml:"default_steps,omitempty" yaml:"default_steps,omitempty" json:"default_steps,omitempty"`
	MinSniping   *int `toml:"min_sniping,omitempty" yaml:"min_sniping,omitempty" json:"min_sniping,omitempty"`
	SnipingStep  *int `toml:"sniping_step,omitempty" yaml:"sniping_step,omitempty" json:"sniping_step,omitempty"`
	SnipingSteps *int `toml:"sniping_steps,omitempty" yaml:"sniping_steps,omitempty" json:"sniping_steps,omitempty"`
}

// LayerDoc is one layer. ID defaults to the layer's index in the document.
type LayerDoc struct {
	Name     string   `toml:"name" yaml:"name" json:"name"`
	ID       *int     `toml:"id,omitempty" yaml:"id,omitempty" json:"id,omitempty"`
	Bindings []string `toml:"bindings" yaml:"bindings" json:"bindings"`
}

// ComboDoc is one combo definition.
type ComboDoc struct {
	Name     string   `toml:"name" yaml:"name" json:"name"`
	Triggers []string `toml:"triggers" yaml:"triggers" json:"triggers"`
	Output   string   `toml:"output" yaml:"output" json:"output"`
}

// TapDanceDoc is one tap dance binding.
type TapDanceDoc struct {
	ID   int    `toml:"id" yaml:"id" json:"id"`
	Name string `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Tap  string `toml:"tap" yaml:"tap" json:"tap"`
	Hold string `toml:"hold" yaml:"hold" json:"hold"`
}
