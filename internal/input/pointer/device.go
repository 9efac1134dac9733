package pointer

import (
	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/key"
)

// DeviceConfig holds the trackball DPI tables and drag-scroll settings.
// DPI for step n is Min + n*Step.
type DeviceConfig struct {
	MinDefaultDPI   int
	DefaultDPIStep  int
	DefaultDPISteps int

	MinSnipingDPI   int
	SnipingDPIStep  int
	SnipingDPISteps int

	// DragScrollBuffer is the motion needed for one wheel step.
	DragScrollBuffer int

	// ReverseScroll inverts the vertical wheel direction.
	ReverseScroll bool
}

// DefaultDeviceConfig returns the Charybdis defaults.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		MinDefaultDPI:    400,
		DefaultDPIStep:   200,
		DefaultDPISteps:  16,
		MinSnipingDPI:    200,
		SnipingDPIStep:   100,
		SnipingDPISteps:  4,
		DragScrollBuffer: 6,
	}
}

// Movement is scaled pointer output.
type Movement struct {
	DX    int
	DY    int
	Wheel int
	Pan   int
}

// IsZero reports whether the movement does nothing.
func (m Movement) IsZero() bool {
	return m == Movement{}
}

// Device is the host-side state of the trackball.
// It is not safe for concurrent use.
type Device struct {
	config DeviceConfig
	logger zerolog.Logger

	defaultStep int
	snipingStep int
	sniping     bool
	dragScroll  bool

	// scroll accumulates drag-scroll motion until it reaches the buffer size.
	scrollX int
	scrollY int

	// remX and remY carry sub-unit motion between samples.
	remX int
	remY int
}

// NewDevice creates a device at the lowest DPI steps.
func NewDevice(config DeviceConfig, logger zerolog.Logger) *Device {
	def := DefaultDeviceConfig()
	if config.MinDefaultDPI <= 0 {
		config.MinDefaultDPI = def.MinDefaultDPI
	}
	if config.DefaultDPIStep <= 0 {
		config.DefaultDPIStep = def.DefaultDPIStep
	}
	if config.DefaultDPISteps <= 0 {
		config.DefaultDPISteps = def.DefaultDPISteps
	}
	if config.MinSnipingDPI <= 0 {
		config.MinSnipingDPI = def.MinSnipingDPI
	}
	if config.SnipingDPIStep <= 0 {
		config.SnipingDPIStep = def.SnipingDPIStep
	}
	if config.SnipingDPISteps <= 0 {
		config.SnipingDPISteps = def.SnipingDPISteps
	}
	if config.DragScrollBuffer <= 0 {
		config.DragScrollBuffer = def.DragScrollBuffer
	}
	return &Device{
		config: config,
		logger: logger.With().Str("component", "pointer").Logger(),
	}
}

// DefaultDPI returns the DPI used outside sniping mode.
func (d *Device) DefaultDPI() int {
	return d.config.MinDefaultDPI + d.defaultStep*d.config.DefaultDPIStep
}

// SnipingDPI returns the DPI used in sniping mode.
func (d *Device) SnipingDPI() int {
	return d.config.MinSnipingDPI + d.snipingStep*d.config.SnipingDPIStep
}

// DPI returns the DPI currently in effect.
func (d *Device) DPI() int {
	if d.sniping {
		return d.SnipingDPI()
	}
	return d.DefaultDPI()
}

// SnipingEnabled reports whether sniping mode is on.
func (d *Device) SnipingEnabled() bool {
	return d.sniping
}

// SetSnipingEnabled switches sniping mode.
func (d *Device) SetSnipingEnabled(on bool) {
	if d.sniping == on {
		return
	}
	d.sniping = on
	d.remX, d.remY = 0, 0
	d.logger.Debug().Bool("sniping", on).Int("dpi", d.DPI()).Msg("sniping mode changed")
}

// DragScrollEnabled reports whether drag-scroll is on.
func (d *Device) DragScrollEnabled() bool {
	return d.dragScroll
}

// SetDragScrollEnabled switches drag-scroll.
func (d *Device) SetDragScrollEnabled(on bool) {
	if d.dragScroll == on {
		return
	}
	d.dragScroll = on
	d.scrollX, d.scrollY = 0, 0
	d.logger.Debug().Bool("drag_scroll", on).Msg("drag scroll changed")
}

// StepDefaultDPI moves the default DPI one step, wrapping at the ends.
func (d *Device) StepDefaultDPI(forward bool) {
	d.defaultStep = step(d.defaultStep, d.config.DefaultDPISteps, forward)
	d.logger.Debug().Int("dpi", d.DefaultDPI()).Msg("default dpi changed")
}

// StepSnipingDPI moves the sniping DPI one step, wrapping at the ends.
func (d *Device) StepSnipingDPI(forward bool) {
	d.snipingStep = step(d.snipingStep, d.config.SnipingDPISteps, forward)
	d.logger.Debug().Int("dpi", d.SnipingDPI()).Msg("sniping dpi changed")
}

// HandleCode applies a device keycode. Shift reverses DPI stepping.
// Sniping and drag-scroll are momentary.
func (d *Device) HandleCode(code key.Code, pressed bool, mods key.Modifier) {
	switch code {
	case key.CodeDPIMod:
		if pressed {
			d.StepDefaultDPI(!mods.HasShift())
		}
	case key.CodeSnipingDPIMod:
		if pressed {
			d.StepSnipingDPI(!mods.HasShift())
		}
	case key.CodeSniping:
		d.SetSnipingEnabled(pressed)
	case key.CodeDragScroll:
		d.SetDragScrollEnabled(pressed)
	}
}

// Scale converts a raw sample, taken at the lowest default DPI, into
// output movement at the current DPI. In drag-scroll mode motion is
// accumulated and turned into single wheel steps.
func (d *Device) Scale(m key.Motion) Movement {
	if d.dragScroll {
		d.scrollX += m.DX
		if d.config.ReverseScroll {
			d.scrollY += m.DY
		} else {
			d.scrollY -= m.DY
		}
		var out Movement
		if abs(d.scrollX) > d.config.DragScrollBuffer {
			out.Pan = sign(d.scrollX)
			d.scrollX = 0
		}
		if abs(d.scrollY) > d.config.DragScrollBuffer {
			out.Wheel = sign(d.scrollY)
			d.scrollY = 0
		}
		return out
	}

	ref := d.config.MinDefaultDPI
	dpi := d.DPI()
	x := m.DX*dpi + d.remX
	y := m.DY*dpi + d.remY
	d.remX = x % ref
	d.remY = y % ref
	return Movement{DX: x / ref, DY: y / ref}
}

func step(cur, n int, forward bool) int {
	if forward {
		return (cur + 1) % n
	}
	return (cur + n - 1) % n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
