package pointer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dshills/keyflow/internal/input/key"
)

func newDevice() *Device {
	return NewDevice(DefaultDeviceConfig(), zerolog.Nop())
}

func TestDeviceDPISteps(t *testing.T) {
	d := newDevice()
	assert.Equal(t, 400, d.DPI())

	d.HandleCode(key.CodeDPIMod, true, key.ModNone)
	assert.Equal(t, 600, d.DPI())
	d.HandleCode(key.CodeDPIMod, false, key.ModNone)
	assert.Equal(t, 600, d.DPI(), "release does nothing")

	d.HandleCode(key.CodeDPIMod, true, key.ModLeftShift)
	d.HandleCode(key.CodeDPIMod, true, key.ModRightShift)
	assert.Equal(t, 400+15*200, d.DPI(), "shift steps backwards and wraps")
}

func TestDeviceSnipingDPI(t *testing.T) {
	d := newDevice()

	d.HandleCode(key.CodeSnipingDPIMod, true, key.ModNone)
	assert.Equal(t, 300, d.SnipingDPI())
	assert.Equal(t, 400, d.DPI(), "sniping DPI applies only in sniping mode")

	d.HandleCode(key.CodeSniping, true, key.ModNone)
	assert.True(t, d.SnipingEnabled())
	assert.Equal(t, 300, d.DPI())

	d.HandleCode(key.CodeSniping, false, key.ModNone)
	assert.False(t, d.SnipingEnabled())
}

func TestDeviceScale(t *testing.T) {
	d := newDevice()
	assert.Equal(t, Movement{DX: 3, DY: -2}, d.Scale(key.Motion{DX: 3, DY: -2}))

	d.SetSnipingEnabled(true)
	// 200/400: half speed, remainders carried.
	assert.Equal(t, Movement{DX: 0, DY: 0}, d.Scale(key.Motion{DX: 1, DY: 1}))
	assert.Equal(t, Movement{DX: 1, DY: 1}, d.Scale(key.Motion{DX: 1, DY: 1}))
}

func TestDeviceDragScroll(t *testing.T) {
	d := newDevice()
	d.HandleCode(key.CodeDragScroll, true, key.ModNone)
	assert.True(t, d.DragScrollEnabled())

	assert.True(t, d.Scale(key.Motion{DX: 0, DY: -4}).IsZero())
	assert.Equal(t, Movement{Wheel: 1}, d.Scale(key.Motion{DX: 0, DY: -4}))
	assert.Equal(t, Movement{Pan: -1}, d.Scale(key.Motion{DX: -7}))

	d.HandleCode(key.CodeDragScroll, false, key.ModNone)
	assert.Equal(t, Movement{DX: 2}, d.Scale(key.Motion{DX: 2}))
}
