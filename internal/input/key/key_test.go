package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHIDValues(t *testing.T) {
	tests := []struct {
		code Code
		want uint16
	}{
		{CodeA, 0x04},
		{CodeZ, 0x1D},
		{Code1, 0x1E},
		{Code0, 0x27},
		{CodeEnter, 0x28},
		{CodeSpace, 0x2C},
		{CodeSlash, 0x38},
		{CodeF1, 0x3A},
		{CodeF12, 0x45},
		{CodeUp, 0x52},
		{CodeNonUSBackslash, 0x64},
		{CodeLeftCtrl, 0xE0},
		{CodeRightGUI, 0xE7},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, uint16(tt.code))
		})
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		name string
		want Code
	}{
		{"KC_A", CodeA},
		{"kc_a", CodeA},
		{"XXXXXXX", CodeNone},
		{"_______", CodeTransparent},
		{"KC_COMM", CodeComma},
		{"KC_COMMA", CodeComma},
		{"KC_ESC", CodeEscape},
		{"KC_NUBS", CodeNonUSBackslash},
		{"KC_BTN2", CodeButton2},
		{"SNIPING", CodeSniping},
		{" KC_F11 ", CodeF11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCodeErrors(t *testing.T) {
	_, err := ParseCode("")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = ParseCode("KC_NOPE")
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestCodeStringUsesCanonicalName(t *testing.T) {
	assert.Equal(t, "KC_COMMA", CodeComma.String())
	assert.Equal(t, "KC_NO", CodeNone.String())
	assert.Equal(t, "KC_TRNS", CodeTransparent.String())
	assert.Equal(t, "DRGSCRL", CodeDragScroll.String())
	assert.Equal(t, "KC_0x99", Code(0x99).String())
}

func TestCodeClasses(t *testing.T) {
	assert.True(t, CodeLeftShift.IsModifier())
	assert.False(t, CodeA.IsModifier())

	assert.True(t, CodeButton3.IsButton())
	assert.Equal(t, 2, CodeButton3.Button())

	assert.True(t, CodeSniping.IsDevice())
	assert.False(t, CodeSniping.IsKeyboard())

	assert.True(t, CodeA.IsKeyboard())
	assert.True(t, CodeRightGUI.IsKeyboard())
	assert.False(t, CodeNone.IsKeyboard())
	assert.False(t, CodeTransparent.IsKeyboard())
}

func TestMotionExceeds(t *testing.T) {
	assert.True(t, Motion{DX: 9}.Exceeds(8))
	assert.True(t, Motion{DY: -9}.Exceeds(8))
	assert.False(t, Motion{DX: 8, DY: -8}.Exceeds(8))
}
