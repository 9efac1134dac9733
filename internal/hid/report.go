// Package hid assembles USB HID boot protocol reports from engine output
// and writes them to gadget devices such as /dev/hidg0.
package hid

import (
	"github.com/dshills/keyflow/internal/input/key"
)

// Report sizes in bytes.
const (
	KeyboardReportSize = 8
	MouseReportSize    = 4
	MouseReportPanSize = 5
)

// errorRollOver fills every slot when more than six keys are down.
const errorRollOver = 0x01

// KeyboardReport is a boot keyboard report.
type KeyboardReport struct {
	Modifiers byte
	Keys      [6]byte
}

// Bytes encodes the report: modifiers, a reserved byte, six key slots.
func (r KeyboardReport) Bytes() []byte {
	out := make([]byte, KeyboardReportSize)
	out[0] = r.Modifiers
	copy(out[2:], r.Keys[:])
	return out
}

// Keyboard tracks held keyboard codes and builds reports from them.
// Modifiers are reference counted so that two actions holding the same
// modifier release it only when both let go.
type Keyboard struct {
	modCount [8]int
	keys     []key.Code
}

// Press adds a code and reports whether the report changed.
// Codes outside the keyboard usage page are ignored.
func (k *Keyboard) Press(code key.Code) bool {
	if code.IsModifier() {
		bit := int(code - key.CodeLeftCtrl)
		k.modCount[bit]++
		return k.modCount[bit] == 1
	}
	if !code.IsKeyboard() {
		return false
	}
	for _, c := range k.keys {
		if c == code {
			return false
		}
	}
	k.keys = append(k.keys, code)
	return true
}

// Release removes a code and reports whether the report changed.
func (k *Keyboard) Release(code key.Code) bool {
	if code.IsModifier() {
		bit := int(code - key.CodeLeftCtrl)
		if k.modCount[bit] == 0 {
			return false
		}
		k.modCount[bit]--
		return k.modCount[bit] == 0
	}
	for i, c := range k.keys {
		if c == code {
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			return true
		}
	}
	return false
}

// Reset releases everything.
func (k *Keyboard) Reset() {
	k.modCount = [8]int{}
	k.keys = nil
}

// Held returns the held non-modifier codes in press order.
func (k *Keyboard) Held() []key.Code {
	out := make([]key.Code, len(k.keys))
	copy(out, k.keys)
	return out
}

// Report builds the current report. More than six keys produce the
// phantom ErrorRollOver state.
func (k *Keyboard) Report() KeyboardReport {
	var r KeyboardReport
	for bit, n := range k.modCount {
		if n > 0 {
			r.Modifiers |= 1 << bit
		}
	}
	if len(k.keys) > len(r.Keys) {
		for i := range r.Keys {
			r.Keys[i] = errorRollOver
		}
		return r
	}
	for i, c := range k.keys {
		r.Keys[i] = byte(c)
	}
	return r
}

// MouseReport is a relative mouse report with an optional horizontal
// wheel byte.
type MouseReport struct {
	Buttons byte
	DX      int8
	DY      int8
	Wheel   int8
	Pan     int8
}

// Bytes encodes the report, appending the pan byte when withPan is set.
func (r MouseReport) Bytes(withPan bool) []byte {
	out := []byte{r.Buttons, byte(r.DX), byte(r.DY), byte(r.Wheel)}
	if withPan {
		out = append(out, byte(r.Pan))
	}
	return out
}

// Mouse tracks held buttons.
type Mouse struct {
	buttons byte
}

// Press sets a zero-based button and reports whether it changed.
func (m *Mouse) Press(button int) bool {
	if button < 0 || button > 7 {
		return false
	}
	before := m.buttons
	m.buttons |= 1 << button
	return before != m.buttons
}

// Release clears a zero-based button and reports whether it changed.
func (m *Mouse) Release(button int) bool {
	if button < 0 || button > 7 {
		return false
	}
	before := m.buttons
	m.buttons &^= 1 << button
	return before != m.buttons
}

// Buttons returns the button bitmap.
func (m *Mouse) Buttons() byte {
	return m.buttons
}

// Reset releases every button.
func (m *Mouse) Reset() {
	m.buttons = 0
}

// Split breaks a movement into reports whose axes fit in int8.
func (m *Mouse) Split(dx, dy, wheel, pan int) []MouseReport {
	var out []MouseReport
	for {
		r := MouseReport{
			Buttons: m.buttons,
			DX:      clamp(&dx),
			DY:      clamp(&dy),
			Wheel:   clamp(&wheel),
			Pan:     clamp(&pan),
		}
		out = append(out, r)
		if dx == 0 && dy == 0 && wheel == 0 && pan == 0 {
			return out
		}
	}
}

// clamp takes as much of *v as fits in an int8 and leaves the rest.
func clamp(v *int) int8 {
	n := *v
	switch {
	case n > 127:
		n = 127
	case n < -127:
		n = -127
	}
	*v -= n
	return int8(n)
}
