package key

import (
	"fmt"
	"strings"
)

// Code identifies what a binding sends.
// Values up to 0xE7 are HID keyboard usage ids and go straight into reports.
type Code uint16

const (
	// CodeNone is KC_NO: the position does nothing.
	CodeNone Code = 0x00

	// CodeTransparent is KC_TRNS: defer to the next lower active layer.
	CodeTransparent Code = 0x01
)

// Keyboard usage ids in HID order.
const (
	CodeA Code = 0x04 + iota
	CodeB
	CodeC
	CodeD
	CodeE
	CodeF
	CodeG
	CodeH
	CodeI
	CodeJ
	CodeK
	CodeL
	CodeM
	CodeN
	CodeO
	CodeP
	CodeQ
	CodeR
	CodeS
	CodeT
	CodeU
	CodeV
	CodeW
	CodeX
	CodeY
	CodeZ
	Code1
	Code2
	Code3
	Code4
	Code5
	Code6
	Code7
	Code8
	Code9
	Code0
	CodeEnter
	CodeEscape
	CodeBackspace
	CodeTab
	CodeSpace
	CodeMinus
	CodeEqual
	CodeLeftBracket
	CodeRightBracket
	CodeBackslash
	CodeNonUSHash
	CodeSemicolon
	CodeQuote
	CodeGrave
	CodeComma
	CodeDot
	CodeSlash
	CodeCapsLock
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
	CodePrintScreen
	CodeScrollLock
	CodePause
	CodeInsert
	CodeHome
	CodePageUp
	CodeDelete
	CodeEnd
	CodePageDown
	CodeRight
	CodeLeft
	CodeDown
	CodeUp
)

// CodeNonUSBackslash is the ISO key between left shift and Z.
const CodeNonUSBackslash Code = 0x64

// Modifier keys. Pressing one of these sets the matching report bit.
const (
	CodeLeftCtrl Code = 0xE0 + iota
	CodeLeftShift
	CodeLeftAlt
	CodeLeftGUI
	CodeRightCtrl
	CodeRightShift
	CodeRightAlt
	CodeRightGUI
)

// Mouse buttons live outside the keyboard usage page.
const (
	CodeButton1 Code = 0xF0 + iota
	CodeButton2
	CodeButton3
	CodeButton4
	CodeButton5
)

// Charybdis pointer-device codes, handled by the pointer device rather than
// the keyboard report.
const (
	CodeDPIMod Code = 0x7E00 + iota
	CodeSnipingDPIMod
	CodeSniping
	CodeDragScroll
)

// IsModifier returns true for the eight HID modifier keys.
func (c Code) IsModifier() bool {
	return c >= CodeLeftCtrl && c <= CodeRightGUI
}

// IsButton returns true for mouse button codes.
func (c Code) IsButton() bool {
	return c >= CodeButton1 && c <= CodeButton5
}

// Button returns the zero-based mouse button index for a button code.
func (c Code) Button() int {
	return int(c - CodeButton1)
}

// IsDevice returns true for pointer-device codes.
func (c Code) IsDevice() bool {
	return c >= CodeDPIMod && c <= CodeDragScroll
}

// IsKeyboard returns true for codes that go into a keyboard report.
func (c Code) IsKeyboard() bool {
	return c >= CodeA && c <= CodeRightGUI
}

// String returns the canonical QMK-style name.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("KC_0x%02X", uint16(c))
}

// ParseCode resolves a keycode name such as "KC_A" or "XXXXXXX".
func ParseCode(name string) (Code, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CodeNone, ErrEmptyName
	}
	if c, ok := codesByName[strings.ToUpper(name)]; ok {
		return c, nil
	}
	return CodeNone, fmt.Errorf("%w: %q", ErrUnknownCode, name)
}

// MustParseCode parses a keycode name and panics on error.
// Use only for known-valid names in initialization code.
func MustParseCode(name string) Code {
	c, err := ParseCode(name)
	if err != nil {
		panic(err)
	}
	return c
}

// codeNames holds canonical names; the first name registered for a code wins.
var codeNames = map[Code]string{}

// codesByName holds canonical names and aliases.
var codesByName = map[string]Code{}

func register(c Code, names ...string) {
	if _, ok := codeNames[c]; !ok {
		codeNames[c] = names[0]
	}
	for _, n := range names {
		codesByName[n] = c
	}
}

func init() {
	register(CodeNone, "KC_NO", "XXXXXXX")
	register(CodeTransparent, "KC_TRNS", "_______", "KC_TRANSPARENT")

	for i := Code(0); i < 26; i++ {
		register(CodeA+i, "KC_"+string(rune('A'+i)))
	}
	for i := Code(0); i < 9; i++ {
		register(Code1+i, "KC_"+string(rune('1'+i)))
	}
	register(Code0, "KC_0")
	for i := Code(0); i < 12; i++ {
		register(CodeF1+i, fmt.Sprintf("KC_F%d", i+1))
	}

	register(CodeEnter, "KC_ENTER", "KC_ENT")
	register(CodeEscape, "KC_ESCAPE", "KC_ESC")
	register(CodeBackspace, "KC_BSPC", "KC_BACKSPACE")
	register(CodeTab, "KC_TAB")
	register(CodeSpace, "KC_SPC", "KC_SPACE")
	register(CodeMinus, "KC_MINUS", "KC_MINS")
	register(CodeEqual, "KC_EQUAL", "KC_EQL")
	register(CodeLeftBracket, "KC_LEFT_BRACKET", "KC_LBRC")
	register(CodeRightBracket, "KC_RIGHT_BRACKET", "KC_RBRC")
	register(CodeBackslash, "KC_BACKSLASH", "KC_BSLS")
	register(CodeNonUSHash, "KC_NUHS", "KC_NONUS_HASH")
	register(CodeSemicolon, "KC_SEMICOLON", "KC_SCLN")
	register(CodeQuote, "KC_QUOTE", "KC_QUOT")
	register(CodeGrave, "KC_GRAVE", "KC_GRV")
	register(CodeComma, "KC_COMMA", "KC_COMM")
	register(CodeDot, "KC_DOT")
	register(CodeSlash, "KC_SLASH", "KC_SLSH")
	register(CodeCapsLock, "KC_CAPS", "KC_CAPS_LOCK")
	register(CodePrintScreen, "KC_PSCR")
	register(CodeScrollLock, "KC_SCRL")
	register(CodePause, "KC_PAUS")
	register(CodeInsert, "KC_INS", "KC_INSERT")
	register(CodeHome, "KC_HOME")
	register(CodePageUp, "KC_PGUP")
	register(CodeDelete, "KC_DELETE", "KC_DEL")
	register(CodeEnd, "KC_END")
	register(CodePageDown, "KC_PGDN")
	register(CodeRight, "KC_RIGHT", "KC_RGHT")
	register(CodeLeft, "KC_LEFT")
	register(CodeDown, "KC_DOWN")
	register(CodeUp, "KC_UP")
	register(CodeNonUSBackslash, "KC_NONUS_BACKSLASH", "KC_NUBS")

	register(CodeLeftCtrl, "KC_LCTL", "KC_LCTRL")
	register(CodeLeftShift, "KC_LSFT", "KC_LSHIFT")
	register(CodeLeftAlt, "KC_LALT")
	register(CodeLeftGUI, "KC_LGUI")
	register(CodeRightCtrl, "KC_RCTL", "KC_RCTRL")
	register(CodeRightShift, "KC_RSFT", "KC_RSHIFT")
	register(CodeRightAlt, "KC_RALT")
	register(CodeRightGUI, "KC_RGUI")

	register(CodeButton1, "KC_BTN1", "MS_BTN1")
	register(CodeButton2, "KC_BTN2", "MS_BTN2")
	register(CodeButton3, "KC_BTN3", "MS_BTN3")
	register(CodeButton4, "KC_BTN4", "MS_BTN4")
	register(CodeButton5, "KC_BTN5", "MS_BTN5")

	register(CodeDPIMod, "DPI_MOD")
	register(CodeSnipingDPIMod, "S_D_MOD")
	register(CodeSniping, "SNIPING")
	register(CodeDragScroll, "DRGSCRL")
}
