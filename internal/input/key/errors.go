package key

import "errors"

// Parse errors
var (
	ErrEmptyName       = errors.New("empty key name")
	ErrUnknownCode     = errors.New("unknown keycode")
	ErrUnknownModifier = errors.New("unknown modifier")
)
