package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/keyflow/internal/input/key"
)

// Parse errors
var (
	ErrEmptyExpr       = errors.New("empty action expression")
	ErrSyntax          = errors.New("invalid action expression")
	ErrUnknownFunction = errors.New("unknown action function")
	ErrUnknownLayer    = errors.New("unknown layer")
	ErrArity           = errors.New("wrong number of arguments")
)

// modWrappers are the functions that add modifiers to a keycode.
var modWrappers = map[string]key.Modifier{
	"LCTL": key.ModLeftCtrl,
	"LSFT": key.ModLeftShift,
	"S":    key.ModLeftShift,
	"LALT": key.ModLeftAlt,
	"LGUI": key.ModLeftGUI,
	"RCTL": key.ModRightCtrl,
	"RSFT": key.ModRightShift,
	"RALT": key.ModRightAlt,
	"RGUI": key.ModRightGUI,
	"C_S":  key.ModLeftCtrl | key.ModLeftShift,
	"LCG":  key.ModLeftCtrl | key.ModLeftGUI,
	"LCA":  key.ModLeftCtrl | key.ModLeftAlt,
	"MEH":  key.ModLeftCtrl | key.ModLeftShift | key.ModLeftAlt,
	"HYPR": key.ModLeftCtrl | key.ModLeftShift | key.ModLeftAlt | key.ModLeftGUI,
}

// Parser parses action expressions, resolving layer names.
type Parser struct {
	layers map[string]LayerID
}

// NewParser creates a parser that resolves the given layer names.
// Layer arguments may always be given as numbers.
func NewParser(layers map[string]LayerID) *Parser {
	normalized := make(map[string]LayerID, len(layers))
	for name, id := range layers {
		normalized[strings.ToLower(name)] = id
	}
	return &Parser{layers: normalized}
}

// Parse parses an expression without layer names.
func Parse(expr string) (Action, error) {
	return NewParser(nil).Parse(expr)
}

// MustParse parses an expression and panics on error.
// Use only for known-valid expressions in initialization code.
func MustParse(expr string) Action {
	a, err := Parse(expr)
	if err != nil {
		panic("invalid action: " + expr + ": " + err.Error())
	}
	return a
}

// Parse parses a single action expression such as "LCTL(KC_X)".
func (p *Parser) Parse(expr string) (Action, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return None, ErrEmptyExpr
	}

	open := strings.IndexByte(expr, '(')
	if open < 0 {
		if strings.ContainsAny(expr, ",)") {
			return None, fmt.Errorf("%w: %q", ErrSyntax, expr)
		}
		code, err := key.ParseCode(expr)
		if err != nil {
			return None, err
		}
		return Key(code), nil
	}

	if !strings.HasSuffix(expr, ")") {
		return None, fmt.Errorf("%w: missing ')' in %q", ErrSyntax, expr)
	}

	fn := strings.ToUpper(strings.TrimSpace(expr[:open]))
	args, err := splitArgs(expr[open+1 : len(expr)-1])
	if err != nil {
		return None, fmt.Errorf("%w in %q", err, expr)
	}

	if mods, ok := modWrappers[fn]; ok {
		if len(args) != 1 {
			return None, fmt.Errorf("%w: %s takes 1 argument", ErrArity, fn)
		}
		inner, err := p.Parse(args[0])
		if err != nil {
			return None, err
		}
		switch inner.Kind {
		case KindKey, KindNoOp:
			return Modified(inner.Code, inner.Mods|mods), nil
		default:
			return None, fmt.Errorf("%w: %s expects a keycode, got %s", ErrSyntax, fn, inner.Kind)
		}
	}

	switch fn {
	case "MO", "TG":
		if len(args) != 1 {
			return None, fmt.Errorf("%w: %s takes 1 argument", ErrArity, fn)
		}
		layer, err := p.layer(args[0])
		if err != nil {
			return None, err
		}
		if fn == "MO" {
			return MO(layer), nil
		}
		return TG(layer), nil

	case "LT":
		if len(args) != 2 {
			return None, fmt.Errorf("%w: LT takes 2 arguments", ErrArity)
		}
		layer, err := p.layer(args[0])
		if err != nil {
			return None, err
		}
		code, err := key.ParseCode(args[1])
		if err != nil {
			return None, err
		}
		return LT(layer, code), nil

	case "OSM":
		if len(args) != 1 {
			return None, fmt.Errorf("%w: OSM takes 1 argument", ErrArity)
		}
		mods, err := key.ParseModifier(args[0])
		if err != nil {
			return None, err
		}
		return OSM(mods), nil

	case "TD":
		if len(args) != 1 {
			return None, fmt.Errorf("%w: TD takes 1 argument", ErrArity)
		}
		id, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return None, fmt.Errorf("%w: tap dance id %q", ErrSyntax, args[0])
		}
		return TD(uint8(id)), nil
	}

	return None, fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
}

// layer resolves a layer argument given by number or name.
func (p *Parser) layer(arg string) (LayerID, error) {
	if n, err := strconv.ParseUint(arg, 10, 8); err == nil {
		return LayerID(n), nil
	}
	if id, ok := p.layers[strings.ToLower(arg)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, arg)
}

// splitArgs splits a comma separated argument list at depth zero.
func splitArgs(s string) ([]string, error) {
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, ErrSyntax
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, ErrSyntax
	}
	last := strings.TrimSpace(s[start:])
	if last != "" || len(args) > 0 {
		args = append(args, last)
	}
	for _, a := range args {
		if a == "" {
			return nil, ErrSyntax
		}
	}
	return args, nil
}
