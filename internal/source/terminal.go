package source

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/layer"
)

// Terminal defaults.
const (
	DefaultTapDuration = 30 * time.Millisecond
	DefaultMotionScale = 10
)

// runeCodes maps printable characters to keycodes.
var runeCodes = map[rune]key.Code{
	' ':  key.CodeSpace,
	',':  key.CodeComma,
	'.':  key.CodeDot,
	'/':  key.CodeSlash,
	';':  key.CodeSemicolon,
	'\'': key.CodeQuote,
	'-':  key.CodeMinus,
	'=':  key.CodeEqual,
	'[':  key.CodeLeftBracket,
	']':  key.CodeRightBracket,
	'\\': key.CodeBackslash,
	'`':  key.CodeGrave,
}

// specialCodes maps tcell named keys to keycodes.
var specialCodes = map[tcell.Key]key.Code{
	tcell.KeyEnter:      key.CodeEnter,
	tcell.KeyTab:        key.CodeTab,
	tcell.KeyBackspace:  key.CodeBackspace,
	tcell.KeyBackspace2: key.CodeBackspace,
	tcell.KeyEscape:     key.CodeEscape,
	tcell.KeyDelete:     key.CodeDelete,
	tcell.KeyUp:         key.CodeUp,
	tcell.KeyDown:       key.CodeDown,
	tcell.KeyLeft:       key.CodeLeft,
	tcell.KeyRight:      key.CodeRight,
	tcell.KeyHome:       key.CodeHome,
	tcell.KeyEnd:        key.CodeEnd,
	tcell.KeyPgUp:       key.CodePageUp,
	tcell.KeyPgDn:       key.CodePageDown,
}

// codeForRune returns the keycode typed by a character.
func codeForRune(r rune) (key.Code, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return key.CodeA + key.Code(r-'a'), true
	case r >= 'A' && r <= 'Z':
		return key.CodeA + key.Code(r-'A'), true
	case r >= '1' && r <= '9':
		return key.Code1 + key.Code(r-'1'), true
	case r == '0':
		return key.Code0, true
	}
	c, ok := runeCodes[r]
	return c, ok
}

// TerminalOption configures a TerminalSource.
type TerminalOption func(*TerminalSource)

// WithTerminalClock sets the clock used to stamp and space events.
func WithTerminalClock(c clockwork.Clock) TerminalOption {
	return func(s *TerminalSource) {
		s.clock = c
	}
}

// WithTerminalLogger sets the source's logger.
func WithTerminalLogger(logger zerolog.Logger) TerminalOption {
	return func(s *TerminalSource) {
		s.logger = logger
	}
}

// WithTapDuration sets how long a typed key is held.
func WithTapDuration(d time.Duration) TerminalOption {
	return func(s *TerminalSource) {
		if d > 0 {
			s.tap = d
		}
	}
}

// WithMotionScale sets the motion units per terminal cell.
func WithMotionScale(n int) TerminalOption {
	return func(s *TerminalSource) {
		if n > 0 {
			s.scale = n
		}
	}
}

// TerminalSource simulates a keyboard from a terminal. Terminals only
// report key presses, so each typed key becomes a tap of the base layer
// position that sends it. Mouse movement becomes motion samples.
// Ctrl-C ends the source.
type TerminalSource struct {
	screen tcell.Screen
	table  *layer.Table
	clock  clockwork.Clock
	logger zerolog.Logger
	tap    time.Duration
	scale  int

	lastX, lastY int
	haveMouse    bool
}

// NewTerminalSource creates a source over an initialized screen.
func NewTerminalSource(screen tcell.Screen, table *layer.Table, opts ...TerminalOption) *TerminalSource {
	s := &TerminalSource{
		screen: screen,
		table:  table,
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
		tap:    DefaultTapDuration,
		scale:  DefaultMotionScale,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "terminal").Logger()
	return s
}

// OpenTerminal initializes the controlling terminal with mouse reporting.
func OpenTerminal() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	return screen, nil
}

// Position returns the base layer position that sends code.
// A layer-tap key counts when its tap keycode matches.
func (s *TerminalSource) Position(code key.Code) (key.Position, bool) {
	want := action.Key(code)
	for pos := 0; pos < s.table.Size(); pos++ {
		if want.Matches(s.table.Binding(action.BaseLayer, key.Position(pos))) {
			return key.Position(pos), true
		}
	}
	return 0, false
}

// Run polls the screen until Ctrl-C, ctx is done or the screen is
// finalized. The screen is finalized when Run returns.
func (s *TerminalSource) Run(ctx context.Context, events chan<- Event) error {
	stop := context.AfterFunc(ctx, s.screen.Fini)
	defer func() {
		if stop() {
			s.screen.Fini()
		}
	}()

	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return ctx.Err()
		}
		quit, err := s.handle(ctx, ev, events)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (s *TerminalSource) handle(ctx context.Context, ev tcell.Event, events chan<- Event) (bool, error) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Key() == tcell.KeyCtrlC {
			return true, nil
		}
		code, ok := specialCodes[e.Key()]
		if e.Key() == tcell.KeyRune {
			code, ok = codeForRune(e.Rune())
		}
		if !ok {
			return false, nil
		}
		pos, ok := s.Position(code)
		if !ok {
			s.logger.Debug().Stringer("code", code).Msg("key not on base layer")
			return false, nil
		}
		return false, s.tapPosition(ctx, pos, events)

	case *tcell.EventMouse:
		x, y := e.Position()
		if s.haveMouse && (x != s.lastX || y != s.lastY) {
			m := key.Motion{DX: (x - s.lastX) * s.scale, DY: (y - s.lastY) * s.scale, Time: s.clock.Now()}
			if err := send(ctx, events, MotionEvent(m)); err != nil {
				return false, err
			}
		}
		s.lastX, s.lastY, s.haveMouse = x, y, true
	}
	return false, nil
}

func (s *TerminalSource) tapPosition(ctx context.Context, pos key.Position, events chan<- Event) error {
	if err := send(ctx, events, KeyEvent(key.Press(pos, s.clock.Now()))); err != nil {
		return err
	}
	select {
	case <-s.clock.After(s.tap):
	case <-ctx.Done():
		return ctx.Err()
	}
	return send(ctx, events, KeyEvent(key.Release(pos, s.clock.Now())))
}
