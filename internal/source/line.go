package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/key"
)

// ErrBadLine is returned for lines that do not parse.
var ErrBadLine = errors.New("malformed event line")

// ParseLine parses one line of the event protocol:
//
//	D <pos>        key down
//	U <pos>        key up
//	M <dx> <dy>    pointer motion
//
// Blank lines and lines starting with '#' yield ok == false.
func ParseLine(line string, at time.Time) (ev Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Event{}, false, nil
	}

	fields := strings.Fields(line)
	switch strings.ToUpper(fields[0]) {
	case "D", "U":
		if len(fields) != 2 {
			return Event{}, false, fmt.Errorf("%w: %q", ErrBadLine, line)
		}
		pos, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return Event{}, false, fmt.Errorf("%w: position %q", ErrBadLine, fields[1])
		}
		pressed := strings.EqualFold(fields[0], "D")
		return KeyEvent(key.Event{Pos: key.Position(pos), Pressed: pressed, Time: at}), true, nil

	case "M":
		if len(fields) != 3 {
			return Event{}, false, fmt.Errorf("%w: %q", ErrBadLine, line)
		}
		dx, err := strconv.Atoi(fields[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("%w: dx %q", ErrBadLine, fields[1])
		}
		dy, err := strconv.Atoi(fields[2])
		if err != nil {
			return Event{}, false, fmt.Errorf("%w: dy %q", ErrBadLine, fields[2])
		}
		return MotionEvent(key.Motion{DX: dx, DY: dy, Time: at}), true, nil
	}

	return Event{}, false, fmt.Errorf("%w: %q", ErrBadLine, line)
}

// LineOption configures a LineSource.
type LineOption func(*LineSource)

// WithClock sets the clock used to stamp events.
func WithClock(c clockwork.Clock) LineOption {
	return func(s *LineSource) {
		s.clock = c
	}
}

// WithLogger sets the source's logger.
func WithLogger(logger zerolog.Logger) LineOption {
	return func(s *LineSource) {
		s.logger = logger
	}
}

// LineSource reads the event protocol from any reader.
// Malformed lines are logged and skipped.
type LineSource struct {
	r      io.Reader
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewLineSource creates a source over r.
func NewLineSource(r io.Reader, opts ...LineOption) *LineSource {
	s := &LineSource{
		r:      r,
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "source").Logger()
	return s
}

// Run reads lines until EOF or ctx is done. A blocked read only returns
// once the underlying reader is closed.
func (s *LineSource) Run(ctx context.Context, events chan<- Event) error {
	scanner := bufio.NewScanner(s.r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		ev, ok, err := ParseLine(scanner.Text(), s.clock.Now())
		if err != nil {
			s.logger.Warn().Err(err).Int("line", lineNo).Msg("skipping event line")
			continue
		}
		if !ok {
			continue
		}
		if err := send(ctx, events, ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading events: %w", err)
	}
	return ctx.Err()
}
