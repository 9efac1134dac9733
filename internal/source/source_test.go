package source

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/layer"
)

func TestParseLine(t *testing.T) {
	at := time.Unix(100, 0)
	tests := []struct {
		line string
		want Event
		ok   bool
		err  bool
	}{
		{line: "D 12", want: KeyEvent(key.Press(12, at)), ok: true},
		{line: "u 3", want: KeyEvent(key.Release(3, at)), ok: true},
		{line: "  M -4 9  ", want: MotionEvent(key.Motion{DX: -4, DY: 9, Time: at}), ok: true},
		{line: ""},
		{line: "# comment"},
		{line: "D", err: true},
		{line: "D 300", err: true},
		{line: "M 1", err: true},
		{line: "M x 1", err: true},
		{line: "X 1", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev, ok, err := ParseLine(tt.line, at)
			if tt.err {
				assert.ErrorIs(t, err, ErrBadLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "D 4", KeyEvent(key.Press(4, time.Time{})).String())
	assert.Equal(t, "U 4", KeyEvent(key.Release(4, time.Time{})).String())
	assert.Equal(t, "M 1 -2", MotionEvent(key.Motion{DX: 1, DY: -2}).String())
}

func TestLineSourceRun(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(50, 0))
	input := "D 1\nbogus\n\nM 10 0\nU 1\n"
	src := NewLineSource(strings.NewReader(input), WithClock(clock))

	events := make(chan Event, 10)
	require.NoError(t, src.Run(context.Background(), events))
	close(events)

	var got []string
	for ev := range events {
		got = append(got, ev.String())
		assert.Equal(t, clock.Now(), eventTime(ev))
	}
	assert.Equal(t, []string{"D 1", "M 10 0", "U 1"}, got)
}

func TestLineSourceStopsOnCancel(t *testing.T) {
	src := NewLineSource(strings.NewReader("D 1\nU 1\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := src.Run(ctx, make(chan Event))
	assert.ErrorIs(t, err, context.Canceled)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestLineSourceReadError(t *testing.T) {
	err := NewLineSource(brokenReader{}).Run(context.Background(), make(chan Event, 1))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func eventTime(ev Event) time.Time {
	if ev.Kind == KindMotion {
		return ev.Motion.Time
	}
	return ev.Key.Time
}

func terminalTable(t *testing.T) *layer.Table {
	t.Helper()
	table, err := layer.NewTable(
		layer.NewLayer(0, "base",
			action.Key(key.CodeW),
			action.LT(1, key.CodeX),
			action.Key(key.CodeSpace),
		),
		layer.NewLayer(1, "pointer",
			action.Key(key.CodeButton1),
			action.Trans,
			action.Key(key.CodeA),
		),
	)
	require.NoError(t, err)
	return table
}

func TestTerminalPosition(t *testing.T) {
	src := NewTerminalSource(nil, terminalTable(t))

	pos, ok := src.Position(key.CodeX)
	require.True(t, ok)
	assert.Equal(t, key.Position(1), pos)

	_, ok = src.Position(key.CodeA)
	assert.False(t, ok, "only the base layer is searched")
}

func TestTerminalSourceRun(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())

	src := NewTerminalSource(screen, terminalTable(t), WithTapDuration(time.Millisecond), WithMotionScale(5))

	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	screen.InjectMouse(1, 1, tcell.ButtonNone, tcell.ModNone)
	screen.InjectMouse(3, 2, tcell.ButtonNone, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlC, 0, tcell.ModNone)

	events := make(chan Event, 16)
	require.NoError(t, src.Run(context.Background(), events))
	close(events)

	var got []string
	for ev := range events {
		got = append(got, ev.String())
	}
	assert.Equal(t, []string{"D 1", "U 1", "M 10 5", "D 2", "U 2"}, got)
}

func TestTerminalSourceStopsOnCancel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	src := NewTerminalSource(screen, terminalTable(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, make(chan Event)) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("terminal source did not stop")
	}
}
