package trace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/keymaps"
	"github.com/dshills/keyflow/internal/source"
)

var t0 = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.IsRecording())

	// Ignored while idle.
	r.Record(source.KeyEvent(key.Press(1, at(0))))

	require.NoError(t, r.Start("demo", "handsdownneu", t0))
	assert.ErrorIs(t, r.Start("again", "", t0), ErrRecording)

	r.Record(source.KeyEvent(key.Press(37, at(100))))
	r.Record(source.MotionEvent(key.Motion{DX: 9, DY: 0, Time: at(112)}))
	r.Record(source.KeyEvent(key.Release(37, at(160))))
	assert.Equal(t, 3, r.Len())

	tr, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, "demo", tr.Name)
	assert.Equal(t, "handsdownneu", tr.Keymap)
	assert.NotEqual(t, uuid.Nil, tr.ID)
	assert.Equal(t, []Entry{
		{OffsetMS: 0, Event: "D 37"},
		{OffsetMS: 12, Event: "M 9 0"},
		{OffsetMS: 60, Event: "U 37"},
	}, tr.Entries)
	assert.Equal(t, 60*time.Millisecond, tr.Duration())

	_, err = r.Stop()
	assert.ErrorIs(t, err, ErrNotRecorded)
}

func TestTraceEvents(t *testing.T) {
	tr := New("x", "", t0)
	tr.Entries = []Entry{{OffsetMS: 0, Event: "D 1"}, {OffsetMS: 5, Event: "U 1"}}

	events, err := tr.Events(t0)
	require.NoError(t, err)
	assert.Equal(t, []source.Event{
		source.KeyEvent(key.Press(1, at(0))),
		source.KeyEvent(key.Release(1, at(5))),
	}, events)

	tr.Entries = append(tr.Entries, Entry{OffsetMS: 2, Event: "D 2"})
	_, err = tr.Events(t0)
	assert.ErrorIs(t, err, ErrBadEntry)

	tr.Entries = []Entry{{OffsetMS: 0, Event: "Z"}}
	assert.ErrorIs(t, tr.Validate(), ErrBadEntry)

	tr.Entries = []Entry{{OffsetMS: 0, Event: "# nothing"}}
	assert.ErrorIs(t, tr.Validate(), ErrBadEntry)
}

func TestSaveLoad(t *testing.T) {
	tr := New("roundtrip", "handsdownneu", t0)
	tr.Append(0, source.KeyEvent(key.Press(4, t0)))
	tr.Append(30*time.Millisecond, source.KeyEvent(key.Release(4, t0)))

	dir := t.TempDir()
	path := PathFor(filepath.Join(dir, "nested"), tr)
	require.NoError(t, Save(tr, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, loaded.ID)
	assert.Equal(t, tr.Name, loaded.Name)
	assert.True(t, tr.Created.Equal(loaded.Created))
	assert.Equal(t, tr.Entries, loaded.Entries)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestUnmarshalRejectsNewerVersion(t *testing.T) {
	_, err := Unmarshal([]byte("version: 9\nname: future\nentries: []\n"))
	assert.ErrorIs(t, err, ErrVersion)
}

func TestPathFor(t *testing.T) {
	tr := New("", "", t0)
	assert.Equal(t, filepath.Join("d", tr.ID.String()+".yaml"), PathFor("d", tr))
}

type recordingTarget struct {
	log   []string
	ticks int
	last  time.Time
}

func (r *recordingTarget) HandleKey(ev key.Event) {
	r.log = append(r.log, ev.String())
	r.last = ev.Time
}

func (r *recordingTarget) HandleMotion(m key.Motion) {
	r.log = append(r.log, "motion")
	r.last = m.Time
}

func (r *recordingTarget) Tick(now time.Time) {
	r.ticks++
	r.last = now
}

func TestPlayerTicksBetweenEvents(t *testing.T) {
	tr := New("x", "", t0)
	tr.Entries = []Entry{{OffsetMS: 0, Event: "D 1"}, {OffsetMS: 5, Event: "M 1 1"}, {OffsetMS: 10, Event: "U 1"}}

	target := &recordingTarget{}
	end, err := NewPlayer(time.Millisecond, 3*time.Millisecond).Play(context.Background(), tr, target, t0)
	require.NoError(t, err)

	assert.Equal(t, []string{"down(1)", "motion", "up(1)"}, target.log)
	// 4 ticks before each later event, 2 in the tail, then the final tick.
	assert.Equal(t, 4+4+2+1, target.ticks)
	assert.Equal(t, at(13), end)
	assert.Equal(t, at(13), target.last)
}

func TestPlayerErrors(t *testing.T) {
	p := NewPlayer(0, -1)

	_, err := p.Play(context.Background(), New("empty", "", t0), &recordingTarget{}, t0)
	assert.ErrorIs(t, err, ErrEmptyTrace)

	tr := New("x", "", t0)
	tr.Entries = []Entry{{OffsetMS: 0, Event: "D 1"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Play(ctx, tr, &recordingTarget{}, t0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplayIsDeterministic(t *testing.T) {
	km, err := keymaps.Default()
	require.NoError(t, err)

	tr := New("cut", km.Name, t0)
	tr.Entries = []Entry{
		{OffsetMS: 0, Event: "D 37"},
		{OffsetMS: 10, Event: "D 38"},
		{OffsetMS: 40, Event: "U 37"},
		{OffsetMS: 50, Event: "U 38"},
		{OffsetMS: 300, Event: "D 38"},
		{OffsetMS: 330, Event: "U 38"},
		{OffsetMS: 600, Event: "M 20 0"},
		{OffsetMS: 620, Event: "D 49"},
		{OffsetMS: 640, Event: "U 49"},
	}

	run := func() []string {
		out := &input.BufferOutput{}
		e, err := input.NewEngine(km, out)
		require.NoError(t, err)
		_, err = NewPlayer(0, 0).Play(context.Background(), tr, e, t0)
		require.NoError(t, err)
		return out.Strings()
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Equal(t, []string{
		"+KC_LCTL", "+KC_X", "-KC_X", "-KC_LCTL",
		"+KC_C", "-KC_C",
	}, first[:6])
	assert.Contains(t, first, "+BTN1", "motion switched to the pointer layer")
}
