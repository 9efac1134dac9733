package trace

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyflow/internal/source"
)

// CurrentVersion is the trace format version written by Save.
const CurrentVersion = 1

// Trace errors
var (
	ErrEmptyTrace  = errors.New("trace has no entries")
	ErrBadEntry    = errors.New("invalid trace entry")
	ErrVersion     = errors.New("unsupported trace version")
	ErrRecording   = errors.New("already recording")
	ErrNotRecorded = errors.New("not recording")
)

// Entry is one event at a millisecond offset from the start of the trace.
type Entry struct {
	OffsetMS int64  `yaml:"t"`
	Event    string `yaml:"ev"`
}

// Trace is a recorded session.
type Trace struct {
	Version int       `yaml:"version"`
	ID      uuid.UUID `yaml:"id"`
	Name    string    `yaml:"name"`
	Keymap  string    `yaml:"keymap,omitempty"`
	Created time.Time `yaml:"created"`
	Entries []Entry   `yaml:"entries"`
}

// New creates an empty trace with a fresh id.
func New(name, keymap string, created time.Time) *Trace {
	return &Trace{
		Version: CurrentVersion,
		ID:      uuid.New(),
		Name:    name,
		Keymap:  keymap,
		Created: created,
	}
}

// Duration is the offset of the last entry.
func (t *Trace) Duration() time.Duration {
	if len(t.Entries) == 0 {
		return 0
	}
	return time.Duration(t.Entries[len(t.Entries)-1].OffsetMS) * time.Millisecond
}

// Append adds an event at offset from the trace start.
func (t *Trace) Append(offset time.Duration, ev source.Event) {
	t.Entries = append(t.Entries, Entry{OffsetMS: offset.Milliseconds(), Event: ev.String()})
}

// Events decodes the entries into events timed from start.
func (t *Trace) Events(start time.Time) ([]source.Event, error) {
	out := make([]source.Event, 0, len(t.Entries))
	var last int64
	for i, e := range t.Entries {
		if e.OffsetMS < last {
			return nil, fmt.Errorf("%w %d: offset %d before %d", ErrBadEntry, i, e.OffsetMS, last)
		}
		last = e.OffsetMS
		ev, ok, err := source.ParseLine(e.Event, start.Add(time.Duration(e.OffsetMS)*time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrBadEntry, i, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w %d: empty event", ErrBadEntry, i)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Validate checks version and entries.
func (t *Trace) Validate() error {
	if t.Version > CurrentVersion {
		return fmt.Errorf("%w: %d (max supported: %d)", ErrVersion, t.Version, CurrentVersion)
	}
	_, err := t.Events(time.Time{})
	return err
}
