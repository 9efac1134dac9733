package trace

import (
	"sync"
	"time"

	"github.com/dshills/keyflow/internal/source"
)

// Recorder captures events into a trace.
// It is safe for concurrent use: the runner records while a command
// goroutine starts and stops recording.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	trace     *Trace
	start     time.Time
	started   bool
}

// NewRecorder creates an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start begins a new trace. Offsets count from the first recorded event.
func (r *Recorder) Start(name, keymap string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrRecording
	}
	r.recording = true
	r.trace = New(name, keymap, now)
	r.started = false
	return nil
}

// Record appends an event when recording.
func (r *Recorder) Record(ev source.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return
	}
	at := eventTime(ev)
	if !r.started {
		r.start = at
		r.started = true
	}
	offset := at.Sub(r.start)
	if offset < 0 {
		offset = 0
	}
	r.trace.Append(offset, ev)
}

// Stop ends recording and returns the trace.
func (r *Recorder) Stop() (*Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil, ErrNotRecorded
	}
	r.recording = false
	tr := r.trace
	r.trace = nil
	return tr, nil
}

// IsRecording returns true while a trace is open.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Len returns the number of entries recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trace == nil {
		return 0
	}
	return len(r.trace.Entries)
}

func eventTime(ev source.Event) time.Time {
	if ev.Kind == source.KindMotion {
		return ev.Motion.Time
	}
	return ev.Key.Time
}
