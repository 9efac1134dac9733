package hid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/pointer"
)

// Default gadget device paths.
const (
	DefaultKeyboardPath = "/dev/hidg0"
	DefaultMousePath    = "/dev/hidg1"
)

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger.With().Str("component", "hid").Logger()
	}
}

// WithPan appends the horizontal wheel byte to mouse reports.
func WithPan(enabled bool) Option {
	return func(w *Writer) {
		w.pan = enabled
	}
}

// Writer turns engine output into HID reports.
// Write errors are logged and kept; the first one is returned by Err.
type Writer struct {
	mu sync.Mutex

	kbd    io.Writer
	mouse  io.Writer
	closer []io.Closer
	logger zerolog.Logger
	pan    bool

	keyboard Keyboard
	buttons  Mouse

	reports int
	err     error
}

// NewWriter writes keyboard reports to kbd and mouse reports to mouse.
// A nil writer drops that kind of report.
func NewWriter(kbd, mouse io.Writer, opts ...Option) *Writer {
	w := &Writer{kbd: kbd, mouse: mouse, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OpenGadget opens gadget device files for writing.
// An empty mouse path disables mouse reports.
func OpenGadget(kbdPath, mousePath string, opts ...Option) (*Writer, error) {
	kbd, err := os.OpenFile(kbdPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open keyboard gadget %s: %w", kbdPath, err)
	}
	closers := []io.Closer{kbd}

	var mouse io.Writer
	if mousePath != "" {
		f, err := os.OpenFile(mousePath, os.O_WRONLY, 0)
		if err != nil {
			_ = kbd.Close()
			return nil, fmt.Errorf("open mouse gadget %s: %w", mousePath, err)
		}
		mouse = f
		closers = append(closers, f)
	}

	w := NewWriter(kbd, mouse, opts...)
	w.closer = closers
	return w, nil
}

// KeyDown implements input.Output.
func (w *Writer) KeyDown(code key.Code) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.keyboard.Press(code) {
		w.writeKeyboard()
	}
}

// KeyUp implements input.Output.
func (w *Writer) KeyUp(code key.Code) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.keyboard.Release(code) {
		w.writeKeyboard()
	}
}

// ButtonDown implements input.Output.
func (w *Writer) ButtonDown(button int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buttons.Press(button) {
		w.writeMouse(MouseReport{Buttons: w.buttons.Buttons()})
	}
}

// ButtonUp implements input.Output.
func (w *Writer) ButtonUp(button int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buttons.Release(button) {
		w.writeMouse(MouseReport{Buttons: w.buttons.Buttons()})
	}
}

// Move implements input.Output.
func (w *Writer) Move(m pointer.Movement) {
	if m.IsZero() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.buttons.Split(m.DX, m.DY, m.Wheel, m.Pan) {
		w.writeMouse(r)
	}
}

// Release sends empty reports for everything still held.
func (w *Writer) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keyboard.Reset()
	w.writeKeyboard()
	if w.buttons.Buttons() != 0 {
		w.buttons.Reset()
		w.writeMouse(MouseReport{})
	}
}

// Keyboard returns the current keyboard report.
func (w *Writer) Keyboard() KeyboardReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.keyboard.Report()
}

// Reports returns how many reports were written.
func (w *Writer) Reports() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reports
}

// Err returns the first write error.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close releases held keys and closes devices opened by OpenGadget.
func (w *Writer) Close() error {
	w.Release()
	var errs []error
	for _, c := range w.closer {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (w *Writer) writeKeyboard() {
	if w.kbd == nil {
		return
	}
	w.write(w.kbd, w.keyboard.Report().Bytes(), "keyboard")
}

func (w *Writer) writeMouse(r MouseReport) {
	if w.mouse == nil {
		return
	}
	w.write(w.mouse, r.Bytes(w.pan), "mouse")
}

func (w *Writer) write(dst io.Writer, report []byte, kind string) {
	if _, err := dst.Write(report); err != nil {
		w.logger.Error().Err(err).Str("report", kind).Msg("hid write failed")
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.reports++
	w.logger.Trace().Str("report", kind).Hex("data", report).Msg("hid report")
}
