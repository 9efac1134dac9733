package source

import (
	"context"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the serial speed used when none is given.
const DefaultBaudRate = 115200

// SerialSource reads the event protocol from a serial port, such as a
// keyboard controller streaming its matrix scan.
type SerialSource struct {
	port serial.Port
	line *LineSource
}

// OpenSerial opens a serial port at 8N1.
func OpenSerial(path string, baud int, opts ...LineOption) (*SerialSource, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return &SerialSource{port: port, line: NewLineSource(port, opts...)}, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Run reads events until the port is closed or ctx is done.
func (s *SerialSource) Run(ctx context.Context, events chan<- Event) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.port.Close()
	})
	defer stop()

	err := s.line.Run(ctx, events)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close closes the port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
