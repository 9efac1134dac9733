package app

import (
	"errors"
	"fmt"
)

// Runner errors.
var (
	// ErrAlreadyRunning indicates the runner is already running.
	ErrAlreadyRunning = errors.New("runner already running")
)

// SourceError wraps a failure from one of the event sources.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("event source %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
