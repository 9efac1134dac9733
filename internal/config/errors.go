package config

import (
	"errors"
	"fmt"
)

// Errors returned while loading keymaps.
var (
	// ErrInvalidKeymap wraps every schema and compilation failure.
	ErrInvalidKeymap = errors.New("invalid keymap")

	// ErrUnsupportedFormat indicates a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported keymap format")

	// ErrFileNotFound indicates the keymap file doesn't exist.
	ErrFileNotFound = errors.New("keymap file not found")
)

// ParseError represents an error while decoding a keymap document.
type ParseError struct {
	// Path is the file that failed to decode.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// CompileError locates a compilation failure inside a document.
type CompileError struct {
	// Section is the document section, such as "layers" or "combos".
	Section string
	// Item names the entry within the section.
	Item string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s: %s: %v", ErrInvalidKeymap, e.Section, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrInvalidKeymap, e.Section, e.Item, e.Err)
}

// Unwrap returns both the sentinel and the underlying error.
func (e *CompileError) Unwrap() []error {
	return []error{ErrInvalidKeymap, e.Err}
}
