// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string

	// Output defaults to stderr.
	Output io.Writer
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		TimeFormat: time.RFC3339,
	}
}

// ParseLevel parses a level name such as "debug". An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// ParseFormat checks a format name. An empty name is console.
func ParseFormat(name string) (string, error) {
	switch name {
	case "":
		return FormatConsole, nil
	case FormatConsole, FormatJSON:
		return name, nil
	}
	return "", fmt.Errorf("invalid log format %q (want %s or %s)", name, FormatConsole, FormatJSON)
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var output io.Writer = out
	if cfg.Format == FormatConsole {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
			NoColor:    cfg.Output != nil,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// NewFromEnv creates a logger based on environment variables
// KEYFLOW_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// KEYFLOW_LOG_FORMAT: json, console (default: console)
// Invalid values keep the default.
func NewFromEnv() zerolog.Logger {
	cfg := DefaultConfig()
	if level, err := ParseLevel(os.Getenv("KEYFLOW_LOG_LEVEL")); err == nil {
		cfg.Level = level
	}
	if format, err := ParseFormat(os.Getenv("KEYFLOW_LOG_FORMAT")); err == nil {
		cfg.Format = format
	}
	return New(cfg)
}

// Component returns a child logger tagged with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
