package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keyflow/internal/input"
)

// Format is a keymap file encoding.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FileSystem is an abstraction for reading keymap files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FS adapts an fs.FS, such as an embed.FS, to FileSystem.
type FS struct {
	FS fs.FS
}

// ReadFile reads the entire file at path.
func (f FS) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(f.FS, path)
}

// Loader reads, validates and compiles keymap files.
type Loader struct {
	fs  FileSystem
	env LookupFunc
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnv applies KEYFLOW_* overrides from lookup to every document.
func WithEnv(lookup LookupFunc) LoaderOption {
	return func(l *Loader) {
		l.env = lookup
	}
}

// NewLoader creates a loader over the OS file system.
func NewLoader(opts ...LoaderOption) *Loader {
	return NewLoaderWithFS(OSFS{}, opts...)
}

// NewLoaderWithFS creates a loader over a custom file system.
func NewLoaderWithFS(fsys FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{fs: fsys}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and compiles the keymap at path.
func (l *Loader) Load(path string) (*input.Keymap, error) {
	doc, err := l.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return Compile(doc)
}

// LoadDocument reads and validates the document at path without compiling it.
// A document without a name is named after its file.
func (l *Loader) LoadDocument(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading keymap %s: %w", path, err)
	}
	doc, err := Decode(path, format, data)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if l.env != nil {
		if _, err := ApplyEnv(doc, l.env); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return doc, nil
}

// Load reads and compiles the keymap at path from the OS file system.
func Load(path string) (*input.Keymap, error) {
	return NewLoader().Load(path)
}

// LoadReader decodes and compiles a keymap from r.
func LoadReader(r io.Reader, format Format) (*input.Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}
	doc, err := Decode("<reader>", format, data)
	if err != nil {
		return nil, err
	}
	return Compile(doc)
}

// Decode parses data, validates it against the schema and decodes it into
// a Document. Source names the data in error messages.
func Decode(source string, format Format, data []byte) (*Document, error) {
	var raw any
	var doc Document

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, tomlError(source, err)
		}
		if err := ValidateRaw(raw); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, tomlError(source, err)
		}

	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		if err := ValidateRaw(raw); err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return &doc, nil
}

func tomlError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}

// Encode renders a document in the given format.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(doc)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
