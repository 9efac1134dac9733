// Package keymaps holds the built-in keymaps.
package keymaps

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/dshills/keyflow/internal/config"
	"github.com/dshills/keyflow/internal/input"
)

// DefaultName is the keymap used when no file is given.
const DefaultName = "handsdownneu"

//go:embed *.toml
var files embed.FS

// Names lists the built-in keymaps.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Source returns the document text of a built-in keymap.
func Source(name string) ([]byte, error) {
	data, err := files.ReadFile(name + ".toml")
	if err != nil {
		return nil, fmt.Errorf("%w: built-in keymap %q", config.ErrFileNotFound, name)
	}
	return data, nil
}

// Load compiles a built-in keymap.
func Load(name string, opts ...config.LoaderOption) (*input.Keymap, error) {
	return config.NewLoaderWithFS(config.FS{FS: files}, opts...).Load(name + ".toml")
}

// Default compiles the default keymap.
func Default() (*input.Keymap, error) {
	return Load(DefaultName)
}
