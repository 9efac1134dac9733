package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed keymap.schema.json
var schemaSource []byte

const schemaURL = "keymap.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the embedded keymap document schema.
func Schema() []byte {
	out := make([]byte, len(schemaSource))
	copy(out, schemaSource)
	return out
}

func keymapSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add keymap schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateRaw checks a generic decoded document against the schema.
// The value is normalized through JSON first so that TOML and YAML number
// types validate the same way.
func ValidateRaw(raw any) error {
	schema, err := keymapSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeymap, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeymap, err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeymap, err)
	}
	return nil
}
