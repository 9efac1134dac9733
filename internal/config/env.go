package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "KEYFLOW_"

var errEmptyValue = errors.New("empty value")

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// envSetting applies one environment value to a document.
type envSetting func(doc *Document, value string) error

// envSettings maps environment variables to document settings.
var envSettings = map[string]envSetting{
	"KEYFLOW_COMBOS":                  boolEnv(func(d *Document) **bool { return &d.Timing.Combos }),
	"KEYFLOW_COMBO_WINDOW_MS":         millisEnv(func(d *Document) **int { return &d.Timing.ComboWindowMS }),
	"KEYFLOW_TAP_TERM_MS":             millisEnv(func(d *Document) **int { return &d.Timing.TapTermMS }),
	"KEYFLOW_PERMISSIVE_HOLD":         boolEnv(func(d *Document) **bool { return &d.Timing.PermissiveHold }),
	"KEYFLOW_AUTO_POINTER":            boolEnv(func(d *Document) **bool { return &d.Pointer.AutoLayer }),
	"KEYFLOW_AUTO_POINTER_LAYER":      stringEnv(func(d *Document) **string { return &d.Pointer.Layer }),
	"KEYFLOW_AUTO_POINTER_THRESHOLD":  intEnv(func(d *Document) **int { return &d.Pointer.Threshold }),
	"KEYFLOW_AUTO_POINTER_TIMEOUT_MS": millisEnv(func(d *Document) **int { return &d.Pointer.TimeoutMS }),
	"KEYFLOW_AUTO_SNIPE":              boolEnv(func(d *Document) **bool { return &d.Pointer.AutoSnipe }),
	"KEYFLOW_AUTO_SNIPE_LAYER":        stringEnv(func(d *Document) **string { return &d.Pointer.SnipeLayer }),
	"KEYFLOW_REVERSE_SCROLL":          boolEnv(func(d *Document) **bool { return &d.Pointer.ReverseScroll }),
}

// EnvNames lists the supported environment overrides.
func EnvNames() []string {
	names := make([]string, 0, len(envSettings))
	for name := range envSettings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overrides document settings from the environment and returns
// the names of the variables applied. The result is checked against the
// schema again.
func ApplyEnv(doc *Document, lookup LookupFunc) ([]string, error) {
	var applied []string
	for _, name := range EnvNames() {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envSettings[name](doc, strings.TrimSpace(value)); err != nil {
			return nil, &CompileError{Section: "environment", Item: name, Err: err}
		}
		applied = append(applied, name)
	}
	if len(applied) == 0 {
		return nil, nil
	}
	if err := ValidateRaw(doc); err != nil {
		return nil, fmt.Errorf("after environment overrides %s: %w", strings.Join(applied, ", "), err)
	}
	return applied, nil
}

func boolEnv(field func(*Document) **bool) envSetting {
	return func(doc *Document, value string) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		*field(doc) = &b
		return nil
	}
}

func intEnv(field func(*Document) **int) envSetting {
	return func(doc *Document, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("not an integer: %q", value)
		}
		*field(doc) = &n
		return nil
	}
}

// millisEnv accepts plain milliseconds or a duration such as "250ms".
func millisEnv(field func(*Document) **int) envSetting {
	return func(doc *Document, value string) error {
		if n, err := strconv.Atoi(value); err == nil {
			*field(doc) = &n
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("not milliseconds or a duration: %q", value)
		}
		n := int(d.Milliseconds())
		*field(doc) = &n
		return nil
	}
}

func stringEnv(field func(*Document) **string) envSetting {
	return func(doc *Document, value string) error {
		if value == "" {
			return errEmptyValue
		}
		*field(doc) = &value
		return nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
