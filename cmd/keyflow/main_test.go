package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/trace"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "keyflow dev")
}

func TestCheckBuiltin(t *testing.T) {
	out, err := execute(t, "", "check")
	require.NoError(t, err)
	assert.Equal(t, "built-in handsdownneu: ok (handsdownneu: 5 layers, 56 positions, 12 combos, 0 tap dances)\n", out)

	_, err = execute(t, "", "check", "--keymap", "qwerty")
	assert.Error(t, err)
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(good, []byte("layers:\n  - name: base\n    bindings: [KC_A, KC_B]\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("[[layers]]\nname = \"base\"\nbindings = [\"KC_NOPE\"]\n"), 0o644))

	out, err := execute(t, "", "check", good, bad)
	assert.EqualError(t, err, "1 of 2 keymaps invalid")
	assert.Contains(t, out, good+": ok (good: 1 layers, 2 positions, 0 combos, 0 tap dances)")
	assert.Contains(t, out, bad+": ")
}

func TestDumpLoadsBack(t *testing.T) {
	for _, format := range []string{"toml", "yaml"} {
		t.Run(format, func(t *testing.T) {
			out, err := execute(t, "", "dump", "--format", format)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "dumped."+format)
			require.NoError(t, os.WriteFile(path, []byte(out), 0o644))

			checked, err := execute(t, "", "check", "--config", path)
			require.NoError(t, err)
			assert.Contains(t, checked, "ok (handsdownneu: 5 layers, 56 positions, 12 combos")
		})
	}

	_, err := execute(t, "", "dump", "--format", "json")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYFLOW_TAP_TERM_MS", "300")

	out, err := execute(t, "", "dump", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "tap_term_ms: 300")

	out, err = execute(t, "", "dump", "--format", "yaml", "--no-env")
	require.NoError(t, err)
	assert.NotContains(t, out, "tap_term_ms: 300")

	t.Setenv("KEYFLOW_TAP_TERM_MS", "never")
	_, err = execute(t, "", "check")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	tr := trace.New("cut", "handsdownneu", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	tr.Entries = []trace.Entry{
		{OffsetMS: 0, Event: "D 37"},
		{OffsetMS: 10, Event: "D 38"},
		{OffsetMS: 40, Event: "U 37"},
		{OffsetMS: 50, Event: "U 38"},
	}
	path := filepath.Join(t.TempDir(), "cut.yaml")
	require.NoError(t, trace.Save(tr, path))

	out, err := execute(t, "", "replay", path, "--tail", "300ms")
	require.NoError(t, err)
	assert.Equal(t, "+KC_LCTL\n+KC_X\n-KC_X\n-KC_LCTL\n", out)

	_, err = execute(t, "", "replay", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunFromStdin(t *testing.T) {
	out, err := execute(t, "D 37\nD 38\nU 37\nU 38\nD 51\nU 51\n", "run", "--stdout")
	require.NoError(t, err)
	assert.Equal(t, "+KC_LCTL\n+KC_X\n-KC_X\n-KC_LCTL\n+KC_SPC\n-KC_SPC\n", out)
}

func TestRunRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	_, err := execute(t, "D 51\nU 51\n", "run", "--stdout", "--record", path)
	require.NoError(t, err)

	tr, err := trace.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "session", tr.Name)
	assert.Equal(t, "handsdownneu", tr.Keymap)
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, "D 51", tr.Entries[0].Event)
}

func TestRunWithHook(t *testing.T) {
	script := filepath.Join(t.TempDir(), "hook.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
function on_key(pos, pressed)
  return pos == 51
end
`), 0o644))

	out, err := execute(t, "D 51\nU 51\nD 37\nU 37\n", "run", "--stdout", "--hook", script)
	require.NoError(t, err)
	assert.NotContains(t, out, "KC_SPC")
	assert.Contains(t, out, "+KC_X")
}

func TestRunTraceLogsKeyEvents(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader("D 51\nU 51\n"), &stdout, &stderr)
	cmd.SetArgs([]string{"run", "--stdout", "--log-level", "trace", "--log-format", "json"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "+KC_SPC\n-KC_SPC\n", stdout.String())
	logs := stderr.String()
	assert.Contains(t, logs, `"hooks":["trace"]`)
	assert.Contains(t, logs, `"message":"key event"`)
	assert.Contains(t, logs, `"pos":51`)
	assert.Contains(t, logs, `"action":"KC_SPC"`)
}

func TestRunWatchNeedsConfig(t *testing.T) {
	_, err := execute(t, "", "run", "--stdout", "--watch")
	assert.EqualError(t, err, "--watch needs --config")
}

func TestInvalidLogFlags(t *testing.T) {
	_, err := execute(t, "", "--log-level", "loud", "version")
	assert.Error(t, err)

	_, err = execute(t, "", "--log-format", "xml", "version")
	assert.Error(t, err)
}
