package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/config"
	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/keymaps"
	"github.com/dshills/keyflow/internal/logging"
)

// cli holds the global flags and the logger built from them.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	keymapName string
	logLevel   string
	logFormat  string
	noEnv      bool

	lookupEnv config.LookupFunc
	logger    zerolog.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		lookupEnv: os.LookupEnv,
		logger:    zerolog.Nop(),
	}

	root := &cobra.Command{
		Use:   "keyflow",
		Short: "Key event resolution for the Charybdis handsdownneu keymap",
		Long: `keyflow turns raw key matrix and trackball events into keyboard and
mouse output: combos, tap-hold keys, one-shot modifiers, an automatic
pointer layer and sniping mode.

Keymaps are TOML or YAML files; without --config the built-in
handsdownneu keymap is used. KEYFLOW_* environment variables such as
KEYFLOW_TAP_TERM_MS or KEYFLOW_AUTO_POINTER override keymap settings
unless --no-env is given.

Examples:
  keyflow check my.toml             # Validate a keymap
  keyflow dump --format yaml        # Print the built-in keymap as YAML
  keyflow sim                       # Try the keymap in the terminal
  keyflow run --serial /dev/ttyACM0 # Drive the USB gadget from a controller
  keyflow replay session.yaml       # Re-run a recorded session`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return c.setupLogging()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "keymap file (.toml, .yaml, .yml)")
	pf.StringVar(&c.keymapName, "keymap", keymaps.DefaultName, "built-in keymap used when --config is not set")
	pf.StringVar(&c.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&c.logFormat, "log-format", logging.FormatConsole, "log format (console, json)")
	pf.BoolVar(&c.noEnv, "no-env", false, "ignore KEYFLOW_* keymap overrides")

	root.AddCommand(
		c.checkCmd(),
		c.dumpCmd(),
		c.replayCmd(),
		c.simCmd(),
		c.runCmd(),
		c.portsCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) setupLogging() error {
	level, err := logging.ParseLevel(c.logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.logFormat)
	if err != nil {
		return err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = c.stderr
	c.logger = logging.New(cfg)
	return nil
}

// newHooks creates the hook chain. At trace level every key event and
// action is logged before other hooks see it.
func (c *cli) newHooks(logger zerolog.Logger) (*input.HookManager, error) {
	hooks := input.NewHookManager()
	if logger.GetLevel() > zerolog.TraceLevel {
		return hooks, nil
	}
	err := hooks.Register("trace", input.HookPriorityHighest, input.LoggingHook{
		Logger: logger.With().Str("component", "hooks").Logger(),
	})
	return hooks, err
}

// loaderOptions applies environment overrides unless --no-env is set.
func (c *cli) loaderOptions() []config.LoaderOption {
	if c.noEnv || c.lookupEnv == nil {
		return nil
	}
	return []config.LoaderOption{config.WithEnv(c.lookupEnv)}
}

// loadKeymap loads --config, or the built-in keymap named by --keymap.
func (c *cli) loadKeymap() (*input.Keymap, error) {
	if c.configPath != "" {
		return config.NewLoader(c.loaderOptions()...).Load(c.configPath)
	}
	return keymaps.Load(c.keymapName, c.loaderOptions()...)
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(c.stdout, "keyflow %s\n", version)
			fmt.Fprintf(c.stdout, "commit: %s\n", commit)
			fmt.Fprintf(c.stdout, "built: %s\n", date)
		},
	}
}
