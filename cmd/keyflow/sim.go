package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/app"
	"github.com/dshills/keyflow/internal/logging"
	"github.com/dshills/keyflow/internal/source"
)

func (c *cli) simCmd() *cobra.Command {
	var logFile, record string
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Try the keymap in the terminal",
		Long: `Type on the computer keyboard and move the mouse: each key taps the
keymap position that sends it on the base layer, and mouse movement acts
as the trackball. Output calls are shown on screen. Ctrl-C quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.sim(ctx, logFile, record)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs here; the screen is in use")
	cmd.Flags().StringVar(&record, "record", "", "save a trace of the session to this file")
	return cmd
}

func (c *cli) sim(ctx context.Context, logFile, record string) error {
	km, err := c.loadKeymap()
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		cfg := logging.DefaultConfig()
		cfg.Level = c.logger.GetLevel()
		cfg.Format = logging.FormatJSON
		cfg.Output = f
		logger = logging.New(cfg)
	}

	screen, err := source.OpenTerminal()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	out := newScreenOutput(screen, fmt.Sprintf("keyflow sim: %s (Ctrl-C quits)", km.Name))

	hooks, err := c.newHooks(logger)
	if err != nil {
		screen.Fini()
		return err
	}
	runner, err := app.New(app.Options{
		Keymap:   km,
		Output:   out,
		Logger:   logger,
		Hooks:    hooks,
		Lighting: out,
	})
	if err != nil {
		screen.Fini()
		return err
	}

	if record != "" {
		name := strings.TrimSuffix(filepath.Base(record), filepath.Ext(record))
		if err := runner.StartRecording(name); err != nil {
			screen.Fini()
			return err
		}
	}

	src := source.NewTerminalSource(screen, km.Table, source.WithTerminalLogger(logger))
	runErr := runner.Run(ctx, src)

	if record != "" {
		if err := c.saveRecording(runner, record); err != nil {
			return err
		}
	}
	return runErr
}
