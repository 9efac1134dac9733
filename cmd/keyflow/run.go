package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/app"
	"github.com/dshills/keyflow/internal/config"
	"github.com/dshills/keyflow/internal/hid"
	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/plugin/lua"
	"github.com/dshills/keyflow/internal/source"
	"github.com/dshills/keyflow/internal/trace"
)

type runOptions struct {
	serial      string
	baud        int
	hidKeyboard string
	hidMouse    string
	pan         bool
	stdout      bool
	metricsAddr string
	watch       bool
	hook        string
	record      string
}

func (c *cli) runCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve live events into HID reports",
		Long: `Read key matrix and trackball events, resolve them through the keymap
and write USB HID reports to the gadget devices.

Events come from --serial, or from standard input when no port is given,
in the line protocol:

  D <pos>        key down
  U <pos>        key up
  M <dx> <dy>    trackball motion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.serial, "serial", "", "serial port streaming events (default: standard input)")
	f.IntVar(&o.baud, "baud", source.DefaultBaudRate, "serial baud rate")
	f.StringVar(&o.hidKeyboard, "hid-keyboard", hid.DefaultKeyboardPath, "keyboard gadget device")
	f.StringVar(&o.hidMouse, "hid-mouse", hid.DefaultMousePath, "mouse gadget device (empty disables)")
	f.BoolVar(&o.pan, "pan", false, "send a horizontal wheel byte in mouse reports")
	f.BoolVar(&o.stdout, "stdout", false, "print output calls instead of writing HID reports")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.BoolVar(&o.watch, "watch", false, "reload --config when it changes")
	f.StringVar(&o.hook, "hook", "", "Lua hook script")
	f.StringVar(&o.record, "record", "", "save a trace of the session to this file")
	return cmd
}

func (c *cli) run(ctx context.Context, o runOptions) error {
	km, err := c.loadKeymap()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var out input.Output = printOutput{w: c.stdout}
	if !o.stdout {
		w, err := hid.OpenGadget(o.hidKeyboard, o.hidMouse, hid.WithLogger(c.logger), hid.WithPan(o.pan))
		if err != nil {
			return err
		}
		defer w.Close()
		out = w
	}

	hooks, err := c.newHooks(c.logger)
	if err != nil {
		return err
	}
	var runner *app.Runner
	if o.hook != "" {
		h, err := lua.LoadFile(o.hook,
			lua.WithHookLogger(c.logger),
			lua.WithLayers(func() []string {
				if runner == nil {
					return nil
				}
				return runner.Engine().ActiveLayerNames()
			}),
		)
		if err != nil {
			return err
		}
		defer h.Close()
		if err := hooks.Register("lua", input.HookPriorityNormal, h); err != nil {
			return err
		}
	}

	c.logger.Debug().Strs("hooks", hooks.Names()).Msg("hooks installed")

	runner, err = app.New(app.Options{
		Keymap:     km,
		Output:     out,
		Logger:     c.logger,
		Registerer: reg,
		Hooks:      hooks,
	})
	if err != nil {
		return err
	}

	var sources []source.Source
	if o.serial != "" {
		s, err := source.OpenSerial(o.serial, o.baud, source.WithLogger(c.logger))
		if err != nil {
			return err
		}
		defer s.Close()
		sources = append(sources, s)
	} else {
		sources = append(sources, source.NewLineSource(c.stdin, source.WithLogger(c.logger)))
	}

	if o.watch {
		if c.configPath == "" {
			return errors.New("--watch needs --config")
		}
		w, err := config.NewWatcher(c.configPath, runner.ReloadFunc(),
			config.WithWatcherLogger(c.logger),
			config.WithLoader(config.NewLoader(c.loaderOptions()...)))
		if err != nil {
			return err
		}
		defer w.Close()
	}

	if o.metricsAddr != "" {
		shutdown, err := c.serveMetrics(o.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	if o.record != "" {
		name := strings.TrimSuffix(filepath.Base(o.record), filepath.Ext(o.record))
		if err := runner.StartRecording(name); err != nil {
			return err
		}
	}

	runErr := runner.Run(ctx, sources...)

	if o.record != "" {
		if err := c.saveRecording(runner, o.record); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func (c *cli) saveRecording(runner *app.Runner, path string) error {
	tr, err := runner.StopRecording()
	if err != nil {
		return err
	}
	if len(tr.Entries) == 0 {
		c.logger.Info().Msg("nothing recorded")
		return nil
	}
	if err := trace.Save(tr, path); err != nil {
		return err
	}
	c.logger.Info().Str("path", path).Int("events", len(tr.Entries)).Msg("trace saved")
	return nil
}

// serveMetrics serves reg on addr until the returned function is called.
func (c *cli) serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	c.logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
