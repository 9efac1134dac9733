// Package app runs the engine against live event sources.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/config"
	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/pointer"
	"github.com/dshills/keyflow/internal/source"
	"github.com/dshills/keyflow/internal/trace"
)

// Defaults for Options.
const (
	DefaultTickInterval = time.Millisecond
	DefaultEventBuffer  = 256
)

// Options configures a Runner.
type Options struct {
	// Keymap is loaded at start. Required.
	Keymap *input.Keymap

	// Output receives resolved key and pointer output. Nil discards it.
	Output input.Output

	// Clock drives ticks and timestamps. Defaults to the real clock.
	Clock clockwork.Clock

	// TickInterval is how often timers are checked.
	TickInterval time.Duration

	// EventBuffer is the capacity of the event channel.
	EventBuffer int

	// Logger is the parent logger.
	Logger zerolog.Logger

	// Registerer receives engine and runner metrics. Nil leaves them
	// unregistered.
	Registerer prometheus.Registerer

	// Hooks are consulted before each raw key event.
	Hooks *input.HookManager

	// Lighting is told about automatic pointer layer switches. Defaults to
	// a logger.
	Lighting pointer.Lighting
}

// Runner owns an engine and feeds it from sources on a single goroutine.
type Runner struct {
	engine   *input.Engine
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
	metrics  *Metrics
	recorder *trace.Recorder

	events  chan source.Event
	reloads chan *input.Keymap
	calls   chan func(*input.Engine)

	mu     sync.Mutex
	keymap *input.Keymap

	running atomic.Bool
}

// New creates a runner and loads the keymap into a fresh engine.
func New(opts Options) (*Runner, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	logger := opts.Logger.With().Str("component", "runner").Logger()
	if opts.Lighting == nil {
		opts.Lighting = logLighting{logger: opts.Logger.With().Str("component", "lighting").Logger()}
	}

	engineOpts := []input.Option{
		input.WithLogger(opts.Logger),
		input.WithMetrics(input.NewMetrics(opts.Registerer)),
		input.WithLighting(opts.Lighting),
	}
	if opts.Hooks != nil {
		engineOpts = append(engineOpts, input.WithHooks(opts.Hooks))
	}
	engine, err := input.NewEngine(opts.Keymap, opts.Output, engineOpts...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		engine:   engine,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		logger:   logger,
		metrics:  NewMetrics(opts.Registerer),
		recorder: trace.NewRecorder(),
		events:   make(chan source.Event, opts.EventBuffer),
		reloads:  make(chan *input.Keymap, 1),
		calls:    make(chan func(*input.Engine)),
		keymap:   opts.Keymap,
	}, nil
}

// Events returns the channel sources send on.
func (r *Runner) Events() chan<- source.Event {
	return r.events
}

// Engine returns the engine. It may only be used from the runner
// goroutine, such as inside a hook; other callers go through Do.
func (r *Runner) Engine() *input.Engine {
	return r.engine
}

// Keymap returns the keymap currently loaded.
func (r *Runner) Keymap() *input.Keymap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keymap
}

// IsRunning returns true while Run is executing.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Reload queues a keymap switch. Only the latest queued keymap is applied.
func (r *Runner) Reload(km *input.Keymap) {
	for {
		select {
		case r.reloads <- km:
			return
		default:
		}
		select {
		case <-r.reloads:
		default:
		}
	}
}

// ReloadFunc adapts Reload to a keymap file watcher. Load errors are
// logged and the current keymap stays active.
func (r *Runner) ReloadFunc() config.ReloadFunc {
	return func(km *input.Keymap, err error) {
		if err != nil {
			r.metrics.reloads.WithLabelValues("invalid").Inc()
			r.logger.Error().Err(err).Msg("keymap reload rejected")
			return
		}
		r.Reload(km)
	}
}

// Do runs fn on the runner goroutine and waits for it to return.
func (r *Runner) Do(ctx context.Context, fn func(*input.Engine)) error {
	done := make(chan struct{})
	call := func(e *input.Engine) {
		defer close(done)
		fn(e)
	}
	select {
	case r.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartRecording begins capturing events into a trace.
func (r *Runner) StartRecording(name string) error {
	return r.recorder.Start(name, r.Keymap().Name, r.clock.Now())
}

// StopRecording ends the capture and returns the trace.
func (r *Runner) StopRecording() (*trace.Trace, error) {
	return r.recorder.Stop()
}

// Run feeds events to the engine until ctx is done, a source fails or
// every source has finished. Events already queued are processed and held
// keys are released before Run returns.
func (r *Runner) Run(ctx context.Context, sources ...source.Source) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		err   error
	}
	finished := make(chan result, len(sources))
	for i, src := range sources {
		i, src := i, src
		go func() {
			finished <- result{index: i, err: src.Run(ctx, r.events)}
		}()
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().
		Str("keymap", r.Keymap().Name).
		Int("sources", len(sources)).
		Dur("tick", r.interval).
		Msg("runner started")

	var runErr error
	remaining := len(sources)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev := <-r.events:
			r.handle(ev)
		case <-ticker.Chan():
			r.engine.Tick(r.clock.Now())
		case km := <-r.reloads:
			r.apply(km)
		case call := <-r.calls:
			call(r.engine)
		case res := <-finished:
			remaining--
			if res.err != nil && !errors.Is(res.err, context.Canceled) {
				runErr = &SourceError{Index: res.index, Err: res.err}
				break loop
			}
			if remaining == 0 {
				break loop
			}
		}
	}

	// Sources blocked in a read stop on their own once they next send.
	cancel()
	r.drain()
	r.engine.Reset(r.clock.Now())

	if runErr != nil {
		r.logger.Error().Err(runErr).Msg("runner stopped")
	} else {
		r.logger.Info().Msg("runner stopped")
	}
	return runErr
}

func (r *Runner) handle(ev source.Event) {
	r.recorder.Record(ev)
	if ev.Kind == source.KindMotion {
		r.metrics.events.WithLabelValues("motion").Inc()
		r.engine.HandleMotion(ev.Motion)
		return
	}
	r.metrics.events.WithLabelValues("key").Inc()
	r.engine.HandleKey(ev.Key)
}

// drain processes events queued before shutdown.
func (r *Runner) drain() {
	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		default:
			return
		}
	}
}

func (r *Runner) apply(km *input.Keymap) {
	if err := r.engine.Load(km); err != nil {
		r.metrics.reloads.WithLabelValues("failed").Inc()
		r.logger.Error().Err(err).Str("keymap", km.Name).Msg("keymap reload failed")
		return
	}
	r.mu.Lock()
	r.keymap = km
	r.mu.Unlock()
	r.metrics.reloads.WithLabelValues("ok").Inc()
	r.logger.Info().Str("keymap", km.Name).Msg("keymap reloaded")
}
