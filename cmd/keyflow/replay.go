package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/trace"
)

func (c *cli) replayCmd() *cobra.Command {
	var step, tail time.Duration
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay a recorded session and print the output",
		Long: `Feed a recorded trace through the keymap and print every output call,
one per line. Replays are deterministic: the same trace and keymap always
print the same lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trace.Load(args[0])
			if err != nil {
				return err
			}
			km, err := c.loadKeymap()
			if err != nil {
				return err
			}
			if tr.Keymap != "" && tr.Keymap != km.Name {
				c.logger.Warn().
					Str("recorded", tr.Keymap).
					Str("keymap", km.Name).
					Msg("trace was recorded with a different keymap")
			}

			out := &input.BufferOutput{}
			engine, err := input.NewEngine(km, out, input.WithLogger(c.logger))
			if err != nil {
				return err
			}
			end, err := trace.NewPlayer(step, tail).Play(cmd.Context(), tr, engine, tr.Created)
			if err != nil {
				return err
			}
			for _, line := range out.Strings() {
				fmt.Fprintln(c.stdout, line)
			}
			c.logger.Debug().
				Str("trace", tr.Name).
				Int("events", len(tr.Entries)).
				Int("outputs", len(out.Events)).
				Dur("elapsed", end.Sub(tr.Created)).
				Msg("replay finished")
			return nil
		},
	}
	cmd.Flags().DurationVar(&step, "step", trace.DefaultStep, "tick interval between events")
	cmd.Flags().DurationVar(&tail, "tail", trace.DefaultTail, "how long to keep ticking after the last event")
	return cmd
}
