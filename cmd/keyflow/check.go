package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/config"
	"github.com/dshills/keyflow/internal/input"
)

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate keymap files",
		Long: `Validate keymap files against the schema and compile them.

Without arguments, checks --config or the built-in keymap.`,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				km, err := c.loadKeymap()
				if err != nil {
					return err
				}
				c.printSummary(c.keymapLabel(), km)
				return nil
			}

			failed := 0
			for _, path := range args {
				km, err := config.NewLoader(c.loaderOptions()...).Load(path)
				if err != nil {
					failed++
					fmt.Fprintf(c.stdout, "%s: %v\n", path, err)
					continue
				}
				c.printSummary(path, km)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d keymaps invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (c *cli) keymapLabel() string {
	if c.configPath != "" {
		return c.configPath
	}
	return "built-in " + c.keymapName
}

func (c *cli) printSummary(label string, km *input.Keymap) {
	fmt.Fprintf(c.stdout, "%s: ok (%s: %d layers, %d positions, %d combos, %d tap dances)\n",
		label, km.Name, len(km.Table.IDs()), km.Table.Size(), len(km.Combos), len(km.TapDances))
}
