package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/config"
)

func (c *cli) dumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the compiled keymap as a document",
		Long: `Print the keymap with every setting filled in. The output loads back
into the same keymap.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			f := config.Format(format)
			if f != config.FormatTOML && f != config.FormatYAML {
				return fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, format)
			}
			km, err := c.loadKeymap()
			if err != nil {
				return err
			}
			data, err := config.Encode(config.FromKeymap(km), f)
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatTOML), "output format (toml, yaml)")
	return cmd
}
