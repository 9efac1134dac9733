package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keyflow/internal/source"
)

func (c *cli) portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := source.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(c.stdout, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(c.stdout, p)
			}
			return nil
		},
	}
}
