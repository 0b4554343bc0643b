package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func dumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Serialize the seeded data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := openProject(context.Background())
			if err != nil {
				return err
			}
			data, err := c.Dump(format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "turtle or nquads (default: rest.format)")
	return cmd
}
