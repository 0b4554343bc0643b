package main

import "github.com/spf13/cobra"

func storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Run and manage the reference semantic store",
	}
	cmd.AddCommand(storeServeCmd())
	cmd.AddCommand(storeLoadCmd())
	cmd.AddCommand(storeSQLCmd())
	return cmd
}
