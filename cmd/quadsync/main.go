package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "quadsync",
		Short:        "Eventually consistent RDF client with REST sync",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "quadsync.yaml", "Project config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug output to stderr")
	root.AddCommand(initCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(dumpCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(storeCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
