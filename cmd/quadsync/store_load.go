package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quadsync/internal/config"
	"quadsync/internal/format"
	"quadsync/internal/ingest"
	"quadsync/internal/rdf"
	"quadsync/internal/store"
)

var storeLoadFull bool

func storeLoadCmd() *cobra.Command {
	var baseURI string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the seed documents into the project graph of the reference store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreLoad(baseURI)
		},
	}
	cmd.Flags().BoolVar(&storeLoadFull, "full", false, "Reload every file (ignore recorded hashes)")
	cmd.Flags().StringVar(&baseURI, "base", "", "Base URI for documents instead of file:// paths")
	return cmd
}

func runStoreLoad(baseURI string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	loader := &store.Loader{
		Store:   db,
		Graph:   cfg.Project,
		Formats: format.Default(rdf.NewNamespaces(cfg.Namespaces), newLogger()),
	}
	result, err := ingest.Run(ctx, cfg, loader, ingest.Options{Full: storeLoadFull, Hashes: loader, BaseURI: baseURI})
	if err != nil {
		return err
	}

	printLoadResult(result)
	if len(result.Errors) > 0 {
		return fmt.Errorf("loading completed with errors")
	}
	fmt.Fprintf(os.Stdout, "  Graph:          %s\n", cfg.Project)
	return nil
}
