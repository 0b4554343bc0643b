package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quadsync/internal/config"
	"quadsync/internal/format"
	"quadsync/internal/rdf"
	"quadsync/internal/server"
)

func storeServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the semantic store REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreServe(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: store.listen)")
	return cmd
}

func runStoreServe(listen string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Store.Listen
	}
	if listen == "" {
		listen = ":8080"
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	logger := newLogger()
	srv := server.New(server.Options{
		Store:   db,
		Formats: format.Default(rdf.NewNamespaces(cfg.Namespaces), logger),
		REST:    cfg.REST,
		CSRF:    cfg.Store.CSRF,
		Logger:  logger,
	})
	return srv.Run(ctx, listen)
}
