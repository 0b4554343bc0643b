package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"quadsync/internal/client"
	"quadsync/internal/config"
	"quadsync/internal/ingest"
)

var (
	configPath string
	verbose    bool
)

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openProject loads the config and a client with its seed documents merged.
func openProject(ctx context.Context) (*client.Client, *ingest.Result, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	c, err := client.New(cfg, newLogger())
	if err != nil {
		return nil, nil, err
	}
	result, err := ingest.Run(ctx, cfg, c.Broker(), ingest.Options{Full: true})
	if err != nil {
		return nil, nil, fmt.Errorf("loading seed documents: %w", err)
	}
	for _, item := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", item)
	}
	return c, result, nil
}
