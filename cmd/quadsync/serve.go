package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quadsync/internal/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio and the periodic sync loop",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, _, err := openProject(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Start(ctx)
	})
	g.Go(func() error {
		// The sync loop stops with the MCP session.
		defer stop()
		return mcp.NewServer(c, version).Run(ctx, &sdk.StdioTransport{})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if c.HasUnsavedChanges() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := c.Sync(flushCtx); err != nil {
			return fmt.Errorf("final sync: %w", err)
		}
	}
	return nil
}
