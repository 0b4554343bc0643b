package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quadsync/internal/databroker"
	"quadsync/internal/rdf"
	"quadsync/internal/resource"
)

func resolveCmd() *cobra.Command {
	var force bool
	var urls []string
	cmd := &cobra.Command{
		Use:   "resolve <uri>",
		Short: "Fetch a resource from its describers and print its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], force, urls)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refetch URLs that were already requested")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "Extra URL to fetch (repeatable)")
	return cmd
}

func runResolve(cmd *cobra.Command, uri string, force bool, urls []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, _, err := openProject(ctx)
	if err != nil {
		return err
	}

	opts := []databroker.DeferredOption{
		databroker.WithProgress(func(res *resource.Resource) {
			fmt.Fprintf(os.Stderr, "progress: %d statements about %s\n", len(res.Quads()), res.URI())
		}),
	}
	if force {
		opts = append(opts, databroker.WithForce())
	}
	if len(urls) > 0 {
		opts = append(opts, databroker.WithURLs(urls...))
	}

	d := c.GetDeferredResource(ctx, uri, opts...)
	res, err := d.Wait(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s)\n", res.URI(), d.State())
	if title := res.Title(); title != "" {
		fmt.Fprintf(os.Stdout, "Title: %s\n", title)
	}
	printQuadTable(res.Quads())
	return nil
}

func printQuadTable(quads []rdf.Quad) {
	sort.Slice(quads, func(i, j int) bool {
		if quads[i].Predicate != quads[j].Predicate {
			return quads[i].Predicate.String() < quads[j].Predicate.String()
		}
		return quads[i].Object.String() < quads[j].Object.String()
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, q := range quads {
		fmt.Fprintf(w, "  %s\t%s\n", q.Predicate, q.Object)
	}
	w.Flush()
}
