package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quadsync/internal/client"
	"quadsync/internal/rdf"
)

func queryCmd() *cobra.Command {
	var subject, predicate, object, graph string
	var count bool
	var resolve []string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Match a quad pattern against seeded and resolved data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, [4]string{subject, predicate, object, graph}, count, resolve)
		},
	}
	cmd.Flags().StringVar(&subject, "s", "", "Subject IRI or prefixed name")
	cmd.Flags().StringVar(&predicate, "p", "", "Predicate IRI or prefixed name")
	cmd.Flags().StringVar(&object, "o", "", `Object: IRI, prefixed name or N-Triples literal ("text"@en)`)
	cmd.Flags().StringVar(&graph, "g", "", "Graph IRI")
	cmd.Flags().BoolVar(&count, "count", false, "Print only the number of matches")
	cmd.Flags().StringArrayVar(&resolve, "resolve", nil, "Resolve this URI before querying (repeatable)")
	return cmd
}

func runQuery(cmd *cobra.Command, pattern [4]string, count bool, resolve []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, _, err := openProject(ctx)
	if err != nil {
		return err
	}
	for _, uri := range resolve {
		if _, err := c.GetDeferredResource(ctx, uri).Wait(ctx); err != nil {
			return err
		}
	}

	var terms [4]rdf.Term
	for i, value := range pattern {
		terms[i], err = patternTerm(c, value)
		if err != nil {
			return err
		}
	}

	store := c.Broker().Store()
	if count {
		fmt.Fprintln(os.Stdout, store.Count(terms[0], terms[1], terms[2], terms[3]))
		return nil
	}

	matches := 0
	for q := range store.Query(terms[0], terms[1], terms[2], terms[3]) {
		fmt.Fprintln(os.Stdout, q.String())
		matches++
	}
	if matches == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
	}
	return nil
}

// patternTerm reads an empty value as a wildcard and a quoted value as a literal.
func patternTerm(c *client.Client, value string) (rdf.Term, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return rdf.Term{}, nil
	case strings.HasPrefix(value, `"`), strings.HasPrefix(value, "_:"):
		t, err := rdf.ParseTerm(value)
		if err != nil {
			return rdf.Term{}, fmt.Errorf("invalid pattern term: %w", err)
		}
		return t, nil
	default:
		return c.Term(value), nil
	}
}
