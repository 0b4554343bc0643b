package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quadsync/internal/format"
	"quadsync/internal/ingest"
	"quadsync/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Parse documents and run consistency checks against the loaded data",
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, _, err := openProject(ctx)
	if err != nil {
		return err
	}

	var parseErrors int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		contentType := ingest.ContentTypeFor(path)
		if contentType == "" {
			return fmt.Errorf("%s: unknown RDF file extension", path)
		}
		if _, err := c.Broker().Ingest(ctx, format.Document{Data: data, ContentType: contentType, Base: "file://" + path}); err != nil {
			fmt.Fprintf(os.Stdout, "Parse error: %s: %v\n", path, err)
			parseErrors++
		}
	}

	report, err := validate.Run(ctx, c.Broker())
	if err != nil {
		return err
	}

	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 && parseErrors == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 || parseErrors > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Subject
		if location == "" {
			location = "(store)"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
