package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var host string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new quadsync project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, host)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project id used in REST paths")
	cmd.Flags().StringVar(&host, "host", "localhost:8080", "Semantic store host[:port]")
	return cmd
}

func runInit(projectName, host string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	contents := fmt.Sprintf(`project: %s
version: 1

rest:
  protocol: http
  host: %s
  base_path: store

sync:
  interval: 15s
  concurrency: 4

fetch:
  timeout: 30s

seed:
  paths:
    - ./data/

store:
  dsn: sqlite://quadsync.db
  listen: %s
`, projectName, host, host)
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.MkdirAll("data", 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created %s for project %q.\n", configPath, projectName)
	return nil
}
