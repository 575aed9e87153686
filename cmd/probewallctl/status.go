package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var logID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print every monitor's current status as a table",
		Long: `Fetch /status.json from a running probewalld and print a colourised
table, one row per monitor.

Example:
  probewallctl status --url http://localhost:8080
  probewallctl status --log db-primary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(baseURL(cmd), logID)
		},
	}
	cmd.Flags().StringVar(&logID, "log", "", "print this monitor's log tail instead of the table")
	return cmd
}

func runStatus(url, logID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if logID != "" {
		tail, err := fetchLog(ctx, url, logID)
		if err != nil {
			return err
		}
		fmt.Print(tail)
		return nil
	}

	rows, err := fetchStatus(ctx, url)
	if err != nil {
		return err
	}
	renderTable(rows)
	return nil
}
