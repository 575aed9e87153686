// =============================================================================
// FILE: cmd/probewallctl/main.go
// ROLE: Operator-facing client for a running probewalld
// =============================================================================
//
// probewallctl talks to a probewalld over HTTP and renders its /status.json
// as a colourised terminal table, the same way the original Rust UI used
// the in-browser dashboard but for a terminal session.
//
//	probewallctl status --url http://localhost:8080
//	probewallctl watch --url http://localhost:8080 --interval 5s
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "probewallctl",
		Short: "Inspect a running probewalld from the terminal",
	}
	root.PersistentFlags().String("url", "http://localhost:8080", "base URL of a running probewalld")

	root.AddCommand(statusCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func baseURL(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url, _ = cmd.Root().PersistentFlags().GetString("url")
	}
	return url
}
