// =============================================================================
// FILE: cmd/probewalld/main.go
// ROLE: Dashboard daemon entry point
// =============================================================================
//
// probewalld owns the monitor fleet: it loads a config directory, starts one
// worker goroutine per configured monitor, and serves the resulting status as
// JSON and CSS over HTTP until told to stop.
//
//	probewalld run --config ./testdata/site       start the daemon
//	probewalld validate --config ./testdata/site  parse and print, don't serve
//	probewalld test --config ./testdata/site --monitor db-primary
//	                                               run one probe once, to stdout
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "probewalld",
		Short: "Run and inspect the probewall monitor daemon",
	}
	root.PersistentFlags().String("config", ".", "path to the config directory")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	root.AddCommand(runCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(testCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		dir, _ = cmd.Root().PersistentFlags().GetString("config")
	}
	return dir
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	if !debug {
		debug, _ = cmd.Root().PersistentFlags().GetBool("debug")
	}
	return debug
}
