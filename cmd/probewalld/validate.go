package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dmagro/probewall/internal/config"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a config directory and every monitor in it, without serving",
		Long: `Load config.yaml and every monitor.d/*/config.yaml the same way run
does, print the resolved configuration, and exit. Useful in CI to catch a
bad monitor before it reaches production.

Example:
  probewalld validate --config /etc/probewall`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(configDir(cmd))
		},
	}
	return cmd
}

func runValidate(dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dirs, err := config.ListMonitorDirs(cfg.Monitor.Dir)
	if err != nil {
		return fmt.Errorf("listing monitor directory: %w", err)
	}

	failures := 0
	for _, d := range dirs {
		if _, err := config.LoadMonitorDir(d); err != nil {
			fmt.Printf("FAIL %s: %v\n", d, err)
			failures++
			continue
		}
		fmt.Printf("OK   %s\n", d)
	}

	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Println(string(encoded))

	if failures > 0 {
		return fmt.Errorf("%d of %d monitors failed to load", failures, len(dirs))
	}
	return nil
}
