package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/probewall/internal/config"
)

func testCmd() *cobra.Command {
	var monitorID string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run one monitor's probe once and print its raw output",
		Long: `Resolve one monitor's configured command the same way the daemon
would and run it exactly once, printing stdout/stderr and the exit status.
It does not touch status state or talk to a running daemon.

Example:
  probewalld test --config /etc/probewall --monitor db-primary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if monitorID == "" {
				return fmt.Errorf("--monitor is required")
			}
			return runTest(configDir(cmd), monitorID)
		},
	}
	cmd.Flags().StringVar(&monitorID, "monitor", "", "monitor directory name under monitor.d to run")
	return cmd
}

func runTest(dir, monitorID string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dirs, err := config.ListMonitorDirs(cfg.Monitor.Dir)
	if err != nil {
		return fmt.Errorf("listing monitor directory: %w", err)
	}

	var target string
	for _, d := range dirs {
		if filepath.Base(d) == monitorID {
			target = d
			break
		}
	}
	if target == "" {
		return fmt.Errorf("no monitor named %q under %s", monitorID, cfg.Monitor.Dir)
	}

	m, err := config.LoadMonitorDir(target)
	if err != nil {
		return fmt.Errorf("loading %s: %w", target, err)
	}

	argv, timeout, err := argvAndTimeout(m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	fmt.Printf("argv: %v\n", argv)
	if stdout.Len() > 0 {
		fmt.Printf("--- stdout ---\n%s\n", stdout.String())
	}
	if stderr.Len() > 0 {
		fmt.Printf("--- stderr ---\n%s\n", stderr.String())
	}
	if runErr != nil {
		return fmt.Errorf("probe exited with error: %w", runErr)
	}
	fmt.Printf("exit code: %d\n", cmd.ProcessState.ExitCode())
	return nil
}

func argvAndTimeout(m *config.MonitorDirConfig) ([]string, time.Duration, error) {
	switch m.Kind {
	case "test":
		return m.Test.Argv, m.Test.Timeout, nil
	case "group":
		return m.Group.Test.Argv, m.Group.Test.Timeout, nil
	case "snmp":
		test := m.SNMP.Test()
		argv, err := config.ResolveCommand(m.BasePath, test.Command, test.Args)
		if err != nil {
			return nil, 0, fmt.Errorf("resolving snmp command: %w", err)
		}
		return argv, test.Timeout, nil
	default:
		return nil, 0, fmt.Errorf("unknown monitor kind %q", m.Kind)
	}
}
