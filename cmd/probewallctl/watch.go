package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously poll and redraw the status table",
		Long: `Poll /status.json on an interval and redraw the table, clearing the
screen between refreshes, until interrupted.

Example:
  probewallctl watch --interval 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(baseURL(cmd), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "refresh interval")
	return cmd
}

func runWatch(url string, interval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	firstDisplay := true
	refresh := func() {
		reqCtx, reqCancel := context.WithTimeout(ctx, requestTimeout)
		rows, err := fetchStatus(reqCtx, url)
		reqCancel()
		if !firstDisplay {
			fmt.Print("\x1b[2J\x1b[H")
		}
		firstDisplay = false
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		renderTable(rows)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			refresh()
		}
	}
}
