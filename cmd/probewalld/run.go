package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/config"
	"github.com/dmagro/probewall/internal/cssgen"
	"github.com/dmagro/probewall/internal/httpapi"
	"github.com/dmagro/probewall/internal/logging"
	"github.com/dmagro/probewall/internal/supervisor"
)

// defaultLogCap bounds how many lines of a probe's output each monitor
// keeps around for /log/{monitorID}; it is not yet exposed as config.
const defaultLogCap = 200

// version is overwritten at build time via -ldflags.
var version = "dev"

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a config directory and serve the dashboard until stopped",
		Long: `Load the config directory's config.yaml and monitor.d, start one
worker per monitor, and serve /status.json, /style.css, /log/{id}, and
/healthz until interrupted.

Example:
  probewalld run --config /etc/probewall`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(configDir(cmd), debugFlag(cmd))
		},
	}
	return cmd
}

func runDaemon(dir string, debug bool) error {
	logging.Setup(debug)

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	palette := cssgen.BuildPalette(cfg.CSS.Metadata)
	sup, err := supervisor.Load(cfg, palette, defaultLogCap)
	if err != nil {
		return fmt.Errorf("loading monitors: %w", err)
	}
	sup.Start()

	addr := net.JoinHostPort(cfg.Server.ListenAddr, fmt.Sprint(cfg.Server.Port))
	srv := &http.Server{
		Addr:    addr,
		Handler: httpapi.NewRouter(cfg, sup, version),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving dashboard")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown did not complete cleanly")
	}
	if err := sup.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("monitor workers did not all stop before the shutdown deadline")
	}
	return nil
}
