// Command storepilot serves the storefront-to-agent catalog sync API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
	"storepilot/internal/config"
	"storepilot/internal/gateway"
	"storepilot/internal/logging"
	"storepilot/internal/server"
)

func main() {
	var (
		httpPort = flag.Int("port", 0, "HTTP port (overrides configuration)")
		logLevel = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides configuration)")
	)
	flag.Parse()

	cfg := config.LoadConfig()
	if *httpPort != 0 {
		cfg.Server.HTTPPort = *httpPort
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
		cfg.Logging.Console.Level = *logLevel
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Shutdown()

	logger := slog.Default()

	catalogClient := catalog.NewClient(cfg.Catalog, logger)

	// A missing platform key is not fatal: the service still serves the
	// catalog debug endpoints, and sync requests fail at request time.
	var agentSvc agent.Service
	agentClient, err := agent.NewClient(cfg.Agent, logger)
	switch {
	case err == nil:
		agentSvc = agentClient
	case errors.Is(err, agent.ErrMissingAPIKey):
		logger.Warn("Agent platform API key is not configured; sync endpoints will return errors")
	default:
		logger.Error("Failed to create agent client", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg.Server, logger)
	gateway.New(catalogClient, agentSvc, logger).RegisterRoutes(srv.HTTPMux())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
