package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Tyrowin/gorelay/internal/config"
	"github.com/Tyrowin/gorelay/internal/logging"
	"github.com/Tyrowin/gorelay/internal/metrics"
	"github.com/Tyrowin/gorelay/internal/registry"
	"github.com/Tyrowin/gorelay/internal/relay"
	"github.com/Tyrowin/gorelay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gorelay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.FileFromEnv())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	promRegistry := metrics.NewRegistry()

	hub := server.NewHub(cfg,
		server.WithHubLogger(logger.Named("hub")),
		server.WithHubMetrics(metrics.NewTransportMetrics(promRegistry)),
	)
	broadcastRelay := relay.New(registry.New(nil), hub,
		relay.WithLogger(logger.Named("relay")),
		relay.WithMetrics(metrics.NewRelayMetrics(promRegistry)),
	)

	httpLogger := logger.Named("http")
	origins := server.NewOriginPolicy(cfg.AllowedOrigins, httpLogger)
	handlers := server.NewHandlers(hub, broadcastRelay, origins, httpLogger)
	router := server.SetupRoutes(handlers, metrics.Handler(promRegistry), cfg.AllowedOrigins)
	httpServer := server.CreateServer(cfg.Addr(), router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer, logger)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger); err != nil {
		logger.Warn("HTTP server did not shut down cleanly", zap.Error(err))
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Warn("Hub did not shut down cleanly", zap.Error(err))
	}
	return nil
}
