// Package main provides the entry point for the reference engine HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devscholar/reference-engine/internal/cache"
	"github.com/devscholar/reference-engine/internal/config"
	"github.com/devscholar/reference-engine/internal/engine"
	"github.com/devscholar/reference-engine/internal/observability"
	"github.com/devscholar/reference-engine/internal/providers"
	"github.com/devscholar/reference-engine/internal/providers/arxiv"
	"github.com/devscholar/reference-engine/internal/providers/crossref"
	"github.com/devscholar/reference-engine/internal/providers/ieee"
	"github.com/devscholar/reference-engine/internal/providers/scholar"
	"github.com/devscholar/reference-engine/internal/providers/semanticscholar"
	"github.com/devscholar/reference-engine/internal/resolver"
	httpserver "github.com/devscholar/reference-engine/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("reference-engine server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the resolution cache.
	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		store, err = cache.NewSQLite(ctx, cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open sqlite cache: %w", err)
		}
		logger.Info().Str("path", cfg.Cache.Path).Msg("sqlite cache opened")
	default:
		store, err = cache.NewMemory(cfg.Cache.Size)
		if err != nil {
			return fmt.Errorf("create memory cache: %w", err)
		}
		logger.Info().Int("size", cfg.Cache.Size).Msg("memory cache created")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close cache")
		}
	}()

	// Register metadata providers.
	registry := buildRegistry(cfg)
	for _, scheme := range registry.Schemes() {
		logger.Info().Str("scheme", string(scheme)).Msg("provider registered")
	}

	// Set up metrics.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Create the resolver and engine.
	res := resolver.New(store, registry, resolver.Config{
		PositiveTTL:     cfg.Cache.PositiveTTL,
		NegativeTTL:     cfg.Cache.NegativeTTL,
		ProviderTimeout: cfg.Resolver.ProviderTimeout,
		MaxConcurrent:   cfg.Resolver.MaxConcurrent,
		Breaker: resolver.BreakerConfig{
			ConsecutiveThreshold: cfg.Resolver.BreakerThreshold,
			Cooldown:             cfg.Resolver.BreakerCooldown,
		},
	}, resolver.WithLogger(logger), resolver.WithMetrics(metrics))

	eng := engine.New(res, engine.WithLogger(logger), engine.WithMetrics(metrics))

	// Create the HTTP API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, eng, registry, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("reference-engine is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down reference-engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("reference-engine shutdown complete")
	return nil
}

// buildRegistry registers one provider per enabled scheme from configuration.
func buildRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewRegistry()

	if cfg.Providers.ArXiv.Enabled {
		registry.Register(arxiv.New(arxiv.Config{
			BaseURL:   cfg.Providers.ArXiv.BaseURL,
			Timeout:   cfg.Providers.ArXiv.Timeout,
			RateLimit: cfg.Providers.ArXiv.RateLimit,
			BurstSize: cfg.Providers.ArXiv.BurstSize,
			Enabled:   true,
		}))
	}
	if cfg.Providers.Crossref.Enabled {
		registry.Register(crossref.New(crossref.Config{
			BaseURL:   cfg.Providers.Crossref.BaseURL,
			MailTo:    cfg.Providers.MailTo,
			Timeout:   cfg.Providers.Crossref.Timeout,
			RateLimit: cfg.Providers.Crossref.RateLimit,
			BurstSize: cfg.Providers.Crossref.BurstSize,
			Enabled:   true,
		}))
	}
	// IEEE needs an API key regardless of the enabled flag.
	if cfg.Providers.IEEE.Enabled && cfg.Providers.IEEE.APIKey != "" {
		registry.Register(ieee.New(ieee.Config{
			BaseURL:   cfg.Providers.IEEE.BaseURL,
			APIKey:    cfg.Providers.IEEE.APIKey,
			Timeout:   cfg.Providers.IEEE.Timeout,
			RateLimit: cfg.Providers.IEEE.RateLimit,
			BurstSize: cfg.Providers.IEEE.BurstSize,
			Enabled:   true,
		}))
	}
	if cfg.Providers.SemanticScholar.Enabled {
		registry.Register(semanticscholar.New(semanticscholar.Config{
			BaseURL:   cfg.Providers.SemanticScholar.BaseURL,
			APIKey:    cfg.Providers.SemanticScholar.APIKey,
			Timeout:   cfg.Providers.SemanticScholar.Timeout,
			RateLimit: cfg.Providers.SemanticScholar.RateLimit,
			BurstSize: cfg.Providers.SemanticScholar.BurstSize,
			Enabled:   true,
		}))
	}
	registry.Register(scholar.NewQuery(cfg.Providers.Scholar.Enabled))
	registry.Register(scholar.NewCluster(cfg.Providers.Scholar.Enabled))

	return registry
}
