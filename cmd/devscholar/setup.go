package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

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
)

// newCLILogger returns a console logger on stderr. Quiet unless --verbose.
func newCLILogger() zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LoggingConfig{
		Level:  level,
		Format: "console",
		Output: "stderr",
	})
}

// newEngine builds a full pipeline from configuration, applying CLI flag
// overrides. The returned cleanup closes the cache.
func newEngine(ctx context.Context, cachePath string, logger zerolog.Logger) (*engine.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cachePath != "" {
		cfg.Cache.Backend = config.CacheBackendSQLite
		cfg.Cache.Path = cachePath
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		store, err = cache.NewSQLite(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
	default:
		store, err = cache.NewMemory(cfg.Cache.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory cache: %w", err)
		}
	}

	res := resolver.New(store, newRegistry(cfg), resolver.Config{
		PositiveTTL:     cfg.Cache.PositiveTTL,
		NegativeTTL:     cfg.Cache.NegativeTTL,
		ProviderTimeout: cfg.Resolver.ProviderTimeout,
		MaxConcurrent:   cfg.Resolver.MaxConcurrent,
		Breaker: resolver.BreakerConfig{
			ConsecutiveThreshold: cfg.Resolver.BreakerThreshold,
			Cooldown:             cfg.Resolver.BreakerCooldown,
		},
	}, resolver.WithLogger(logger))

	cleanup := func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("failed to close cache")
		}
	}
	return engine.New(res, engine.WithLogger(logger)), cleanup, nil
}

// newRegistry registers one provider per enabled scheme.
func newRegistry(cfg *config.Config) *providers.Registry {
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
