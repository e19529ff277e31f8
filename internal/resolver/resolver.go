// Package resolver maps canonical paper references to bibliographic metadata
// through the provider registry, with caching, in-flight coalescing and
// per-scheme circuit breaking.
//
// Resolution is batch-oriented: an ordered slice of references fans out to
// one task per reference and fans in preserving input order. Individual
// failures become per-reference markers and never abort the batch.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/devscholar/reference-engine/internal/cache"
	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/observability"
	"github.com/devscholar/reference-engine/internal/providers"
)

// Default resolution policy.
const (
	// DefaultPositiveTTL is how long successful metadata stays cached.
	// Bibliographic metadata rarely changes.
	DefaultPositiveTTL = 7 * 24 * time.Hour

	// DefaultNegativeTTL is how long resolution failures stay cached, short
	// enough that transient provider problems clear on their own.
	DefaultNegativeTTL = 15 * time.Minute

	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 10 * time.Second

	// DefaultMaxConcurrent bounds fan-out per batch.
	DefaultMaxConcurrent = 8
)

// Config holds resolution policy.
type Config struct {
	// PositiveTTL is the cache TTL for successful resolutions.
	PositiveTTL time.Duration

	// NegativeTTL is the cache TTL for failure markers.
	NegativeTTL time.Duration

	// ProviderTimeout bounds each provider call.
	ProviderTimeout time.Duration

	// MaxConcurrent bounds concurrent provider work per batch.
	MaxConcurrent int

	// Breaker configures the per-scheme circuit breakers.
	Breaker BreakerConfig
}

func (c *Config) applyDefaults() {
	if c.PositiveTTL <= 0 {
		c.PositiveTTL = DefaultPositiveTTL
	}
	if c.NegativeTTL <= 0 {
		c.NegativeTTL = DefaultNegativeTTL
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = DefaultProviderTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
}

// Resolver resolves canonical references against the provider registry.
// Safe for concurrent use; overlapping batches coalesce provider calls per
// identity key.
type Resolver struct {
	config   Config
	cache    cache.Store
	registry *providers.Registry
	breakers *BreakerRegistry
	group    singleflight.Group
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New creates a resolver over the given cache and provider registry.
func New(store cache.Store, registry *providers.Registry, cfg Config, opts ...Option) *Resolver {
	cfg.applyDefaults()
	r := &Resolver{
		config:   cfg,
		cache:    store,
		registry: registry,
		breakers: NewBreakerRegistry(cfg.Breaker),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps an ordered batch of references to resolved references,
// preserving input order. Every input reference yields exactly one result;
// failures are carried as per-reference markers.
func (r *Resolver) Resolve(ctx context.Context, refs []domain.PaperRef) []domain.ResolvedReference {
	results := make([]domain.ResolvedReference, len(refs))

	var g errgroup.Group
	g.SetLimit(r.config.MaxConcurrent)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			results[i] = r.resolveOne(ctx, ref)
			return nil
		})
	}
	// Tasks never return errors; failures are per-reference markers.
	_ = g.Wait()

	return results
}

// Invalidate removes a cached resolution by identity key.
func (r *Resolver) Invalidate(ctx context.Context, key string) error {
	return r.cache.Invalidate(ctx, key)
}

// BreakerState returns the circuit state for a scheme, for readiness
// reporting.
func (r *Resolver) BreakerState(scheme domain.Scheme) CircuitState {
	return r.breakers.State(scheme)
}

func (r *Resolver) resolveOne(ctx context.Context, ref domain.PaperRef) domain.ResolvedReference {
	key := ref.Key()

	entry, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to always-miss.
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if ok {
		if r.metrics != nil {
			r.metrics.RecordCacheHit()
		}
		return resultFrom(ref, entry, true)
	}
	if r.metrics != nil {
		r.metrics.RecordCacheMiss()
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.fetch(ctx, ref), nil
	})

	select {
	case <-ctx.Done():
		// The in-flight call keeps running and still populates the cache;
		// its result is just not delivered to this caller.
		return domain.ResolvedReference{
			Ref:        ref,
			Failure:    domain.ClassifyFailure(ctx.Err()),
			ResolvedAt: time.Now(),
		}
	case res := <-ch:
		if res.Shared && r.metrics != nil {
			r.metrics.RecordCoalesced()
		}
		return resultFrom(ref, res.Val.(*cache.Entry), false)
	}
}

// fetch performs the provider call for one reference and writes the outcome
// to the cache. It runs inside the singleflight group, so at most one fetch
// is in flight per identity key. The call is detached from the caller's
// cancellation and bounded only by the provider timeout.
func (r *Resolver) fetch(ctx context.Context, ref domain.PaperRef) *cache.Entry {
	key := ref.Key()
	scheme := string(ref.Scheme)

	provider, ok := r.registry.Get(ref.Scheme)
	if !ok {
		// Not cached, so enabling a provider takes effect immediately.
		return &cache.Entry{Failure: &domain.ResolutionFailure{
			Kind:    domain.FailureNoProvider,
			Message: "no enabled provider for scheme " + scheme,
		}}
	}

	breaker := r.breakers.Get(ref.Scheme)
	if err := breaker.Allow(); err != nil {
		// Not cached either: the breaker already throttles calls and its
		// cooldown is shorter than the failure TTL.
		if r.metrics != nil {
			r.metrics.RecordBreakerRejection(scheme)
		}
		r.logger.Warn().Str("key", key).Str("provider", provider.Name()).Msg("circuit open, skipping provider call")
		return &cache.Entry{Failure: domain.ClassifyFailure(err)}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ProviderTimeout)
	defer cancel()

	start := time.Now()
	meta, err := provider.Resolve(callCtx, ref.ID)
	elapsed := time.Since(start).Seconds()

	putCtx := context.WithoutCancel(ctx)

	if err != nil {
		failure := domain.ClassifyFailure(err)
		// Authoritative answers (the provider looked and said no) do not
		// count against the breaker.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformed) {
			breaker.RecordSuccess()
		} else {
			breaker.RecordFailure()
		}
		if r.metrics != nil {
			r.metrics.RecordResolutionFailed(scheme, string(failure.Kind), elapsed)
		}
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Str("provider", provider.Name()).
			Str("kind", string(failure.Kind)).
			Msg("resolution failed")

		entry := &cache.Entry{Failure: failure}
		if putErr := r.cache.Put(putCtx, key, *entry, r.config.NegativeTTL); putErr != nil {
			r.logger.Warn().Err(putErr).Str("key", key).Msg("cache write failed")
		}
		return entry
	}

	breaker.RecordSuccess()
	if r.metrics != nil {
		r.metrics.RecordResolution(scheme, elapsed)
	}
	r.logger.Debug().
		Str("key", key).
		Str("provider", provider.Name()).
		Str("title", meta.Title).
		Msg("reference resolved")

	entry := &cache.Entry{Metadata: meta}
	if putErr := r.cache.Put(putCtx, key, *entry, r.config.PositiveTTL); putErr != nil {
		r.logger.Warn().Err(putErr).Str("key", key).Msg("cache write failed")
	}
	return entry
}

func resultFrom(ref domain.PaperRef, entry *cache.Entry, fromCache bool) domain.ResolvedReference {
	return domain.ResolvedReference{
		Ref:        ref,
		Metadata:   entry.Metadata,
		Failure:    entry.Failure,
		ResolvedAt: time.Now(),
		FromCache:  fromCache,
	}
}
