// Package engine is the facade host integrations call: one entry point that
// wires scanning, normalization and resolution together and reports what
// happened through structured logs and metrics.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/normalizer"
	"github.com/devscholar/reference-engine/internal/observability"
	"github.com/devscholar/reference-engine/internal/resolver"
	"github.com/devscholar/reference-engine/internal/scanner"
)

// Engine runs the full detection and resolution pipeline over host-supplied
// text blocks. Safe for concurrent use.
type Engine struct {
	scanner  *scanner.Scanner
	resolver *resolver.Resolver
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine over the given resolver.
func New(res *resolver.Resolver, opts ...Option) *Engine {
	e := &Engine{
		scanner:  scanner.New(),
		resolver: res,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan detects and canonicalizes references without resolving them. The
// returned references preserve first-seen document order.
func (e *Engine) Scan(blocks []domain.TextBlock) []domain.PaperRef {
	matches := e.scanner.Scan(blocks)
	return normalizer.Normalize(matches)
}

// ScanAndResolve runs the full pipeline: scan the blocks, collapse matches
// into canonical references and resolve each to metadata. One result per
// canonical reference, in first-seen order. Per-reference failures are
// carried in the results, never returned as an error.
func (e *Engine) ScanAndResolve(ctx context.Context, blocks []domain.TextBlock) ([]domain.ResolvedReference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanID, documentURI := observability.ScanFromContext(ctx)
	if scanID == "" {
		scanID = uuid.NewString()
		ctx = observability.WithScan(ctx, scanID, documentURI)
	}
	logger := observability.WithScanContext(e.logger, scanID, documentURI)

	start := time.Now()
	matches := e.scanner.Scan(blocks)
	refs := normalizer.Normalize(matches)

	if e.metrics != nil {
		perScheme := make(map[domain.Scheme]int)
		for _, m := range matches {
			perScheme[m.Scheme]++
		}
		for scheme, count := range perScheme {
			e.metrics.RecordMatches(string(scheme), count)
		}
		for _, ref := range refs {
			e.metrics.RecordReference(string(ref.Scheme))
		}
	}

	results := e.resolver.Resolve(ctx, refs)

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordScan(elapsed.Seconds())
	}

	resolved := 0
	for _, res := range results {
		if res.Resolved() {
			resolved++
		}
	}
	logger.Info().
		Int("blocks", len(blocks)).
		Int("matches", len(matches)).
		Int("references", len(refs)).
		Int("resolved", resolved).
		Dur("duration", elapsed).
		Msg("scan completed")

	return results, nil
}

// Resolve resolves already-canonicalized references without scanning.
func (e *Engine) Resolve(ctx context.Context, refs []domain.PaperRef) []domain.ResolvedReference {
	return e.resolver.Resolve(ctx, refs)
}

// InvalidateCache removes one cached resolution by identity key.
func (e *Engine) InvalidateCache(ctx context.Context, key string) error {
	return e.resolver.Invalidate(ctx, key)
}
