package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscholar/reference-engine/internal/cache"
	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/providers"
	"github.com/devscholar/reference-engine/internal/providers/scholar"
	"github.com/devscholar/reference-engine/internal/resolver"
)

type stubProvider struct {
	scheme domain.Scheme
	calls  atomic.Int64
	titles map[string]string
}

func (p *stubProvider) Resolve(_ context.Context, id string) (*domain.Metadata, error) {
	p.calls.Add(1)
	if title, ok := p.titles[id]; ok {
		return &domain.Metadata{Title: title}, nil
	}
	return nil, domain.NewNotFoundError(p.scheme, id)
}

func (p *stubProvider) Scheme() domain.Scheme { return p.scheme }
func (p *stubProvider) Name() string          { return "stub " + string(p.scheme) }
func (p *stubProvider) IsEnabled() bool       { return true }

func newTestEngine(t *testing.T, stubs ...*stubProvider) *Engine {
	t.Helper()
	store, err := cache.NewMemory(64)
	require.NoError(t, err)
	registry := providers.NewRegistry()
	for _, p := range stubs {
		registry.Register(p)
	}
	registry.Register(scholar.NewQuery(true))
	registry.Register(scholar.NewCluster(true))
	return New(resolver.New(store, registry, resolver.Config{}))
}

func TestScanOnly(t *testing.T) {
	e := newTestEngine(t)

	refs := e.Scan([]domain.TextBlock{
		{Text: "// see arxiv:1706.03762 and https://arxiv.org/abs/1706.03762v5", Offset: 0},
	})

	require.Len(t, refs, 1)
	assert.Equal(t, "arxiv:1706.03762", refs[0].Key())
	assert.Len(t, refs[0].Matches, 2)
}

func TestScanAndResolve(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv, titles: map[string]string{
		"1706.03762": "Attention Is All You Need",
	}}
	doi := &stubProvider{scheme: domain.SchemeDOI, titles: map[string]string{
		"10.1038/nature14539": "Deep learning",
	}}
	e := newTestEngine(t, arxiv, doi)

	blocks := []domain.TextBlock{
		{Text: "# Implements the transformer from arxiv:1706.03762.", Offset: 0},
		{Text: "# Background survey: doi:10.1038/nature14539", Offset: 120},
	}
	results, err := e.ScanAndResolve(context.Background(), blocks)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "arxiv:1706.03762", results[0].Ref.Key())
	require.True(t, results[0].Resolved())
	assert.Equal(t, "Attention Is All You Need", results[0].Metadata.Title)

	assert.Equal(t, "doi:10.1038/nature14539", results[1].Ref.Key())
	require.True(t, results[1].Resolved())
	assert.Equal(t, "Deep learning", results[1].Metadata.Title)
}

func TestRepeatScanHitsCache(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv, titles: map[string]string{
		"1706.03762": "Attention Is All You Need",
	}}
	e := newTestEngine(t, arxiv)

	blocks := []domain.TextBlock{{Text: "// arxiv:1706.03762", Offset: 0}}

	first, err := e.ScanAndResolve(context.Background(), blocks)
	require.NoError(t, err)
	assert.False(t, first[0].FromCache)

	second, err := e.ScanAndResolve(context.Background(), blocks)
	require.NoError(t, err)
	assert.True(t, second[0].FromCache)
	assert.Equal(t, int64(1), arxiv.calls.Load())
}

func TestUnresolvableReferenceKeptInResults(t *testing.T) {
	doi := &stubProvider{scheme: domain.SchemeDOI}
	e := newTestEngine(t, doi)

	results, err := e.ScanAndResolve(context.Background(), []domain.TextBlock{
		{Text: "// doi:10.0000/fake", Offset: 0},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Failure)
	assert.Equal(t, domain.FailureNotFound, results[0].Failure.Kind)
}

func TestScholarReferencesResolveLocally(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.ScanAndResolve(context.Background(), []domain.TextBlock{
		{Text: "// https://scholar.google.com/scholar?q=attention+is+all+you+need", Offset: 0},
		{Text: "// https://scholar.google.com/scholar?cluster=5140482931759541375", Offset: 80},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].Resolved())
	assert.Equal(t, domain.SchemeScholarQuery, results[0].Ref.Scheme)
	assert.Contains(t, results[0].Metadata.Landing, "scholar.google.com")

	require.True(t, results[1].Resolved())
	assert.Equal(t, domain.SchemeScholarCluster, results[1].Ref.Scheme)
}

func TestInvalidateCache(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv, titles: map[string]string{
		"1706.03762": "Attention Is All You Need",
	}}
	e := newTestEngine(t, arxiv)
	blocks := []domain.TextBlock{{Text: "// arxiv:1706.03762", Offset: 0}}

	_, err := e.ScanAndResolve(context.Background(), blocks)
	require.NoError(t, err)
	require.NoError(t, e.InvalidateCache(context.Background(), "arxiv:1706.03762"))

	_, err = e.ScanAndResolve(context.Background(), blocks)
	require.NoError(t, err)
	assert.Equal(t, int64(2), arxiv.calls.Load())
}

func TestNoReferences(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.ScanAndResolve(context.Background(), []domain.TextBlock{
		{Text: "// plain comment, numbers like 2017 or 1234.5 are not references", Offset: 0},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ScanAndResolve(ctx, []domain.TextBlock{{Text: "// arxiv:1706.03762"}})
	assert.ErrorIs(t, err, context.Canceled)
}
