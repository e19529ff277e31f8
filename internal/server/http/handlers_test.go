package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscholar/reference-engine/internal/cache"
	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/engine"
	"github.com/devscholar/reference-engine/internal/providers"
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

func newTestServer(t *testing.T, stubs ...*stubProvider) *Server {
	t.Helper()
	store, err := cache.NewMemory(64)
	require.NoError(t, err)
	registry := providers.NewRegistry()
	for _, p := range stubs {
		registry.Register(p)
	}
	eng := engine.New(resolver.New(store, registry, resolver.Config{}))
	return NewServer(Config{
		Address:      "127.0.0.1:0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, eng, registry, zerolog.Nop())
}

func doScan(t *testing.T, s *Server, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestScanDocument(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv, titles: map[string]string{
		"1706.03762": "Attention Is All You Need",
	}}
	s := newTestServer(t, arxiv)

	rec := doScan(t, s, scanRequest{
		DocumentURI: "file:///src/model.py",
		Blocks: []scanBlockRequest{
			{Text: "# Implements the transformer from arxiv:1706.03762.", Offset: 0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ScanID)
	assert.Equal(t, "file:///src/model.py", resp.DocumentURI)
	require.Len(t, resp.References, 1)

	ref := resp.References[0]
	assert.Equal(t, "arxiv:1706.03762", ref.Key)
	assert.Equal(t, "arxiv", ref.Scheme)
	require.Len(t, ref.Spans, 1)
	assert.Equal(t, 34, ref.Spans[0].Offset)
	require.NotNil(t, ref.Metadata)
	assert.Equal(t, "Attention Is All You Need", ref.Metadata.Title)
	assert.Nil(t, ref.Failure)
}

func TestScanDocument_FailureCarriedInResponse(t *testing.T) {
	doi := &stubProvider{scheme: domain.SchemeDOI}
	s := newTestServer(t, doi)

	rec := doScan(t, s, scanRequest{
		Blocks: []scanBlockRequest{{Text: "// doi:10.0000/fake", Offset: 0}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.References, 1)
	require.NotNil(t, resp.References[0].Failure)
	assert.Equal(t, "not_found", resp.References[0].Failure.Kind)
	assert.False(t, resp.References[0].Failure.Transient)
	assert.Nil(t, resp.References[0].Metadata)
}

func TestScanDocument_NoReferences(t *testing.T) {
	s := newTestServer(t)

	rec := doScan(t, s, scanRequest{
		Blocks: []scanBlockRequest{{Text: "// nothing citable here", Offset: 0}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.References)
}

func TestScanDocument_Validation(t *testing.T) {
	s := newTestServer(t)

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing blocks", func(t *testing.T) {
		rec := doScan(t, s, scanRequest{DocumentURI: "file:///x.go"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "blocks is required")
	})

	t.Run("negative offset", func(t *testing.T) {
		rec := doScan(t, s, scanRequest{
			Blocks: []scanBlockRequest{{Text: "// arxiv:1706.03762", Offset: -3}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "offset")
	})
}

func TestInvalidateCacheEntry(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv, titles: map[string]string{
		"1706.03762": "Attention Is All You Need",
	}}
	s := newTestServer(t, arxiv)

	body := scanRequest{Blocks: []scanBlockRequest{{Text: "// arxiv:1706.03762", Offset: 0}}}
	require.Equal(t, http.StatusOK, doScan(t, s, body).Code)

	req := httptest.NewRequest(http.MethodDelete, "/v1/cache/arxiv:1706.03762", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arxiv:1706.03762")

	require.Equal(t, http.StatusOK, doScan(t, s, body).Code)
	assert.Equal(t, int64(2), arxiv.calls.Load())
}

func TestInvalidateCacheEntry_SlashKey(t *testing.T) {
	doi := &stubProvider{scheme: domain.SchemeDOI, titles: map[string]string{
		"10.1038/nature14539": "Deep learning",
	}}
	s := newTestServer(t, doi)

	body := scanRequest{Blocks: []scanBlockRequest{{Text: "// doi:10.1038/nature14539", Offset: 0}}}
	require.Equal(t, http.StatusOK, doScan(t, s, body).Code)

	// DOI keys embed slashes; the whole trailing path is the key.
	req := httptest.NewRequest(http.MethodDelete, "/v1/cache/doi:10.1038/nature14539", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, doScan(t, s, body).Code)
	assert.Equal(t, int64(2), doi.calls.Load())
}

func TestHealthEndpoints(t *testing.T) {
	arxiv := &stubProvider{scheme: domain.SchemeArXiv}
	s := newTestServer(t, arxiv)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arxiv")
}
