package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/observability"
)

// Request validation constants.
const (
	maxRequestBodySize = 4 << 20 // 4 MB limit for request bodies
	maxBlocks          = 4096
)

// scanBlockRequest is one text block with its document offset.
type scanBlockRequest struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// scanRequest is the JSON request body for scanning a document.
type scanRequest struct {
	DocumentURI string             `json:"document_uri,omitempty"`
	Blocks      []scanBlockRequest `json:"blocks"`
}

// scanDocument handles POST /v1/scan. It scans the submitted text blocks and
// resolves every detected reference.
func (s *Server) scanDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req scanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if len(req.Blocks) == 0 {
		writeError(w, http.StatusBadRequest, "blocks is required")
		return
	}
	if len(req.Blocks) > maxBlocks {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("blocks must have at most %d entries", maxBlocks))
		return
	}

	blocks := make([]domain.TextBlock, len(req.Blocks))
	for i, b := range req.Blocks {
		if b.Offset < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("blocks[%d].offset must not be negative", i))
			return
		}
		blocks[i] = domain.TextBlock{Text: b.Text, Offset: b.Offset}
	}

	scanID := uuid.NewString()
	ctx = observability.WithScan(ctx, scanID, req.DocumentURI)

	results, err := s.engine.ScanAndResolve(ctx, blocks)
	if err != nil {
		// Only cancellation reaches here; the client is gone.
		s.logger.Debug().Err(err).Str("scan_id", scanID).Msg("scan aborted")
		writeError(w, http.StatusServiceUnavailable, "scan cancelled")
		return
	}

	writeJSON(w, http.StatusOK, toScanResponse(scanID, req.DocumentURI, results))
}

// invalidateCacheEntry handles DELETE /v1/cache/{key}. The key is the full
// trailing path since DOI identifiers contain slashes.
func (s *Server) invalidateCacheEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		writeError(w, http.StatusBadRequest, "cache key is required")
		return
	}

	if err := s.engine.InvalidateCache(r.Context(), key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("cache invalidation failed")
		writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"invalidated": key})
}
