package httpserver

import (
	"time"

	"github.com/devscholar/reference-engine/internal/domain"
)

// scanResponse is the JSON response body for a completed scan.
type scanResponse struct {
	ScanID      string              `json:"scan_id"`
	DocumentURI string              `json:"document_uri,omitempty"`
	References  []referenceResponse `json:"references"`
}

// referenceResponse is one canonical reference with its resolution outcome.
type referenceResponse struct {
	Key        string            `json:"key"`
	Scheme     string            `json:"scheme"`
	ID         string            `json:"id"`
	Spans      []spanResponse    `json:"spans"`
	Metadata   *metadataResponse `json:"metadata,omitempty"`
	Failure    *failureResponse  `json:"failure,omitempty"`
	FromCache  bool              `json:"from_cache,omitempty"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// spanResponse locates one raw occurrence in the original document.
type spanResponse struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// metadataResponse carries the bibliographic metadata of a resolved paper.
type metadataResponse struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	PDFURL   string   `json:"pdf_url,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Year     int      `json:"year,omitempty"`
	Landing  string   `json:"landing,omitempty"`
}

// failureResponse describes why a reference could not be resolved.
type failureResponse struct {
	Kind      string `json:"kind"`
	Message   string `json:"message,omitempty"`
	Transient bool   `json:"transient"`
}

// toScanResponse converts resolver output to the API response shape.
func toScanResponse(scanID, documentURI string, results []domain.ResolvedReference) scanResponse {
	refs := make([]referenceResponse, len(results))
	for i, res := range results {
		refs[i] = toReferenceResponse(res)
	}
	return scanResponse{
		ScanID:      scanID,
		DocumentURI: documentURI,
		References:  refs,
	}
}

func toReferenceResponse(res domain.ResolvedReference) referenceResponse {
	spans := make([]spanResponse, len(res.Ref.Matches))
	for i, m := range res.Ref.Matches {
		spans[i] = spanResponse{Offset: m.Offset, Length: m.Length}
	}

	out := referenceResponse{
		Key:        res.Ref.Key(),
		Scheme:     string(res.Ref.Scheme),
		ID:         res.Ref.ID,
		Spans:      spans,
		FromCache:  res.FromCache,
		ResolvedAt: res.ResolvedAt,
	}

	if res.Metadata != nil {
		out.Metadata = &metadataResponse{
			Title:    res.Metadata.Title,
			Authors:  res.Metadata.Authors,
			Abstract: res.Metadata.Abstract,
			PDFURL:   res.Metadata.PDFURL,
			Venue:    res.Metadata.Venue,
			Year:     res.Metadata.Year,
			Landing:  res.Metadata.Landing,
		}
	}
	if res.Failure != nil {
		out.Failure = &failureResponse{
			Kind:      string(res.Failure.Kind),
			Message:   res.Failure.Message,
			Transient: res.Failure.Transient(),
		}
	}
	return out
}
