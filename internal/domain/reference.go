// Package domain defines the core types shared across the reference engine:
// citation schemes, raw matches, canonical paper references, bibliographic
// metadata and the resolution result model.
package domain

import (
	"time"
)

// Scheme identifies a supported citation-source format.
type Scheme string

// Supported schemes.
const (
	// SchemeArXiv covers arxiv:ID, [arxiv:ID] and arxiv.org/abs URLs.
	SchemeArXiv Scheme = "arxiv"

	// SchemeDOI covers doi:PREFIX/SUFFIX and DOI-labeled bare identifiers.
	SchemeDOI Scheme = "doi"

	// SchemeIEEE covers ieee:DOCID and ieeexplore.ieee.org document URLs.
	SchemeIEEE Scheme = "ieee"

	// SchemeSemanticScholar covers s2-cid:CID and semanticscholar.org paper
	// URLs. Corpus IDs and paper hashes share the scheme but keep distinct
	// identity strings ("CorpusId:<n>" vs a raw 40-hex hash), so the two
	// forms are never merged.
	SchemeSemanticScholar Scheme = "s2"

	// SchemeScholarQuery covers scholar.google.com/scholar?q= search URLs.
	// Query references are search pointers, not paper identities; they are
	// tracked but never deduplicated against anything else.
	SchemeScholarQuery Scheme = "scholar-query"

	// SchemeScholarCluster covers scholar.google.com/scholar?cluster= URLs.
	SchemeScholarCluster Scheme = "scholar-cluster"
)

// AllSchemes lists every supported scheme in a stable order.
func AllSchemes() []Scheme {
	return []Scheme{
		SchemeArXiv,
		SchemeDOI,
		SchemeIEEE,
		SchemeSemanticScholar,
		SchemeScholarQuery,
		SchemeScholarCluster,
	}
}

// TextBlock is one unit of input text, typically the comment text extracted
// from a source file by the host. Offset is the block's position within the
// original document so match spans can be mapped back for hover placement.
type TextBlock struct {
	Text   string
	Offset int
}

// RawMatch is a single recognized reference occurrence in the scanned text.
// It is ephemeral: produced by the scanner and consumed by the normalizer
// within the same pass.
type RawMatch struct {
	// Scheme is the citation scheme the match was recognized under.
	Scheme Scheme

	// RawText is the exact matched text, including any scheme label,
	// brackets or URL framing.
	RawText string

	// Offset is the match position in the original document
	// (block offset + offset within the block).
	Offset int

	// Length is the length of RawText in bytes.
	Length int

	// Context is a short snippet of the line surrounding the match,
	// kept for hover display and diagnostics.
	Context string
}

// PaperRef is the canonical identity of one paper reference within a scheme.
// Two raw matches that denote the same paper under a known equivalence (for
// example an arXiv URL and its bracketed arxiv: form) collapse into a single
// PaperRef. Identity is scheme-scoped: an arXiv reference and a DOI reference
// are never merged even when they describe the same paper.
//
// A PaperRef is immutable once normalization of a document completes; its
// Matches sequence grows only during that single pass.
type PaperRef struct {
	// Scheme is the citation scheme of this reference.
	Scheme Scheme

	// ID is the scheme-normalized canonical identifier.
	ID string

	// Matches holds the raw occurrences that collapsed into this
	// reference, in first-seen order.
	Matches []RawMatch
}

// Key returns the canonical identity string for this reference, stable
// across repeated scans of unchanged text. It is the cache and coalescing
// key: "scheme:id".
func (r PaperRef) Key() string {
	return string(r.Scheme) + ":" + r.ID
}

// FirstOffset returns the document offset of the earliest raw match, or -1
// if the reference carries no matches (synthetic refs in tests).
func (r PaperRef) FirstOffset() int {
	if len(r.Matches) == 0 {
		return -1
	}
	return r.Matches[0].Offset
}

// Metadata holds the bibliographic metadata for a resolved paper.
type Metadata struct {
	// Title is the paper title.
	Title string `json:"title"`

	// Authors lists author display names in publication order.
	Authors []string `json:"authors,omitempty"`

	// Abstract is the paper abstract, possibly empty when the provider
	// does not expose one.
	Abstract string `json:"abstract,omitempty"`

	// PDFURL is a direct link to an open-access PDF when available.
	PDFURL string `json:"pdf_url,omitempty"`

	// Venue is the publication venue (journal, conference), when known.
	Venue string `json:"venue,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty"`

	// Landing is a human-viewable landing page for the reference
	// (abstract page, search results page).
	Landing string `json:"landing,omitempty"`
}

// AbstractSnippet returns the abstract truncated to at most n runes,
// with an ellipsis appended when truncated. Hover payloads use short
// snippets rather than full abstracts.
func (m *Metadata) AbstractSnippet(n int) string {
	if m == nil || m.Abstract == "" || n <= 0 {
		return ""
	}
	runes := []rune(m.Abstract)
	if len(runes) <= n {
		return m.Abstract
	}
	return string(runes[:n]) + "…"
}

// ResolvedReference is the engine's output unit: one per input PaperRef,
// carrying either metadata or a resolution failure marker. A failure never
// removes the reference from the result; hosts decide how to render it.
type ResolvedReference struct {
	Ref        PaperRef           `json:"ref"`
	Metadata   *Metadata          `json:"metadata,omitempty"`
	Failure    *ResolutionFailure `json:"failure,omitempty"`
	ResolvedAt time.Time          `json:"resolved_at"`

	// FromCache reports whether the result was served from the cache
	// without a provider call.
	FromCache bool `json:"from_cache,omitempty"`
}

// Resolved reports whether metadata was obtained.
func (r ResolvedReference) Resolved() bool {
	return r.Metadata != nil && r.Failure == nil
}
