// Package grammar defines the recognizer patterns and canonicalization rules
// for every supported citation scheme. Each scheme is a tagged rule family
// with a uniform contract: a pattern over a single line of text plus a
// canonicalization function from matched text to a normalized identifier.
// Adding a scheme means adding a rule, nothing else.
package grammar

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/devscholar/reference-engine/internal/domain"
)

// Candidate is a raw recognition produced by one rule over one line. Offsets
// are byte positions within the line; the scanner rebases them onto the
// document.
type Candidate struct {
	Scheme   domain.Scheme
	ID       string
	Start    int
	End      int
	Raw      string
	Priority int
}

// Rule recognizes one syntactic form of one scheme.
type Rule struct {
	// Name identifies the rule for diagnostics.
	Name string

	// Priority orders overlapping candidates at the same offset: URL forms
	// outrank bracketed forms, which outrank bare labels.
	Priority int

	pattern *regexp.Regexp

	// canonicalize maps the regexp submatches to (scheme, canonical id).
	// Returning ok=false drops the candidate silently (malformed reference,
	// not a scan failure).
	canonicalize func(groups []string) (domain.Scheme, string, bool)
}

// arXiv identifiers: new-style 2007.12345 (optionally versioned) or
// old-style archive/YYMMNNN such as hep-th/9901001.
const arxivID = `(?:\d{4}\.\d{4,5}|[a-z][a-z-]*(?:\.[A-Z]{2})?/\d{7})(?:v\d+)?`

var rules = []Rule{
	{
		Name:     "arxiv-url",
		Priority: 3,
		pattern:  regexp.MustCompile(`https?://(?:www\.)?arxiv\.org/abs/(` + arxivID + `)`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeArXiv, stripArxivVersion(g[1]), true
		},
	},
	{
		Name:     "arxiv-bracket",
		Priority: 2,
		pattern:  regexp.MustCompile(`\[(?i:arxiv):(` + arxivID + `)\]`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeArXiv, stripArxivVersion(g[1]), true
		},
	},
	{
		Name:     "arxiv-label",
		Priority: 1,
		pattern:  regexp.MustCompile(`(?i:arxiv):(` + arxivID + `)`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeArXiv, stripArxivVersion(g[1]), true
		},
	},
	{
		Name:     "doi-label",
		Priority: 1,
		// The identifier must follow an explicit doi: label; bare
		// PREFIX/SUFFIX text is never matched on its own. Trailing
		// sentence punctuation is excluded from the identifier.
		pattern: regexp.MustCompile(`(?i:doi):\s*(10\.\d{4,9}/[^\s"<>]*[^\s"<>.,;:)\]}])`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeDOI, strings.ToLower(g[1]), true
		},
	},
	{
		Name:     "ieee-url",
		Priority: 3,
		pattern:  regexp.MustCompile(`https?://ieeexplore\.ieee\.org/document/(\d+)`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeIEEE, g[1], true
		},
	},
	{
		Name:     "ieee-label",
		Priority: 1,
		pattern:  regexp.MustCompile(`(?i:ieee):(\d+)`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeIEEE, g[1], true
		},
	},
	{
		Name:     "s2-url",
		Priority: 3,
		pattern:  regexp.MustCompile(`https?://(?:www\.)?semanticscholar\.org/paper/(?:[^\s/"<>]+/)*([0-9a-fA-F]{40})`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeSemanticScholar, strings.ToLower(g[1]), true
		},
	},
	{
		Name:     "s2-cid",
		Priority: 1,
		// Corpus IDs keep their prefix in the canonical identity so they
		// never collide with paper hashes from URL references.
		pattern: regexp.MustCompile(`(?i:s2-cid):(\d+)`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return domain.SchemeSemanticScholar, "CorpusId:" + g[1], true
		},
	},
	{
		Name:     "scholar-url",
		Priority: 3,
		pattern:  regexp.MustCompile(`https?://scholar\.google\.com/scholar\?[^\s"<>]+`),
		canonicalize: func(g []string) (domain.Scheme, string, bool) {
			return canonicalizeScholarURL(g[0])
		},
	},
}

// Rules returns the full rule set in evaluation order.
func Rules() []Rule {
	return rules
}

// FindAll applies the rule to one line and returns all candidates, in offset
// order. Malformed matches (canonicalization rejects) are skipped.
func (r Rule) FindAll(line string) []Candidate {
	idx := r.pattern.FindAllStringSubmatchIndex(line, -1)
	if idx == nil {
		return nil
	}
	out := make([]Candidate, 0, len(idx))
	for _, m := range idx {
		groups := make([]string, 0, len(m)/2)
		for i := 0; i < len(m); i += 2 {
			if m[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, line[m[i]:m[i+1]])
		}
		scheme, id, ok := r.canonicalize(groups)
		if !ok || id == "" {
			continue
		}
		out = append(out, Candidate{
			Scheme:   scheme,
			ID:       id,
			Start:    m[0],
			End:      m[1],
			Raw:      line[m[0]:m[1]],
			Priority: r.Priority,
		})
	}
	return out
}

// Equivalent reports whether two canonical identities denote the same
// reference. Equality is scheme-scoped: identities under different schemes
// are never equivalent, and query references are search pointers that only
// equal their exact selves.
func Equivalent(aScheme domain.Scheme, aID string, bScheme domain.Scheme, bID string) bool {
	return aScheme == bScheme && aID == bID
}

// stripArxivVersion removes a trailing version suffix (v2, v10) from an
// arXiv identifier.
var arxivVersionSuffix = regexp.MustCompile(`v\d+$`)

func stripArxivVersion(id string) string {
	return arxivVersionSuffix.ReplaceAllString(id, "")
}

// canonicalizeScholarURL classifies a Google Scholar URL as a cluster
// reference or a query reference. Cluster IDs identify a specific paper
// cluster; queries canonicalize to the literal decoded query string. URLs
// with neither parameter are malformed and dropped.
func canonicalizeScholarURL(raw string) (domain.Scheme, string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	q := u.Query()
	if cluster := q.Get("cluster"); cluster != "" {
		return domain.SchemeScholarCluster, cluster, true
	}
	if query := q.Get("q"); query != "" {
		return domain.SchemeScholarQuery, query, true
	}
	return "", "", false
}
