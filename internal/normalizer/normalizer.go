// Package normalizer collapses raw scanner matches into canonical,
// deduplicated paper references for one document.
package normalizer

import (
	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/grammar"
)

// Normalize consumes the raw match sequence from a single document and
// returns the deduplicated reference list in first-seen order. Each match is
// canonicalized under its scheme's grammar; matches with the same
// (scheme, id) identity accumulate on one PaperRef. Equivalence is
// scheme-scoped, so references under different schemes are never merged even
// when they describe the same paper.
//
// The pass is deterministic: identical input always yields the same
// reference set in the same order.
func Normalize(matches []domain.RawMatch) []domain.PaperRef {
	if len(matches) == 0 {
		return nil
	}

	byKey := make(map[string]int, len(matches))
	refs := make([]domain.PaperRef, 0, len(matches))

	for _, m := range matches {
		id, ok := CanonicalID(m)
		if !ok {
			continue
		}
		key := string(m.Scheme) + ":" + id
		if i, seen := byKey[key]; seen {
			refs[i].Matches = append(refs[i].Matches, m)
			continue
		}
		byKey[key] = len(refs)
		refs = append(refs, domain.PaperRef{
			Scheme:  m.Scheme,
			ID:      id,
			Matches: []domain.RawMatch{m},
		})
	}
	return refs
}

// CanonicalID recovers the canonical identifier for a raw match by running
// its matched text back through the grammar. The scanner only emits
// grammar-recognized text, so a miss here means the match did not come from
// a scan; it is dropped rather than guessed at.
func CanonicalID(m domain.RawMatch) (string, bool) {
	for _, rule := range grammar.Rules() {
		for _, c := range rule.FindAll(m.RawText) {
			if c.Scheme == m.Scheme {
				return c.ID, true
			}
		}
	}
	return "", false
}
