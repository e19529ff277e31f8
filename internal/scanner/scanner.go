// Package scanner walks text blocks and emits raw reference matches using
// the identifier grammar. Scanning is purely lexical: doc comments, line
// comments and plain text are treated uniformly, and the scanner holds no
// state across calls.
package scanner

import (
	"sort"
	"strings"

	"github.com/devscholar/reference-engine/internal/domain"
	"github.com/devscholar/reference-engine/internal/grammar"
)

// maxContextLen bounds the per-match context snippet kept for hover display.
const maxContextLen = 160

// Scanner recognizes references in text blocks. The zero value is not
// usable; construct with New.
type Scanner struct {
	rules []grammar.Rule
}

// New creates a scanner over the full grammar rule set.
func New() *Scanner {
	return &Scanner{rules: grammar.Rules()}
}

// Scan walks the blocks in order and returns every recognized reference
// occurrence as a RawMatch, ordered by document offset. Re-scanning the same
// blocks yields the same matches in the same order.
//
// Matching is line-scoped. Overlapping candidates at the same region resolve
// to the longest, most specific pattern: URL forms win over bracketed forms,
// which win over bare labels.
func (s *Scanner) Scan(blocks []domain.TextBlock) []domain.RawMatch {
	var matches []domain.RawMatch
	for _, block := range blocks {
		matches = append(matches, s.scanBlock(block)...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
	return matches
}

// scanBlock scans one block line by line, rebasing line offsets onto the
// block's document offset.
func (s *Scanner) scanBlock(block domain.TextBlock) []domain.RawMatch {
	var matches []domain.RawMatch
	lineStart := 0
	text := block.Text
	for lineStart <= len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		var line string
		if lineEnd < 0 {
			line = text[lineStart:]
		} else {
			line = text[lineStart : lineStart+lineEnd]
		}

		for _, c := range s.scanLine(line) {
			matches = append(matches, domain.RawMatch{
				Scheme:  c.Scheme,
				RawText: c.Raw,
				Offset:  block.Offset + lineStart + c.Start,
				Length:  c.End - c.Start,
				Context: contextSnippet(line),
			})
		}

		if lineEnd < 0 {
			break
		}
		lineStart += lineEnd + 1
	}
	return matches
}

// scanLine collects candidates from every rule and resolves overlaps.
func (s *Scanner) scanLine(line string) []grammar.Candidate {
	var candidates []grammar.Candidate
	for _, rule := range s.rules {
		candidates = append(candidates, rule.FindAll(line)...)
	}
	if len(candidates) <= 1 {
		return candidates
	}

	// Longest-most-specific-first within equal start offsets, then greedy
	// left-to-right selection dropping anything overlapping an accepted
	// candidate.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return (a.End - a.Start) > (b.End - b.Start)
	})

	accepted := candidates[:0]
	lastEnd := -1
	for _, c := range candidates {
		if c.Start < lastEnd {
			continue
		}
		accepted = append(accepted, c)
		lastEnd = c.End
	}
	return accepted
}

// contextSnippet trims a line to a bounded display snippet.
func contextSnippet(line string) string {
	line = strings.TrimSpace(line)
	if len(line) <= maxContextLen {
		return line
	}
	return line[:maxContextLen]
}
