package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscholar/reference-engine/internal/domain"
)

// findAll runs every rule over a line and returns all candidates.
func findAll(t *testing.T, line string) []Candidate {
	t.Helper()
	var out []Candidate
	for _, r := range Rules() {
		out = append(out, r.FindAll(line)...)
	}
	return out
}

// findOne asserts exactly one candidate across all rules and returns it.
func findOne(t *testing.T, line string) Candidate {
	t.Helper()
	out := findAll(t, line)
	require.Len(t, out, 1, "line %q", line)
	return out[0]
}

func TestArxivForms(t *testing.T) {
	tests := []struct {
		name string
		line string
		id   string
	}{
		{"bare label", "Implements: arxiv:1706.03762 (Attention Is All You Need)", "1706.03762"},
		{"bracket", "Reference: [arxiv:1810.04805] (BERT)", "1810.04805"},
		{"url", "Based on https://arxiv.org/abs/2301.07041 (ChatGPT paper)", "2301.07041"},
		{"url with version stripped", "See https://arxiv.org/abs/1810.04805v2", "1810.04805"},
		{"label with version stripped", "arxiv:2106.15928v3", "2106.15928"},
		{"old-style id", "arxiv:hep-th/9901001", "hep-th/9901001"},
		{"case-insensitive label", "ArXiv:1706.03762", "1706.03762"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Candidate
			for _, c := range findAll(t, tt.line) {
				if c.Scheme == domain.SchemeArXiv {
					got = append(got, c)
				}
			}
			require.NotEmpty(t, got)
			assert.Equal(t, tt.id, got[0].ID)
		})
	}
}

func TestArxivBracketAndVersionMerge(t *testing.T) {
	// Versioned URL and bracketed plain form canonicalize to the same id.
	url := findOne(t, "https://arxiv.org/abs/1810.04805v2")
	var bracket Candidate
	for _, c := range findAll(t, "[arxiv:1810.04805]") {
		if c.Priority == 2 {
			bracket = c
		}
	}
	require.NotEmpty(t, bracket.ID)
	assert.True(t, Equivalent(url.Scheme, url.ID, bracket.Scheme, bracket.ID))
}

func TestArxivMalformedLabelSkipped(t *testing.T) {
	// A scheme label with no following token yields no match.
	assert.Empty(t, findAll(t, "see arxiv: for details"))
	assert.Empty(t, findAll(t, "arxiv:"))
}

func TestDOIForms(t *testing.T) {
	t.Run("lowercase canonical id", func(t *testing.T) {
		c := findOne(t, "See: doi:10.1038/NATURE14539")
		assert.Equal(t, domain.SchemeDOI, c.Scheme)
		assert.Equal(t, "10.1038/nature14539", c.ID)
	})

	t.Run("case-insensitive label with space", func(t *testing.T) {
		c := findOne(t, "DOI: 10.30574/wjarr.2025.26.2.2015")
		assert.Equal(t, "10.30574/wjarr.2025.26.2.2015", c.ID)
	})

	t.Run("trailing punctuation excluded", func(t *testing.T) {
		c := findOne(t, "(see doi:10.1145/3442188.3445922).")
		assert.Equal(t, "10.1145/3442188.3445922", c.ID)
	})

	t.Run("bare doi without label not matched", func(t *testing.T) {
		assert.Empty(t, findAll(t, "the value 10.1038/nature14539 appears here"))
	})
}

func TestIEEEForms(t *testing.T) {
	label := findOne(t, "IEEE Link: ieee:726791")
	assert.Equal(t, domain.SchemeIEEE, label.Scheme)
	assert.Equal(t, "726791", label.ID)

	u := findOne(t, "URL: https://ieeexplore.ieee.org/document/726791")
	assert.Equal(t, domain.SchemeIEEE, u.Scheme)
	assert.Equal(t, "726791", u.ID)
	assert.True(t, Equivalent(label.Scheme, label.ID, u.Scheme, u.ID))
}

func TestSemanticScholarForms(t *testing.T) {
	t.Run("corpus id keeps prefix", func(t *testing.T) {
		c := findOne(t, "Citation: s2-cid:220453896")
		assert.Equal(t, domain.SchemeSemanticScholar, c.Scheme)
		assert.Equal(t, "CorpusId:220453896", c.ID)
	})

	t.Run("paper url extracts hash", func(t *testing.T) {
		line := "Source: https://www.semanticscholar.org/paper/Attention-is-All-you-Need-Vaswani-Shazeer/204e3073870fae3d05bcbc2f6a8e263d9b72e776"
		c := findOne(t, line)
		assert.Equal(t, domain.SchemeSemanticScholar, c.Scheme)
		assert.Equal(t, "204e3073870fae3d05bcbc2f6a8e263d9b72e776", c.ID)
	})

	t.Run("cid and hash are distinct identities", func(t *testing.T) {
		cid := findOne(t, "s2-cid:220453896")
		hash := findOne(t, "https://www.semanticscholar.org/paper/x/204e3073870fae3d05bcbc2f6a8e263d9b72e776")
		assert.False(t, Equivalent(cid.Scheme, cid.ID, hash.Scheme, hash.ID))
	})
}

func TestScholarForms(t *testing.T) {
	t.Run("query url decodes query string", func(t *testing.T) {
		c := findOne(t, "Search: https://scholar.google.com/scholar?q=deep+learning")
		assert.Equal(t, domain.SchemeScholarQuery, c.Scheme)
		assert.Equal(t, "deep learning", c.ID)
	})

	t.Run("cluster url extracts cluster id", func(t *testing.T) {
		c := findOne(t, "https://scholar.google.com/scholar?cluster=17743936668742460662")
		assert.Equal(t, domain.SchemeScholarCluster, c.Scheme)
		assert.Equal(t, "17743936668742460662", c.ID)
	})

	t.Run("cluster wins when both params present", func(t *testing.T) {
		c := findOne(t, "https://scholar.google.com/scholar?q=bert&cluster=42")
		assert.Equal(t, domain.SchemeScholarCluster, c.Scheme)
		assert.Equal(t, "42", c.ID)
	})

	t.Run("scholar url without q or cluster dropped", func(t *testing.T) {
		assert.Empty(t, findAll(t, "https://scholar.google.com/scholar?hl=en"))
	})
}

func TestMultipleSchemesOnOneLine(t *testing.T) {
	line := "Papers: arxiv:2005.14165 and doi:10.1145/3442188.3445922"
	candidates := findAll(t, line)
	require.Len(t, candidates, 2)

	schemes := map[domain.Scheme]string{}
	for _, c := range candidates {
		schemes[c.Scheme] = c.ID
	}
	assert.Equal(t, "2005.14165", schemes[domain.SchemeArXiv])
	assert.Equal(t, "10.1145/3442188.3445922", schemes[domain.SchemeDOI])
}

func TestCandidateOffsets(t *testing.T) {
	line := "ref arxiv:1706.03762 end"
	var c Candidate
	for _, cand := range findAll(t, line) {
		c = cand
	}
	assert.Equal(t, 4, c.Start)
	assert.Equal(t, "arxiv:1706.03762", c.Raw)
	assert.Equal(t, c.Start+len(c.Raw), c.End)
}

func TestFreeFloatingNumbersNotMatched(t *testing.T) {
	// Arbitrary numeric comments must not produce matches.
	assert.Empty(t, findAll(t, "retry 1234567 times before 2017.01012 deadline"))
}
