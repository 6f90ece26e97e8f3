// Package prefilter narrows a pattern catalogue to the patterns worth
// streaming over a given input, using Aho-Corasick keyword matching.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/streamscan/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
type Prefilter struct {
	matcher           *ahocorasick.Matcher
	keywords          []string                    // keyword at each index
	keywordPatterns   map[string][]*types.Pattern // keyword -> patterns needing it
	noKeywordPatterns []*types.Pattern            // patterns without keywords (always selected)
}

// New creates a prefilter from a catalogue.
func New(patterns []*types.Pattern) *Prefilter {
	pf := &Prefilter{
		keywordPatterns:   make(map[string][]*types.Pattern),
		noKeywordPatterns: make([]*types.Pattern, 0),
	}

	keywordSet := make(map[string]bool)
	for _, p := range patterns {
		if len(p.Keywords) == 0 {
			// No keywords = always select this pattern
			pf.noKeywordPatterns = append(pf.noKeywordPatterns, p)
			continue
		}
		for _, keyword := range p.Keywords {
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordPatterns[keyword] = append(pf.keywordPatterns[keyword], p)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns patterns that might match content: those whose keywords
// appear, plus those with no keywords defined. Keyword matching is
// case-sensitive; catalogues list case variants explicitly.
func (pf *Prefilter) Filter(content []byte) []*types.Pattern {
	result := make([]*types.Pattern, 0, len(pf.noKeywordPatterns))
	result = append(result, pf.noKeywordPatterns...)

	if pf.matcher == nil {
		return result
	}

	hits := pf.matcher.Match(content)

	seen := make(map[*types.Pattern]bool)
	for _, p := range pf.noKeywordPatterns {
		seen[p] = true
	}

	for _, hit := range hits {
		keyword := pf.keywords[hit]
		for _, p := range pf.keywordPatterns[keyword] {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}
