package extraction

import (
	"github.com/cloudflare/ahocorasick"
)

// Vocabulary is a fixed term list matched as substrings in a single pass.
// Matching is case-sensitive; callers normalize case before asking.
type Vocabulary struct {
	terms   []string
	matcher *ahocorasick.Matcher
}

// NewVocabulary builds a matcher over terms. Duplicates and empty terms are dropped.
func NewVocabulary(terms ...string) *Vocabulary {
	seen := make(map[string]bool, len(terms))
	v := &Vocabulary{}
	for _, t := range terms {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		v.terms = append(v.terms, t)
	}
	if len(v.terms) > 0 {
		v.matcher = ahocorasick.NewStringMatcher(v.terms)
	}
	return v
}

// Hits returns the distinct terms found in text.
func (v *Vocabulary) Hits(text string) []string {
	if v.matcher == nil || text == "" {
		return nil
	}
	idx := v.matcher.MatchThreadSafe([]byte(text))
	out := make([]string, 0, len(idx))
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(v.terms) || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, v.terms[i])
	}
	return out
}

// Count returns how many distinct terms occur in text.
func (v *Vocabulary) Count(text string) int {
	return len(v.Hits(text))
}

// Any reports whether at least one term occurs in text.
func (v *Vocabulary) Any(text string) bool {
	return v.Count(text) > 0
}

// Terms returns the vocabulary in insertion order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}
