package query

import "golang.org/x/text/cases"

// Fold returns the case-folded form used for every term and token comparison.
// A Caser is stateful, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// TokenSet is the set of words of one sentence, compared case-insensitively.
type TokenSet struct {
	words map[string]struct{}
}

// NewTokenSet folds and indexes the given words. Empty words are ignored.
func NewTokenSet(words []string) TokenSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		set[Fold(w)] = struct{}{}
	}
	return TokenSet{words: set}
}

// Has reports whether term equals one of the tokens, ignoring case.
func (s TokenSet) Has(term string) bool {
	if len(s.words) == 0 || term == "" {
		return false
	}
	_, ok := s.words[Fold(term)]
	return ok
}

// Len returns the number of distinct folded tokens.
func (s TokenSet) Len() int { return len(s.words) }
