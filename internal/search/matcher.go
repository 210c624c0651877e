package search

import "github.com/sahilm/fuzzy"

// Score runs a fuzzy subsequence match of needle against haystack. It
// reports ok=false when the needle's characters do not all occur in order
// within the haystack. The score rewards consecutive hits and hits at word
// boundaries; it is only meaningful relative to other scores for the same
// needle.
func Score(haystack, needle string) (int, bool) {
	matches := fuzzy.Find(needle, []string{haystack})
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Score, true
}
