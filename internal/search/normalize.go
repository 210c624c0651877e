package search

import "strings"

// fullwidthOffset is the distance between the full-width Latin/digit block
// and its ASCII equivalents (U+FF01..U+FF5E vs U+0021..U+007E).
const fullwidthOffset = 0xFEE0

// Normalize canonicalizes a string for matching: full-width Latin letters
// and digits fold to their half-width equivalents, then everything is
// lower-cased. The function is total and idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= 'Ａ' && r <= 'Ｚ',
			r >= 'ａ' && r <= 'ｚ',
			r >= '０' && r <= '９':
			r -= fullwidthOffset
		}
		b.WriteRune(r)
	}

	return strings.ToLower(b.String())
}
