// Package normalize converts raw user text into canonical tag sets.
package normalize

import (
	"regexp"
	"strings"

	"github.com/memoriaapp/memoria-server/internal/domain"
)

var (
	// Tokens are separated by runs of whitespace and/or commas.
	separatorRe = regexp.MustCompile(`[\s,]+`)
	// Everything outside the canonical tag alphabet is stripped per token.
	nonCanonicalRe = regexp.MustCompile(`[^a-z0-9_]`)
)

// Tags converts free-form text to an ordered-unique canonical tag list.
//
// Normalization rules:
//  1. Lowercase the input
//  2. Split on runs of whitespace and commas
//  3. Strip characters outside [a-z0-9_] from each token
//  4. Drop empty tokens and tokens longer than domain.MaxTagLength
//  5. Deduplicate, preserving first-seen order
//  6. Truncate to domain.MaxTagsPerRecord
//
// Tags is total and pure: it never fails, and renormalizing its own
// output yields the same list. An empty result is valid output that the
// caller must treat as invalid input.
//
// Examples:
//
//	"Cat, DOG cat"   → ["cat", "dog"]
//	"héllo wörld"    → ["hllo", "wrld"]
//	"a,,  ,b"        → ["a", "b"]
func Tags(text string) []string {
	tokens := separatorRe.Split(strings.ToLower(text), -1)

	tags := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tag := nonCanonicalRe.ReplaceAllString(tok, "")
		if tag == "" || len(tag) > domain.MaxTagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == domain.MaxTagsPerRecord {
			break
		}
	}

	return tags
}
