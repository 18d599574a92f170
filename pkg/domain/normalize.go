package domain

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalURL strips the query string and fragment from a URL, producing
// the entry's dedup/enrichment key. Idempotent: canonicalizing a canonical
// URL returns the same string.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// FoldTag normalizes one tag: trim, NFKC compatibility fold (collapses
// full-width and other width variants) and lowercase. Returns "" for
// tags that are empty after folding.
func FoldTag(tag string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(tag)))
}

// FoldTags folds every tag and drops duplicates and empties,
// keeping first-seen order.
func FoldTags(tags []string) []string {
	return MergeTags(nil, tags)
}

// MergeTags unions extra tags into an already-folded set. Extra tags are
// folded before the union; existing order is preserved and nothing is
// added twice. The result is a fresh slice, existing is not mutated.
func MergeTags(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	merged := make([]string, 0, len(existing)+len(extra))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	for _, t := range extra {
		folded := FoldTag(t)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		merged = append(merged, folded)
	}
	return merged
}
