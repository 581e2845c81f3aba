package category

import (
	"sort"
	"strings"
)

// Match evaluates rules against a description and returns the winning rule.
// Rules are evaluated by descending priority, ties broken by most recent
// creation; the first rule whose keyword is a case-insensitive substring of
// the description wins. First match, not longest match.
func Match(description string, rules []Rule) (*Rule, bool) {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	for i := range ordered {
		if ordered[i].Matches(description) {
			return &ordered[i], true
		}
	}
	return nil, false
}

// DeriveKeyword extracts a rule keyword from a transaction description:
// the first one or two words, or the first 20 characters when the
// description has no spaces.
func DeriveKeyword(description string) string {
	description = strings.TrimSpace(description)
	words := strings.Fields(description)

	switch {
	case len(words) >= 2:
		return words[0] + " " + words[1]
	case len(words) == 1:
		word := words[0]
		if len(word) > 20 {
			return word[:20]
		}
		return word
	default:
		if len(description) > 20 {
			return description[:20]
		}
		return description
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
