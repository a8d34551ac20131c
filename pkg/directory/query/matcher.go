package query

import (
	"slices"
	"strings"
)

// Matches evaluates the query against one file's metadata. The four
// category checks are ANDed; a category with no terms always passes, a
// category with terms passes if at least one term matches:
//
//   - name, owner and type terms match as case-insensitive substrings of
//     the file's name, owner and type
//   - tag terms match as exact, case-sensitive members of the file's tags
func (q *Query) Matches(name, owner, fileType string, tags []string) bool {
	return matchesSubstring(q.names, name) &&
		matchesSubstring(q.owners, owner) &&
		matchesSubstring(q.types, fileType) &&
		matchesTag(q.tags, tags)
}

func matchesSubstring(terms map[string]struct{}, value string) bool {
	if len(terms) == 0 {
		return true
	}
	value = strings.ToLower(value)
	for term := range terms {
		if strings.Contains(value, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func matchesTag(terms map[string]struct{}, tags []string) bool {
	if len(terms) == 0 {
		return true
	}
	for term := range terms {
		if slices.Contains(tags, term) {
			return true
		}
	}
	return false
}
