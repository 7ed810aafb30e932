package service

import (
	"regexp"
	"strings"
)

var tagRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TagDescription documents the tag rule for API users.
const TagDescription = "Each tag must be a single word of letters, digits, hyphens and underscores."

// NormalizeTags trims surrounding whitespace from each tag and checks it is a
// single word. Order is kept; duplicates are kept. A tag with inner
// whitespace, such as "not valid", is rejected rather than split.
func NormalizeTags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if !tagRegex.MatchString(trimmed) {
			return nil, badRequestf("invalid tag %q. %s", tag, TagDescription)
		}
		normalized = append(normalized, trimmed)
	}
	return normalized, nil
}
