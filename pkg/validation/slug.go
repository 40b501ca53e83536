package validation

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugRegex        = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify derives a URL-safe slug from a title. Runs of characters outside
// [a-z0-9] collapse into single hyphens.
func Slugify(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	slug := slugInvalidChars.ReplaceAllString(lowered, "-")
	return strings.Trim(slug, "-")
}

// ValidSlug reports whether a client-supplied slug is acceptable as-is.
func ValidSlug(value string) bool {
	return slugRegex.MatchString(value)
}
