package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Web Development":         "web-development",
		"  Spaced  Out  Title  ":  "spaced-out-title",
		"C++ & Go: The Basics!":   "c-go-the-basics",
		"already-a-slug":          "already-a-slug",
		"MiXeD CaSe":              "mixed-case",
		"---":                     "",
		"2024 Roadmap (Part Two)": "2024-roadmap-part-two",
	}

	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestValidSlug(t *testing.T) {
	for _, slug := range []string{"a", "web-dev", "go-101", "x-y-z"} {
		assert.True(t, ValidSlug(slug), slug)
	}

	for _, slug := range []string{"", "-leading", "trailing-", "double--hyphen", "Has Space", "UPPER", "dot.slug"} {
		assert.False(t, ValidSlug(slug), slug)
	}
}
