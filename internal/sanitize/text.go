// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy removes all HTML tags and attributes.
var strictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding Text unwraps.
const maxPasses = 16

// Text strips all HTML tags, unescapes entities and trims surrounding whitespace.
// Unescaped output is sanitized again until it stops changing, so encoded markup
// cannot come back as real tags. Text(Text(s)) == Text(s).
// Use for names, titles, locations, descriptions and comment bodies, which are plain text.
func Text(input string) string {
	out := input
	for i := 0; i < maxPasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	// Encoded deeper than maxPasses: nothing readable is left to keep.
	return ""
}

// OptionalText applies Text to *input, returning nil when input is nil.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	return &out
}
