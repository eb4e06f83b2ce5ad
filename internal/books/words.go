package books

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag, leaving only text content.
var stripPolicy = bluemonday.StrictPolicy()

// StripTags returns the plain text of an HTML fragment with entities decoded.
// Each tag acts as a word boundary, so "<p>one</p><p>two</p>" yields
// "one two" rather than "onetwo".
func StripTags(fragment string) string {
	// A space ahead of every tag survives sanitization and keeps adjacent
	// text nodes separated once the tags are gone.
	spaced := strings.ReplaceAll(fragment, "<", " <")
	plain := html.UnescapeString(stripPolicy.Sanitize(spaced))
	return strings.Join(strings.Fields(plain), " ")
}

// CountWords counts whitespace-delimited tokens in an HTML fragment after
// markup is stripped. Any run of whitespace is one delimiter; an empty or
// all-whitespace fragment counts zero words.
func CountWords(fragment string) int {
	return len(strings.Fields(StripTags(fragment)))
}
