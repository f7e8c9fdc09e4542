// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans untrusted text before it is shown to users,
// such as push payloads that become notification bodies.
package htmlsanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element and attribute.
var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from s, decodes entities, and collapses runs
// of whitespace to a single space. Invalid UTF-8 is dropped.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max runes, on a rune boundary.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}
