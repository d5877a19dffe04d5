package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Escape makes user supplied text safe for insertion into HTML text or quoted
// attribute values.
func Escape(s string) string {
	return html.EscapeString(s)
}

// IsEditPath reports whether page path belongs to the wiki editor ("/e/...")
// where raw tables must stay untouched.
func IsEditPath(path string) bool {
	return strings.HasPrefix(path, "/e/") || strings.Contains(path, "/e/")
}
