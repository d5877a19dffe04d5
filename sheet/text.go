// Package sheet recognizes character sheet tables in wiki page HTML and
// extracts typed records from them.
package sheet

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// Normalize collapses all whitespace runs (NBSP included) into a single space
// and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold prepares text for label comparison: normalized and case folded.
func Fold(s string) string {
	return cases.Fold().String(Normalize(s))
}

// NodeText returns concatenated text content of the node and all its
// descendants, as is.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// Attr returns value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether class attribute contains the name.
func HasClass(n *html.Node, name string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == name {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// findAll collects descendants of n (n itself excluded) matching the
// predicate in document order.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
