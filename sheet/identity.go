package sheet

import (
	"strings"

	"golang.org/x/net/html"
)

// IdentityStrategy is a single way of locating character identity in the
// document. It reports false when its source is not present at all.
type IdentityStrategy interface {
	Name() string
	Extract(doc *html.Node, fallbackTitle string) (CardMeta, bool)
}

// DefaultStrategies are tried in order: identity card table first, then
// legacy data-cc tagged elements.
var DefaultStrategies = []IdentityStrategy{CardTableStrategy{}, LegacyAttrStrategy{}}

// ExtractIdentity returns identity from the first strategy which finds its
// source. When none does, default card with fallback name is returned. Name
// of the result is never empty.
func ExtractIdentity(doc *html.Node, fallbackTitle string, strategies ...IdentityStrategy) CardMeta {
	meta, _ := ExtractIdentityWith(doc, fallbackTitle, strategies...)
	return meta
}

// ExtractIdentityWith is ExtractIdentity which also returns name of the
// strategy that produced the result, empty when defaults were used.
func ExtractIdentityWith(doc *html.Node, fallbackTitle string, strategies ...IdentityStrategy) (CardMeta, string) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		if meta, ok := s.Extract(doc, fallbackTitle); ok {
			return meta, s.Name()
		}
	}
	return DefaultMeta(fallbackTitle), ""
}

// CardTableStrategy reads the first table carrying identity card marker.
type CardTableStrategy struct{}

func (CardTableStrategy) Name() string { return "card-table" }

func (CardTableStrategy) Extract(doc *html.Node, fallbackTitle string) (CardMeta, bool) {
	for _, n := range FindTables(doc) {
		t := NewTable(n)
		if isIdentityCard(t) {
			return ExtractCard(t, fallbackTitle), true
		}
	}
	return CardMeta{}, false
}

// LegacyAttrStrategy reads elements tagged with data-cc attribute, the layout
// used by pages created before identity card tables.
type LegacyAttrStrategy struct{}

const legacyAttr = "data-cc"

func (LegacyAttrStrategy) Name() string { return "legacy-data-cc" }

func (LegacyAttrStrategy) Extract(doc *html.Node, fallbackTitle string) (CardMeta, bool) {
	tagged := make(map[string]*html.Node)
	for _, n := range findAll(doc, func(n *html.Node) bool {
		_, ok := Attr(n, legacyAttr)
		return n.Type == html.ElementNode && ok
	}) {
		key, _ := Attr(n, legacyAttr)
		key = strings.ToLower(strings.TrimSpace(key))
		if _, seen := tagged[key]; !seen {
			tagged[key] = n
		}
	}

	found := false
	text := func(key string) string {
		n, ok := tagged[key]
		if !ok {
			return ""
		}
		found = true
		return Normalize(NodeText(n))
	}

	meta := CardMeta{
		Name:   nameOr(text("name"), fallbackTitle),
		Player: text("player"),
		Blurb:  text("blurb"),
	}
	meta.LevelText = text("level")
	meta.Level = ParseLevel(meta.LevelText)
	if meta.Player == "" {
		meta.Player = NoValue
	}

	if n, ok := tagged["portrait"]; ok {
		found = true
		img := n
		if !isElement(n, "img") {
			img = findFirst(n, func(c *html.Node) bool { return isElement(c, "img") })
		}
		if img != nil {
			src, _ := Attr(img, "src")
			meta.Portrait = strings.TrimSpace(src)
		}
	}
	return meta, found
}
