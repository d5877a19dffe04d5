package render

import (
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/peteklapka/wagipedia/css"
)

//go:embed theme.css
var themeCSS []byte

// ThemeAttr marks style element carrying injected theme.
const ThemeAttr = "data-wag-theme"

// Classes lists every class rendered blocks may carry.
var Classes = []string{
	"wag-sheet", "wag-sheet__hdr", "wag-sheet__title", "wag-sheet__body",
	"wag-sheet-grid", "wag-sheet-stat", "wag-sheet-stat__k", "wag-sheet-stat__v",
	"wag-abilities", "wag-ability", "wag-ability__abbr", "wag-ability__score", "wag-ability__mod",
	"wag-dl", "wag-dl__k", "wag-dl__v",
	"wag-charcard-render", "wag-charcard-render__top", "wag-charcard-render__portrait",
	"wag-charcard-render__title", "wag-charcard-render__sub", "wag-charcard-render__blurb",
	"wag-charcard-render__badges", "wag-charcard-render__badge",
	"wag-charcard-render__grid", "wag-charcard-render__k", "wag-charcard-render__v",
	"wag-char-gallery-shell", "wag-char-gallery-title", "wag-char-gallery-status", "wag-char-gallery-grid",
	"wag-char-card", "wag-char-card__noportrait", "wag-char-card__info", "wag-char-card__name",
	"wag-char-card__line", "wag-char-card__blurb", "wag-char-card__blurb--empty", "wag-char-card__actions",
	"wagCharView", "wagCharEdit", "wagCharDelete",
}

// LoadTheme parses stylesheet at path, or built-in theme when path is empty.
func LoadTheme(path string, log *zap.Logger) (*css.Stylesheet, error) {
	if log == nil {
		log = zap.NewNop()
	}
	data, source := themeCSS, "built-in theme"
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("unable to read stylesheet: %w", err)
		}
		source = path
	}
	sheet, err := css.NewParser(log).Parse(data, source)
	if err != nil {
		return nil, err
	}
	if missing := MissingClasses(sheet); len(missing) > 0 {
		log.Warn("Stylesheet does not style some rendered classes", zap.String("source", source), zap.Strings("classes", missing))
	}
	return sheet, nil
}

// MissingClasses returns rendered classes stylesheet has no rules for.
func MissingClasses(sheet *css.Stylesheet) []string {
	var missing []string
	for _, c := range Classes {
		if !sheet.HasClass(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// InjectTheme appends style element with stylesheet to the document head,
// replacing previously injected one. Documents without head get the element
// prepended to the body or the root. Reports whether document changed.
func InjectTheme(root *html.Node, sheet *css.Stylesheet) bool {
	if root == nil || sheet == nil {
		return false
	}
	text := sheet.String()

	if old := findElement(root, func(n *html.Node) bool {
		return n.DataAtom == atom.Style && hasAttr(n, ThemeAttr)
	}); old != nil {
		if old.FirstChild != nil && old.FirstChild == old.LastChild && old.FirstChild.Data == text {
			return false
		}
		old.Parent.RemoveChild(old)
	}

	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: ThemeAttr, Val: "true"}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	if head := findElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Head }); head != nil {
		head.AppendChild(style)
		return true
	}
	parent := findElement(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if parent == nil {
		parent = root
	}
	parent.InsertBefore(style, parent.FirstChild)
	return true
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}
