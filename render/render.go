// Package render turns extracted sheet records into presentational HTML
// blocks and applies them to wiki documents.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/peteklapka/wagipedia/sheet"
)

// Block is a rendered presentational fragment with a single root element.
type Block struct {
	doc *etree.Document
}

func newBlock(root *etree.Element) *Block {
	doc := etree.NewDocument()
	// HTML has no self-closing non-void elements
	doc.WriteSettings = etree.WriteSettings{CanonicalEndTags: true}
	doc.SetRoot(root)
	return &Block{doc: doc}
}

// Root gives access to the block element tree.
func (b *Block) Root() *etree.Element {
	return b.doc.Root()
}

// Nodes converts block into HTML nodes parsed in the context of the element
// they are going to be inserted into. Context may be nil.
func (b *Block) Nodes(context *html.Node) ([]*html.Node, error) {
	var buf bytes.Buffer
	if _, err := b.doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to serialize block: %w", err)
	}
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(&buf, context)
	if err != nil {
		return nil, fmt.Errorf("unable to parse block: %w", err)
	}
	return nodes, nil
}

// HTML returns block as HTML text.
func (b *Block) HTML() (string, error) {
	nodes, err := b.Nodes(nil)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("unable to render block: %w", err)
		}
	}
	return buf.String(), nil
}

func div(parent *etree.Element, class string) *etree.Element {
	el := parent.CreateElement("div")
	el.CreateAttr("class", class)
	return el
}

func textDiv(parent *etree.Element, class, text string) *etree.Element {
	el := div(parent, class)
	el.SetText(text)
	return el
}

// Section renders sheet section with its title header.
func Section(s sheet.Section) *Block {
	root := etree.NewElement("section")
	root.CreateAttr("class", "wag-sheet")
	root.CreateAttr("aria-label", s.Title)

	hdr := div(root, "wag-sheet__hdr")
	title := hdr.CreateElement("h4")
	title.CreateAttr("class", "wag-sheet__title")
	title.SetText(s.Title)

	body := div(root, "wag-sheet__body")
	switch s.Kind {
	case sheet.QuickStats:
		grid := div(body, "wag-sheet-grid")
		for _, p := range s.Pairs {
			stat := div(grid, "wag-sheet-stat")
			textDiv(stat, "wag-sheet-stat__k", p.Label)
			textDiv(stat, "wag-sheet-stat__v", p.Value)
		}
	case sheet.AbilityGrid:
		grid := div(body, "wag-abilities")
		for _, a := range s.Abilities {
			ab := div(grid, "wag-ability")
			textDiv(ab, "wag-ability__abbr", a.Abbr)
			textDiv(ab, "wag-ability__score", a.Score)
			textDiv(ab, "wag-ability__mod", a.Mod)
		}
	default:
		dl := div(body, "wag-dl")
		for _, p := range s.Pairs {
			textDiv(dl, "wag-dl__k", p.Label)
			textDiv(dl, "wag-dl__v", p.Value)
		}
	}
	return newBlock(root)
}

func noPortrait(parent *etree.Element, class string) {
	el := textDiv(parent, class, "No portrait")
	el.CreateAttr("data-empty", "true")
}

// Card renders in-page identity card.
func Card(m sheet.CardMeta) *Block {
	root := etree.NewElement("section")
	root.CreateAttr("class", "wag-charcard-render")
	root.CreateAttr("aria-label", "Character Card")

	top := div(root, "wag-charcard-render__top")
	if m.Portrait != "" {
		img := top.CreateElement("img")
		img.CreateAttr("class", "wag-charcard-render__portrait")
		img.CreateAttr("src", m.Portrait)
		img.CreateAttr("alt", m.Name+" portrait")
	} else {
		noPortrait(top, "wag-charcard-render__portrait")
	}

	info := top.CreateElement("div")
	title := info.CreateElement("h3")
	title.CreateAttr("class", "wag-charcard-render__title")
	title.SetText(m.Name)

	level := m.LevelText
	if level == "" {
		level = sheet.NoValue
	}
	sub := div(info, "wag-charcard-render__sub")
	sub.CreateText("Player: ")
	sub.CreateElement("strong").SetText(m.Player)
	sub.CreateText(" • Level ")
	sub.CreateElement("strong").SetText(level)

	if m.Blurb != "" {
		textDiv(info, "wag-charcard-render__blurb", m.Blurb)
	}
	badges := div(info, "wag-charcard-render__badges")
	for _, b := range []string{m.Species, m.Class, m.Status} {
		if b != "" {
			span := badges.CreateElement("span")
			span.CreateAttr("class", "wag-charcard-render__badge")
			span.SetText(b)
		}
	}

	grid := div(root, "wag-charcard-render__grid")
	if m.Home != "" {
		textDiv(grid, "wag-charcard-render__k", "Home / Faction")
		textDiv(grid, "wag-charcard-render__v", m.Home)
	}
	return newBlock(root)
}

// CardLink is gallery card data: identity plus where the entry lives.
type CardLink struct {
	ID      int
	ViewURL string
	EditURL string
	Meta    sheet.CardMeta
}

// GalleryCard renders single gallery tile.
func GalleryCard(c CardLink) *Block {
	root := etree.NewElement("div")
	root.CreateAttr("class", "wag-char-card")
	galleryCard(root, c)
	return newBlock(root)
}

func galleryCard(root *etree.Element, c CardLink) {
	link := root.CreateElement("a")
	link.CreateAttr("href", c.ViewURL)
	if c.Meta.Portrait != "" {
		img := link.CreateElement("img")
		img.CreateAttr("src", c.Meta.Portrait)
		img.CreateAttr("alt", c.Meta.Name)
	} else {
		noPortrait(link, "wag-char-card__noportrait")
	}

	info := div(root, "wag-char-card__info")
	textDiv(info, "wag-char-card__name", c.Meta.Name)

	level := "Lvl " + sheet.NoValue
	if c.Meta.Level != nil {
		level = "Lvl " + strconv.Itoa(*c.Meta.Level)
	}
	line := div(info, "wag-char-card__line")
	player := line.CreateElement("span")
	player.CreateText("Player: ")
	player.CreateElement("strong").SetText(c.Meta.Player)
	line.CreateElement("span").SetText("•")
	line.CreateElement("strong").SetText(level)

	if c.Meta.Blurb != "" {
		textDiv(info, "wag-char-card__blurb", c.Meta.Blurb)
	} else {
		textDiv(info, "wag-char-card__blurb wag-char-card__blurb--empty", "No blurb yet.")
	}

	actions := div(root, "wag-char-card__actions")
	view := actions.CreateElement("a")
	view.CreateAttr("class", "wagCharView")
	view.CreateAttr("href", c.ViewURL)
	view.SetText("View")
	edit := actions.CreateElement("a")
	edit.CreateAttr("class", "wagCharEdit")
	edit.CreateAttr("href", c.EditURL)
	edit.SetText("Edit")
	del := actions.CreateElement("button")
	del.CreateAttr("class", "wagCharDelete")
	del.CreateAttr("data-page-id", strconv.Itoa(c.ID))
	del.CreateAttr("data-page-title", c.Meta.Name)
	del.SetText("✕")
}

// Gallery renders complete gallery grid with status line.
func Gallery(title string, cards []CardLink) *Block {
	root := etree.NewElement("div")
	root.CreateAttr("class", "wag-char-gallery-shell")
	textDiv(root, "wag-char-gallery-title", title)
	textDiv(root, "wag-char-gallery-status", fmt.Sprintf("%d character(s) found.", len(cards)))

	grid := div(root, "wag-char-gallery-grid")
	for _, c := range cards {
		galleryCard(div(grid, "wag-char-card"), c)
	}
	return newBlock(root)
}
