package sheet

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Cell is a single table cell reduced to what classification and extraction
// look at.
type Cell struct {
	Node   *html.Node
	Header bool     // th
	Text   string   // normalized text content
	Bold   []string // normalized text of strong/b descendants
	Image  string   // src of the first embedded image
}

// IsBold reports whether cell has non-empty bold markup.
func (c Cell) IsBold() bool {
	for _, b := range c.Bold {
		if b != "" {
			return true
		}
	}
	return false
}

// Label is the text of the first bold element, or the whole cell text.
func (c Cell) Label() string {
	for _, b := range c.Bold {
		if b != "" {
			return b
		}
	}
	return c.Text
}

type Row []Cell

// Table is a structural view of an HTML table: header rows and data rows.
// Rows of nested tables are not included.
type Table struct {
	Node *html.Node
	Head []Row
	Body []Row
}

// FirstDataRow returns first row of the table body, nil if there are none.
func (t *Table) FirstDataRow() Row {
	if len(t.Body) == 0 {
		return nil
	}
	return t.Body[0]
}

// HeaderLabels returns normalized texts of the first header row.
func (t *Table) HeaderLabels() []string {
	if len(t.Head) == 0 {
		return nil
	}
	labels := make([]string, 0, len(t.Head[0]))
	for _, c := range t.Head[0] {
		labels = append(labels, c.Text)
	}
	return labels
}

// Rows returns header and data rows in document order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.Head)+len(t.Body))
	rows = append(rows, t.Head...)
	return append(rows, t.Body...)
}

// Parse reads full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for content already in memory.
func ParseString(content string) (*html.Node, error) {
	return Parse(strings.NewReader(content))
}

// FindTables returns all table elements under root in document order.
func FindTables(root *html.Node) []*html.Node {
	return findAll(root, func(n *html.Node) bool { return isElement(n, "table") })
}

// NewTable builds structural view of the table element. When there is no
// thead and the first of several rows consists of th cells only it is treated
// as a header row.
func NewTable(n *html.Node) *Table {
	t := &Table{Node: n}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isElement(c, "thead"):
			t.Head = append(t.Head, sectionRows(c)...)
		case isElement(c, "tbody", "tfoot"):
			t.Body = append(t.Body, sectionRows(c)...)
		case isElement(c, "tr"):
			t.Body = append(t.Body, newRow(c))
		}
	}
	if len(t.Head) == 0 && len(t.Body) > 1 && allHeaders(t.Body[0]) {
		t.Head, t.Body = t.Body[:1], t.Body[1:]
	}
	return t
}

func sectionRows(section *html.Node) []Row {
	var rows []Row
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "tr") {
			rows = append(rows, newRow(c))
		}
	}
	return rows
}

func newRow(tr *html.Node) Row {
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if !isElement(c, "td", "th") {
			continue
		}
		cell := Cell{
			Node:   c,
			Header: c.Data == "th",
			Text:   Normalize(NodeText(c)),
		}
		for _, b := range findAll(c, func(n *html.Node) bool { return isElement(n, "strong", "b") }) {
			cell.Bold = append(cell.Bold, Normalize(NodeText(b)))
		}
		if img := findFirst(c, func(n *html.Node) bool { return isElement(n, "img") }); img != nil {
			src, _ := Attr(img, "src")
			cell.Image = strings.TrimSpace(src)
		}
		row = append(row, cell)
	}
	return row
}

func allHeaders(row Row) bool {
	if len(row) == 0 {
		return false
	}
	for _, c := range row {
		if !c.Header {
			return false
		}
	}
	return true
}

// Container returns element which visually represents the table in the
// document: wrapping figure.table produced by the wiki editor, or the table
// itself.
func Container(table *html.Node) *html.Node {
	if p := table.Parent; isElement(p, "figure") && HasClass(p, "table") {
		return p
	}
	return table
}

// PrecedingHeading returns heading element immediately preceding n (blank
// text between them is ignored) and its normalized text.
func PrecedingHeading(n *html.Node) (*html.Node, string) {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		switch s.Type {
		case html.TextNode:
			if strings.TrimSpace(s.Data) == "" {
				continue
			}
			return nil, ""
		case html.CommentNode:
			continue
		case html.ElementNode:
			if isElement(s, "h1", "h2", "h3", "h4", "h5", "h6") {
				return s, Normalize(NodeText(s))
			}
			return nil, ""
		}
	}
	return nil, ""
}
