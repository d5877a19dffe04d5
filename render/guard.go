package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/peteklapka/wagipedia/sheet"
)

type nodeState int

const (
	stateSkipped nodeState = iota + 1
	stateRendered
	stateHidden
)

// Options tune what guard renders.
type Options struct {
	// FallbackName is used for identity cards without character name.
	FallbackName string
	// DefaultSectionTitle replaces built-in title of key/value sections which
	// have no heading of their own.
	DefaultSectionTitle string
	// TipPrefixes mark editor-only hints which are hidden in view mode.
	TipPrefixes []string
}

// Stats describes what single pass did.
type Stats struct {
	Pass       string
	Rendered   int
	Skipped    int
	TipsHidden int
	Mutations  int
}

// Guard applies rendering to documents making sure every source table is
// processed at most once. Render state lives in guard's side table keyed by
// node identity, document itself only gets visible changes. Passes are
// serialized.
type Guard struct {
	mu   sync.Mutex
	opts Options
	seen map[*html.Node]nodeState
	log  *zap.Logger
}

func NewGuard(opts Options, log *zap.Logger) *Guard {
	return &Guard{
		opts: opts,
		seen: make(map[*html.Node]nodeState),
		log:  log.Named("guard"),
	}
}

// Processed reports whether node was already handled by one of the passes.
func (g *Guard) Processed(n *html.Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seen[n]
	return ok
}

// Reset forgets all render state, to be used when document is discarded.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.seen)
}

// Apply runs single render pass over the document. Nothing is done while host
// is in editing context. Repeated passes over unchanged document do not mutate
// it.
func (g *Guard) Apply(root *html.Node, editing bool) (Stats, error) {
	var stats Stats
	if editing {
		g.log.Debug("Editing context, pass skipped")
		return stats, nil
	}
	if root == nil {
		return stats, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	stats.Pass = uuid.Must(uuid.NewV7()).String()
	log := g.log.With(zap.String("pass", stats.Pass))

	g.hideTips(root, &stats)

	for _, table := range sheet.FindTables(root) {
		if _, ok := g.seen[table]; ok {
			continue
		}
		if err := g.renderTable(table, &stats, log); err != nil {
			return stats, err
		}
	}

	if stats.Mutations > 0 {
		log.Debug("Pass completed", zap.Int("rendered", stats.Rendered), zap.Int("skipped", stats.Skipped),
			zap.Int("tips", stats.TipsHidden), zap.Int("mutations", stats.Mutations))
	}
	return stats, nil
}

func (g *Guard) renderTable(table *html.Node, stats *Stats, log *zap.Logger) error {
	container := sheet.Container(table)
	if container.Parent == nil {
		// detached, nowhere to insert
		g.seen[table] = stateSkipped
		stats.Skipped++
		return nil
	}

	t := sheet.NewTable(table)
	heading, headingText := sheet.PrecedingHeading(container)
	class := sheet.Classify(t, headingText)

	var block *Block
	switch class.Kind {
	case sheet.Unclassified:
		g.seen[table] = stateSkipped
		stats.Skipped++
		return nil
	case sheet.IdentityCard:
		block = Card(sheet.ExtractCard(t, g.opts.FallbackName))
	default:
		section, ok := sheet.ExtractSection(t, class)
		if !ok {
			g.seen[table] = stateSkipped
			stats.Skipped++
			return nil
		}
		if class.Kind == sheet.KeyValueSection && !class.TitleFromHeading && g.opts.DefaultSectionTitle != "" {
			section.Title = g.opts.DefaultSectionTitle
		}
		block = Section(section)
	}

	nodes, err := block.Nodes(container.Parent)
	if err != nil {
		return fmt.Errorf("unable to render %s table: %w", class.Kind, err)
	}
	for _, n := range nodes {
		container.Parent.InsertBefore(n, container)
		stats.Mutations++
	}
	if hide(container) {
		stats.Mutations++
	}
	// heading became section title, do not show it twice
	if class.Kind == sheet.KeyValueSection && class.TitleFromHeading && heading != nil {
		if _, ok := g.seen[heading]; !ok && hide(heading) {
			g.seen[heading] = stateHidden
			stats.Mutations++
		}
	}

	g.seen[table] = stateRendered
	stats.Rendered++
	log.Debug("Table rendered", zap.Stringer("kind", class.Kind), zap.String("title", class.Title))
	return nil
}

// hideTips hides editor hints: block elements whose direct strong child starts
// with one of configured prefixes.
func (g *Guard) hideTips(root *html.Node, stats *Stats) {
	if len(g.opts.TipPrefixes) == 0 {
		return
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "div", "p", "blockquote", "li":
				if _, ok := g.seen[c]; !ok && g.isTip(c) {
					if hide(c) {
						stats.Mutations++
					}
					g.seen[c] = stateHidden
					stats.TipsHidden++
					continue
				}
			}
			walk(c)
		}
	}
	walk(root)
}

func (g *Guard) isTip(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "strong" {
			continue
		}
		label := sheet.Normalize(sheet.NodeText(c))
		if label == "" {
			continue
		}
		for _, prefix := range g.opts.TipPrefixes {
			if strings.HasPrefix(label, prefix) {
				return true
			}
		}
		return false
	}
	return false
}

// hide adds display:none to element style, reports whether element changed.
func hide(n *html.Node) bool {
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "style" {
			continue
		}
		if strings.Contains(strings.ReplaceAll(a.Val, " ", ""), "display:none") {
			return false
		}
		style := strings.TrimSpace(a.Val)
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		n.Attr[i].Val = style + "display:none"
		return true
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: "display:none"})
	return true
}
