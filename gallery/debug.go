package gallery

import (
	"strconv"

	"github.com/gosimple/slug"

	"github.com/peteklapka/wagipedia/render"
	"github.com/peteklapka/wagipedia/store"
	"github.com/peteklapka/wagipedia/utils/debug"
)

// Cards converts entries into gallery card data, entries without locale get
// the sync locale.
func (s *Sync) Cards(entries []Entry) []render.CardLink {
	cards := make([]render.CardLink, 0, len(entries))
	for _, e := range entries {
		locale := e.Ref.Locale
		if locale == "" {
			locale = s.locale
		}
		cards = append(cards, render.CardLink{
			ID:      e.Ref.ID,
			ViewURL: ViewURL(locale, e.Ref.Path),
			EditURL: EditURL(locale, e.Ref.Path),
			Meta:    e.Meta,
		})
	}
	return cards
}

// Dump formats entries for debug report.
func Dump(entries []Entry) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "gallery: %d entries", len(entries))
	for i, e := range entries {
		tw.Line(1, "[%d] id=%d path=%q", i, e.Ref.ID, e.Ref.Path)
		fields := map[string]string{
			"title":    e.Ref.Title,
			"locale":   e.Ref.Locale,
			"strategy": e.Strategy,
			"name":     e.Meta.Name,
			"player":   e.Meta.Player,
			"level":    e.Meta.LevelText,
			"portrait": e.Meta.Portrait,
			"blurb":    e.Meta.Blurb,
			"species":  e.Meta.Species,
			"class":    e.Meta.Class,
			"home":     e.Meta.Home,
			"status":   e.Meta.Status,
		}
		if e.Meta.Level != nil {
			fields["level"] = strconv.Itoa(*e.Meta.Level)
		}
		if e.Err != nil {
			fields["error"] = e.Err.Error()
		}
		tw.Fields(2, fields)
	}
	return tw.String()
}

func reportName(ref store.EntryRef) string {
	return "gallery/" + strconv.Itoa(ref.ID) + "-" + slug.Make(ref.Path) + ".html"
}
