package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"

	"github.com/peteklapka/wagipedia/render"
)

const (
	// NamePlaceholder is literal token replaced with character name
	// everywhere in template content.
	NamePlaceholder = "CHARACTER NAME"
	// DefaultDescription is used when no description template is configured.
	DefaultDescription = "Player Character: {{ .Name }}"

	nameAttr  = "data-cc"
	nameField = "name"
)

// Fill returns template content for new character: escaped name replaces
// content of the first element tagged data-cc="name" and every name
// placeholder.
func Fill(content, name string) string {
	escaped := render.Escape(name)
	return strings.ReplaceAll(replaceTaggedName(content, escaped), NamePlaceholder, escaped)
}

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

// replaceTaggedName rewrites content token by token, replacing everything
// inside the first data-cc="name" element. Content is returned untouched when
// there is no such element or it cannot be tokenized.
func replaceTaggedName(content, value string) string {
	l := html.NewLexer(parse.NewInput(strings.NewReader(content)))

	var (
		out               bytes.Buffer
		tagged, replacing bool
		replaced, counted bool
		void              bool
		depth             int
	)
	for {
		tt, data := l.Next()
		switch tt {
		case html.ErrorToken:
			if !replaced || !errors.Is(l.Err(), io.EOF) {
				return content
			}
			return out.String()
		case html.StartTagToken:
			tagged, counted = false, false
			_, void = voidElements[strings.ToLower(string(l.Text()))]
			if replacing && !void {
				depth++
				counted = true
			}
		case html.AttributeToken:
			if !replaced && strings.EqualFold(string(l.Text()), nameAttr) && attrValue(l.AttrVal()) == nameField {
				tagged = true
			}
		case html.StartTagCloseToken:
			// void element has no content to replace
			if tagged && !replaced && !void {
				out.Write(data)
				out.WriteString(value)
				tagged, replacing, replaced = false, true, true
				continue
			}
			tagged = false
		case html.StartTagVoidToken:
			// self-closed element never gets its end tag
			if counted {
				depth--
				counted = false
			}
		case html.EndTagToken:
			if replacing {
				if depth == 0 {
					replacing = false
				} else {
					depth--
				}
			}
		}
		if replacing {
			continue
		}
		out.Write(data)
	}
}

func attrValue(raw []byte) string {
	v := string(raw)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// descriptionValues are available to description template.
type descriptionValues struct {
	Name   string
	Slug   string
	Path   string
	Locale string
}

func parseDescription(text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultDescription
	}
	tmpl, err := template.New("description").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse description template: %w", err)
	}
	return tmpl, nil
}

func expandDescription(tmpl *template.Template, v descriptionValues) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("unable to expand description template: %w", err)
	}
	return buf.String(), nil
}
