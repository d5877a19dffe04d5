package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/peteklapka/wagipedia/utils/debug"
)

// Declaration is single property: value pair.
type Declaration struct {
	Property string
	Value    string
}

// Rule is a qualified rule. Media is the enclosing @media query, empty for
// top level rules.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
	Media        string
}

// Value returns value of the last declaration of property.
func (r Rule) Value(property string) (string, bool) {
	property = strings.ToLower(property)
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == property {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// Stylesheet is a parsed stylesheet in source order.
type Stylesheet struct {
	Rules []Rule
}

var classSelector = regexp.MustCompile(`\.(-?[_a-zA-Z][_a-zA-Z0-9-]*)`)

// Classes returns all class names referenced by selectors, naturally sorted.
func (s *Stylesheet) Classes() []string {
	set := make(map[string]struct{})
	for _, r := range s.Rules {
		for _, sel := range r.Selectors {
			for _, m := range classSelector.FindAllStringSubmatch(sel, -1) {
				set[m[1]] = struct{}{}
			}
		}
	}
	return debug.SortedKeys(set)
}

// HasClass reports whether any selector references class.
func (s *Stylesheet) HasClass(class string) bool {
	for _, r := range s.Rules {
		for _, sel := range r.Selectors {
			for _, m := range classSelector.FindAllStringSubmatch(sel, -1) {
				if m[1] == class {
					return true
				}
			}
		}
	}
	return false
}

// RulesBySelector returns rules listing exact selector, in source order.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	selector = strings.Join(strings.Fields(selector), " ")
	var out []Rule
	for _, r := range s.Rules {
		for _, sel := range r.Selectors {
			if sel == selector {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// WriteTo writes stylesheet back as CSS text, one rule per line.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	media := ""
	for _, r := range s.Rules {
		if r.Media != media {
			if media != "" {
				sb.WriteString("}\n")
			}
			if r.Media != "" {
				fmt.Fprintf(&sb, "@media %s {\n", r.Media)
			}
			media = r.Media
		}
		sb.WriteString(strings.Join(r.Selectors, ","))
		sb.WriteByte('{')
		for i, d := range r.Declarations {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(d.Property)
			sb.WriteByte(':')
			sb.WriteString(d.Value)
		}
		sb.WriteString("}\n")
	}
	if media != "" {
		sb.WriteString("}\n")
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns stylesheet as CSS text.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

// Dump returns readable stylesheet structure for debugging.
func (s *Stylesheet) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Stylesheet: %d rule(s)", len(s.Rules))
	for i, r := range s.Rules {
		tw.Line(1, "[%d] %s", i, strings.Join(r.Selectors, ", "))
		if r.Media != "" {
			tw.Field(2, "@media", r.Media)
		}
		for _, d := range r.Declarations {
			tw.Field(2, d.Property, d.Value)
		}
	}
	return tw.String()
}
