// Package css reads stylesheets shipped with rendered pages. It only keeps
// what is needed to reason about coverage of rendered markup: qualified rules
// with their selectors and declarations, grouped by enclosing @media query.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into rules.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text. The optional source identifies what is being parsed
// in log messages.
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	name := "stylesheet"
	if len(source) > 0 && source[0] != "" {
		name = source[0]
	}
	p.log.Debug("Parsing CSS", zap.String("source", name), zap.Int("bytes", len(data)))

	sheet := &Stylesheet{}
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	var (
		media   string
		pending []string
	)
	for {
		gt, _, text := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			switch {
			case err == nil:
				// recoverable, offending token was dropped
				p.log.Debug("Skipping malformed CSS", zap.String("source", name), zap.ByteString("text", text))
				continue
			case errors.Is(err, io.EOF):
				return sheet, nil
			}
			return nil, fmt.Errorf("unable to parse %s: %w", name, err)

		case css.BeginAtRuleGrammar:
			rule := strings.ToLower(string(text))
			if rule == "@media" && media == "" {
				media = joinTokens(parser.Values())
				continue
			}
			p.log.Debug("Skipping @-rule", zap.String("rule", rule))
			skipBlock(parser)

		case css.EndAtRuleGrammar:
			media = ""

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(text)))

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			var sb strings.Builder
			sb.Write(text)
			for _, t := range parser.Values() {
				sb.Write(t.Data)
			}
			pending = append(pending, splitSelectors(sb.String())...)
			if gt == css.QualifiedRuleGrammar {
				// selector list continues after comma
				continue
			}
			selectors := pending
			pending = nil
			sheet.Rules = append(sheet.Rules, Rule{
				Selectors:    selectors,
				Declarations: parseDeclarations(parser),
				Media:        media,
			})
		}
	}
}

func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func splitSelectors(s string) []string {
	var out []string
	for sel := range strings.SplitSeq(s, ",") {
		if sel = strings.Join(strings.Fields(sel), " "); sel != "" {
			out = append(out, sel)
		}
	}
	return out
}

func parseDeclarations(parser *css.Parser) []Declaration {
	var decls []Declaration
	for {
		gt, _, text := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{
				Property: strings.ToLower(string(text)),
				Value:    strings.TrimPrefix(joinTokens(parser.Values()), ":"),
			})
		}
	}
}

func skipBlock(parser *css.Parser) {
	for depth := 1; depth > 0; {
		switch gt, _, _ := parser.Next(); gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}
