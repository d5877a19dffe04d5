package sheet

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// UntitledName is used when neither card nor entry provide a name.
	UntitledName = "(Untitled)"
	// NoValue is a placeholder for absent player and level.
	NoValue = "—"

	QuickStatsTitle = "Quick Stats"
	AbilitiesTitle  = "Ability Scores"
)

// CardMeta is character identity as found in the document.
type CardMeta struct {
	Name      string
	Player    string
	Blurb     string
	Portrait  string
	Level     *int
	LevelText string

	Species string
	Class   string
	Home    string
	Status  string
}

// DefaultMeta returns card with every field at its default and name taken
// from the fallback.
func DefaultMeta(fallbackTitle string) CardMeta {
	return CardMeta{
		Name:   nameOr(fallbackTitle),
		Player: NoValue,
	}
}

func nameOr(candidates ...string) string {
	for _, c := range candidates {
		if c = Normalize(c); c != "" {
			return c
		}
	}
	return UntitledName
}

// Pair is a labeled value.
type Pair struct {
	Label string
	Value string
}

// Ability is one column of the ability scores grid.
type Ability struct {
	Abbr  string
	Score string
	Mod   string
}

// Section is a typed sheet record. Pairs are used by quick stats and key/value
// sections, Abilities by ability grid.
type Section struct {
	Kind      Kind
	Title     string
	Pairs     []Pair
	Abilities []Ability
}

var abilityRe = regexp.MustCompile(`^(\d+)\s*\(([-+]\d+)\)\s*$`)

// ParseAbility splits "16 (+3)" into score and modifier. Anything else is kept
// whole as score with empty modifier.
func ParseAbility(abbr, cell string) Ability {
	cell = Normalize(cell)
	if m := abilityRe.FindStringSubmatch(cell); m != nil {
		return Ability{Abbr: abbr, Score: m[1], Mod: m[2]}
	}
	return Ability{Abbr: abbr, Score: cell}
}

// ExtractSection produces typed record for classified table. It reports false
// for identity cards and unclassified tables which are not sheet sections.
func ExtractSection(t *Table, c Classification) (Section, bool) {
	switch c.Kind {
	case QuickStats:
		return Section{Kind: QuickStats, Title: QuickStatsTitle, Pairs: quickStatsPairs(t)}, true
	case AbilityGrid:
		return Section{Kind: AbilityGrid, Title: AbilitiesTitle, Abilities: abilities(t)}, true
	case KeyValueSection:
		title := c.Title
		if title == "" {
			title = DefaultSectionTitle
		}
		return Section{Kind: KeyValueSection, Title: title, Pairs: keyValuePairs(t)}, true
	}
	return Section{}, false
}

// quick stats rows are [k, v, k, v, ...]
func quickStatsPairs(t *Table) []Pair {
	var out []Pair
	for _, row := range t.Body {
		for i := 0; i+1 < len(row); i += 2 {
			if k := row[i].Label(); k != "" {
				out = append(out, Pair{Label: k, Value: row[i+1].Text})
			}
		}
	}
	return out
}

func abilities(t *Table) []Ability {
	headers := t.HeaderLabels()
	var values []string
	for _, row := range t.Body {
		for _, c := range row {
			values = append(values, c.Text)
		}
	}
	n := min(len(headers), len(values))
	out := make([]Ability, 0, n)
	for i := range n {
		out = append(out, ParseAbility(headers[i], values[i]))
	}
	return out
}

func keyValuePairs(t *Table) []Pair {
	var out []Pair
	for _, row := range t.Body {
		if len(row) != 2 {
			continue
		}
		if k := row[0].Label(); k != "" {
			out = append(out, Pair{Label: k, Value: row[1].Text})
		}
	}
	return out
}

// ExtractCard reads identity card table. Every row with at least two cells
// maps its folded first cell to the second one, later rows win.
func ExtractCard(t *Table, fallbackTitle string) CardMeta {
	cells := make(map[string]Cell)
	for _, row := range t.Rows() {
		if len(row) < 2 {
			continue
		}
		if label := Fold(row[0].Text); label != "" {
			cells[label] = row[1]
		}
	}
	text := func(label string) string { return cells[label].Text }

	meta := CardMeta{
		Name:      nameOr(text("character name"), fallbackTitle),
		Player:    text("player name"),
		Blurb:     text("blurb"),
		Portrait:  cells["portrait"].Image,
		LevelText: text("level"),
		Species:   text("species"),
		Class:     text("class / role"),
		Home:      text("home / faction"),
		Status:    text("status"),
	}
	if meta.Player == "" {
		meta.Player = NoValue
	}
	meta.Level = ParseLevel(meta.LevelText)
	return meta
}

// ParseLevel reads leading integer: optional sign followed by digits, rest of
// the text is ignored ("3 (Fighter)" is 3). Returns nil when there are no
// leading digits.
func ParseLevel(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &v
}
