package sheet

// Kind is the record shape a table was recognized as.
type Kind int

const (
	Unclassified Kind = iota
	IdentityCard
	QuickStats
	AbilityGrid
	KeyValueSection
)

func (k Kind) String() string {
	switch k {
	case IdentityCard:
		return "identity-card"
	case QuickStats:
		return "quick-stats"
	case AbilityGrid:
		return "ability-grid"
	case KeyValueSection:
		return "key-value"
	default:
		return "unclassified"
	}
}

// Classification is the result of table recognition. Title is only set for
// key/value sections.
type Classification struct {
	Kind             Kind
	Title            string
	TitleFromHeading bool
}

const (
	// CardMarker and CardVersion are the two leading cells of identity card
	// first row, compared case-insensitively.
	CardMarker  = "wag_card"
	CardVersion = "v1"

	DefaultSectionTitle = "Details"
)

var (
	quickStatsLabels = []string{"armor class", "initiative", "speed"}
	abilityLabels    = []string{"str", "dex", "con", "int", "wis", "cha"}
	statBlockLabels  = map[string]struct{}{
		"saving throws":          {},
		"skills":                 {},
		"senses":                 {},
		"languages":              {},
		"damage resistances":     {},
		"damage immunities":      {},
		"damage vulnerabilities": {},
		"condition immunities":   {},
		"melee":                  {},
		"ranged":                 {},
		"bonus action":           {},
		"reaction":               {},
		"once/rest":              {},
	}
)

// Classify determines which record shape table represents. Checks go in fixed
// priority order and first match wins, so result is always a single kind.
// precedingHeading is only used as key/value section title.
func Classify(t *Table, precedingHeading string) Classification {
	switch {
	case t == nil:
		return Classification{Kind: Unclassified}
	case isIdentityCard(t):
		return Classification{Kind: IdentityCard}
	case isQuickStats(t):
		return Classification{Kind: QuickStats}
	case isAbilityGrid(t):
		return Classification{Kind: AbilityGrid}
	case isKeyValueSection(t):
		c := Classification{Kind: KeyValueSection, Title: DefaultSectionTitle}
		if title := Normalize(precedingHeading); title != "" {
			c.Title, c.TitleFromHeading = title, true
		}
		return c
	}
	return Classification{Kind: Unclassified}
}

// marker row may be made of th cells and end up as header
func isIdentityCard(t *Table) bool {
	if len(t.Head) > 0 && isCardMarker(t.Head[0]) {
		return true
	}
	return isCardMarker(t.FirstDataRow())
}

func isCardMarker(row Row) bool {
	if len(row) < 2 {
		return false
	}
	return Fold(row[0].Text) == CardMarker && Fold(row[1].Text) == CardVersion
}

func isQuickStats(t *Table) bool {
	have := make(map[string]struct{})
	for _, c := range t.FirstDataRow() {
		for _, b := range c.Bold {
			have[Fold(b)] = struct{}{}
		}
	}
	for _, want := range quickStatsLabels {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

func isAbilityGrid(t *Table) bool {
	labels := t.HeaderLabels()
	if len(labels) != len(abilityLabels) {
		return false
	}
	have := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		have[Fold(l)] = struct{}{}
	}
	for _, want := range abilityLabels {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

func isKeyValueSection(t *Table) bool {
	if len(t.Body) == 0 {
		return false
	}
	statBlock := false
	for _, row := range t.Body {
		if len(row) != 2 || !row[0].IsBold() {
			return false
		}
		if _, ok := statBlockLabels[Fold(row[0].Label())]; ok {
			statBlock = true
		}
	}
	return statBlock
}
