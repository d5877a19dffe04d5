package sheet

import (
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func firstTable(t *testing.T, src string) *Table {
	t.Helper()
	tables := FindTables(parseDoc(t, src))
	if len(tables) == 0 {
		t.Fatalf("no tables in %q", src)
	}
	return NewTable(tables[0])
}

const (
	cardTable = `<figure class="table"><table><tbody>
<tr><td>WAG_CARD</td><td>v1</td></tr>
<tr><td>Character Name</td><td>Zara  Quickfoot</td></tr>
<tr><td>Player Name</td><td>Pete</td></tr>
<tr><td>Level</td><td>3 (Rogue)</td></tr>
<tr><td>Portrait</td><td><img src="/img/zara.png"></td></tr>
<tr><td>Blurb</td><td>Halfling with sticky fingers.</td></tr>
<tr><td>Species</td><td>Halfling</td></tr>
<tr><td>Class / Role</td><td>Rogue</td></tr>
<tr><td>Home / Faction</td><td>Longmorn</td></tr>
<tr><td>Status</td><td>Active</td></tr>
</tbody></table></figure>`

	quickStatsTable = `<table><tr>
<td><strong>Armor Class</strong></td><td>15</td>
<td><strong>Initiative</strong></td><td>+2</td>
<td><strong>Speed</strong></td><td>30 ft</td>
</tr></table>`

	abilityTable = `<table>
<tr><th>STR</th><th>DEX</th><th>CON</th><th>INT</th><th>WIS</th><th>CHA</th></tr>
<tr><td>16 (+3)</td><td>12 (+1)</td><td>14 (+2)</td><td>8 (-1)</td><td>10 (+0)</td><td>—</td></tr>
</table>`

	keyValueTable = `<h3>Combat  Notes</h3>
<!-- editor comment -->
<table>
<tr><td><strong>Skills</strong></td><td>Athletics +5</td></tr>
<tr><td><strong>Senses</strong></td><td>Darkvision 60 ft</td></tr>
<tr><td><strong>Backstory</strong></td><td>Raised by wolves</td></tr>
</table>`
)
