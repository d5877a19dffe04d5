package sheet

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Armor Class \n", "Armor Class"},
		{"a\t\tb", "a b"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	if got, want := Fold(" Saving THROWS "), "saving throws"; got != want {
		t.Errorf("Fold() = %q, want %q", got, want)
	}
}

func TestNewTable(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		head, body int
	}{
		{"explicit thead", `<table><thead><tr><th>a</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`, 1, 1},
		{"header row promoted", `<table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>`, 1, 1},
		{"single header row stays data", `<table><tr><th>a</th><th>b</th></tr></table>`, 0, 1},
		{"mixed first row stays data", `<table><tr><th>a</th><td>b</td></tr><tr><td>1</td><td>2</td></tr></table>`, 0, 2},
		{"nested table rows excluded", `<table><tr><td><table><tr><td>x</td></tr><tr><td>y</td></tr></table></td></tr></table>`, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := firstTable(t, tt.src)
			if len(tbl.Head) != tt.head || len(tbl.Body) != tt.body {
				t.Errorf("NewTable() head/body = %d/%d, want %d/%d", len(tbl.Head), len(tbl.Body), tt.head, tt.body)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tbl := firstTable(t, `<table><tr><td><strong></strong><b> Skills </b> and more</td><td><img src=" /a.png "></td></tr></table>`)
	row := tbl.FirstDataRow()
	if !row[0].IsBold() {
		t.Error("IsBold() = false, want true")
	}
	if got := row[0].Label(); got != "Skills" {
		t.Errorf("Label() = %q, want %q", got, "Skills")
	}
	if got := row[1].Image; got != "/a.png" {
		t.Errorf("Image = %q, want %q", got, "/a.png")
	}
	if row[1].IsBold() {
		t.Error("IsBold() = true for cell without bold markup")
	}
}

func TestPrecedingHeading(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"adjacent", `<h2>Gear</h2><table><tr><td>x</td></tr></table>`, "Gear"},
		{"whitespace and comments", "<h5> Spells </h5>\n<!-- x -->\n  <table><tr><td>x</td></tr></table>", "Spells"},
		{"paragraph between", `<h2>Gear</h2><p>text</p><table><tr><td>x</td></tr></table>`, ""},
		{"text between", `<h2>Gear</h2>loose text<table><tr><td>x</td></tr></table>`, ""},
		{"first in body", `<table><tr><td>x</td></tr></table>`, ""},
		{"wrapped in figure", `<h4>Feats</h4><figure class="table"><table><tr><td>x</td></tr></table></figure>`, "Feats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := firstTable(t, tt.src)
			node, got := PrecedingHeading(Container(tbl.Node))
			if got != tt.want {
				t.Errorf("PrecedingHeading() = %q, want %q", got, tt.want)
			}
			if (node != nil) != (tt.want != "") {
				t.Errorf("PrecedingHeading() node = %v, want presence %v", node, tt.want != "")
			}
		})
	}
}

func TestContainer(t *testing.T) {
	tbl := firstTable(t, `<figure class="table image"><table><tr><td>x</td></tr></table></figure>`)
	if c := Container(tbl.Node); c.Data != "figure" {
		t.Errorf("Container() = <%s>, want <figure>", c.Data)
	}
	tbl = firstTable(t, `<figure class="image"><table><tr><td>x</td></tr></table></figure>`)
	if c := Container(tbl.Node); c != tbl.Node {
		t.Errorf("Container() = <%s>, want table itself", c.Data)
	}
}
