package main

import (
	"testing"

	"github.com/peteklapka/wagipedia/gallery"
	"github.com/peteklapka/wagipedia/sheet"
)

func TestDryRunTemplateCard(t *testing.T) {
	doc, err := sheet.ParseString(gallery.Fill(dryRunTemplate, "Test Hero"))
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	meta, strategy := sheet.ExtractIdentityWith(doc, "Entry Title", sheet.DefaultStrategies...)
	if strategy != (sheet.CardTableStrategy{}).Name() {
		t.Errorf("identity read by %q, want card table", strategy)
	}
	if meta.Name != "Test Hero" {
		t.Errorf("Name = %q, want %q", meta.Name, "Test Hero")
	}
	if meta.Level == nil || *meta.Level != 1 {
		t.Errorf("Level = %v, want 1", meta.Level)
	}
	if meta.Player != sheet.NoValue {
		t.Errorf("Player = %q, want %q", meta.Player, sheet.NoValue)
	}
}
