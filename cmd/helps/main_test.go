package main

import (
	"testing"

	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/internal/config"
	"github.com/FocuswithJustin/JuniperHelps/internal/coord"
)

func TestBookFromName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"tn_TIT.tsv", "TIT"},
		{"/data/en_tn/twl_1JN.tsv", "1JN"},
		{"57-tit.tsv", "TIT"},
		{"notes.tsv", ""},
	}
	for _, tt := range tests {
		if got := bookFromName(tt.path); got != tt.want {
			t.Errorf("bookFromName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMatcherOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Matcher.ReorderWindow = 4
	cfg.Resources = []config.ResourceConfig{
		{Key: "hbo/uhb", Role: config.RoleOriginal, Direction: "rtl"},
	}

	opts := matcherOptions(cfg, "hbo/uhb", "")
	if opts.Direction != quote.DirectionRTL || opts.ReorderWindow != 4 {
		t.Errorf("uhb options = %+v", opts)
	}
	if opts := matcherOptions(cfg, "hbo/uhb", "ltr"); opts.Direction != quote.DirectionLTR {
		t.Errorf("flag should override the resource direction, got %+v", opts)
	}
	if opts := matcherOptions(cfg, "unknown", ""); opts.Direction != quote.DirectionAuto {
		t.Errorf("unknown resource options = %+v", opts)
	}
}

func TestChapterSnapshot(t *testing.T) {
	target := []ir.Chapter{
		{Number: 1, Verses: []ir.Verse{
			{Number: 1, Tokens: []ir.Token{{Text: "Paul", Kind: ir.KindWord, Chapter: 1, Verse: 1}}},
			{Number: 2, Tokens: []ir.Token{{Text: "in", Kind: ir.KindWord, Chapter: 1, Verse: 2}}},
		}},
	}

	snap := chapterSnapshot("TIT", target, 1, "en/ult")
	if len(snap.Tokens) != 2 || snap.Reference.Chapter != 1 || snap.Resource.ID != "en/ult" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.Covers("TIT", 1, 2) {
		t.Error("snapshot should cover TIT 1:2")
	}

	if snap := chapterSnapshot("TIT", target, 3, "en/ult"); !snap.Cleared() {
		t.Errorf("missing chapter should give a cleared snapshot, got %+v", snap)
	}
}

func TestEngineFactory(t *testing.T) {
	cfg := config.Default()
	cfg.Resources = []config.ResourceConfig{
		{Key: "el-x-koine/ugnt", Role: config.RoleOriginal, Testament: config.NewTestament},
	}
	newEngine := engineFactory(cfg, nil, coord.NewBus())

	e, err := newEngine("TIT")
	if err != nil {
		t.Fatalf("engine for TIT: %v", err)
	}
	if e.Book() != "TIT" {
		t.Errorf("Book() = %q", e.Book())
	}
	if _, err := newEngine("GEN"); err == nil {
		t.Error("engine for GEN should fail without an Old Testament original")
	}
}
