package adapter

import (
	"errors"
	"testing"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	herrors "github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
)

func titus(objects ...doc.Object) *doc.Document {
	return &doc.Document{
		Book: doc.Book{Code: "TIT"},
		Chapters: []doc.Chapter{
			{Number: 1, Verses: []doc.Verse{{Number: "1", Objects: objects}}},
		},
	}
}

func TestConvertClassification(t *testing.T) {
	d := titus(
		doc.Object{Type: doc.ObjectWord, Text: "Παῦλος"},
		// Upstream tagged punctuation as a word.
		doc.Object{Type: doc.ObjectWord, Text: ","},
		doc.Object{Type: doc.ObjectText, Text: " "},
		// Upstream tagged a word as text.
		doc.Object{Type: doc.ObjectText, Text: "δοῦλος"},
		doc.Object{Type: doc.ObjectPunctuation, Text: "  "},
	)

	chapters, err := Convert(d)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	tokens := chapters[0].Verses[0].Tokens
	want := []ir.TokenKind{ir.KindWord, ir.KindPunctuation, ir.KindWhitespace, ir.KindWord, ir.KindWhitespace}
	if len(tokens) != len(want) {
		t.Fatalf("len(tokens) = %d, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Errorf("tokens[%d] (%q).Kind = %q, want %q", i, tokens[i].Text, tokens[i].Kind, k)
		}
		if tokens[i].Position != i {
			t.Errorf("tokens[%d].Position = %d", i, tokens[i].Position)
		}
		if tokens[i].Chapter != 1 || tokens[i].Verse != 1 {
			t.Errorf("tokens[%d] location = %d:%d", i, tokens[i].Chapter, tokens[i].Verse)
		}
	}
	if got := chapters[0].Verses[0].Text; got != "Παῦλος, δοῦλος  " {
		t.Errorf("Verse.Text = %q", got)
	}
}

func TestConvertMetadata(t *testing.T) {
	d := titus(
		doc.Object{Type: doc.ObjectWord, Text: "Παῦλος", Strong: "G39720", Lemma: "Παῦλος", Morph: "Gr,N,,,,,NMS,"},
		doc.Object{Type: doc.ObjectWord, Text: "δοῦλος", Strong: "flat", Alignment: &doc.Alignment{Strong: "G14010", Lemma: "δοῦλος", Morph: "Gr,N,,,,,NMS,"}},
	)

	chapters, err := Convert(d)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	tokens := chapters[0].Verses[0].Tokens
	if tokens[0].Strong != "G39720" || tokens[0].Morph != "Gr,N,,,,,NMS," {
		t.Errorf("flat metadata not carried: %+v", tokens[0])
	}
	if tokens[1].Strong != "G14010" || tokens[1].Lemma != "δοῦλος" {
		t.Errorf("nested metadata not carried: %+v", tokens[1])
	}
}

func TestConvertMilestones(t *testing.T) {
	d := titus(
		doc.Object{
			Type: doc.ObjectMilestone, Tag: doc.MilestoneAlign,
			Attributes: map[string]string{doc.AttrContent: "Παῦλος", doc.AttrOccurrence: "1"},
			Children:   []doc.Object{{Type: doc.ObjectWord, Text: "Paul"}},
		},
		doc.Object{Type: doc.ObjectText, Text: ", "},
		doc.Object{
			Type: doc.ObjectMilestone, Tag: doc.MilestoneAlign,
			Attributes: map[string]string{doc.AttrContent: "δοῦλος", doc.AttrOccurrence: "1"},
			Children: []doc.Object{
				{
					Type: doc.ObjectMilestone, Tag: doc.MilestoneAlign,
					Attributes: map[string]string{doc.AttrContent: "Θεοῦ", doc.AttrOccurrence: "2"},
					Children: []doc.Object{
						{Type: doc.ObjectWord, Text: "servant"},
						{Type: doc.ObjectWord, Text: "of", AlignedOriginalWordIDs: []string{"TIT 1:1:Θεοῦ:2", "tit 1:1:extra:1"}},
					},
				},
			},
		},
	)

	chapters, err := Convert(d)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	tokens := chapters[0].Verses[0].Tokens

	byText := make(map[string]ir.Token)
	for _, tok := range tokens {
		byText[tok.Text] = tok
	}

	if ids := byText["Paul"].AlignedOriginalWordIDs; len(ids) != 1 || ids[0] != "tit 1:1:Παῦλος:1" {
		t.Errorf("Paul ids = %v", ids)
	}
	if ids := byText["servant"].AlignedOriginalWordIDs; len(ids) != 2 || ids[0] != "tit 1:1:δοῦλος:1" || ids[1] != "tit 1:1:Θεοῦ:2" {
		t.Errorf("servant ids = %v", ids)
	}
	if ids := byText["of"].AlignedOriginalWordIDs; len(ids) != 3 || ids[2] != "tit 1:1:extra:1" {
		t.Errorf("of ids = %v, want milestone ids plus canonical explicit ids without duplicates", ids)
	}
	if ids := byText[","].AlignedOriginalWordIDs; len(ids) != 0 {
		t.Errorf("punctuation carries ids %v", ids)
	}
}

func TestConvertTokenIDs(t *testing.T) {
	d := titus(
		doc.Object{Type: doc.ObjectWord, Text: "καὶ", ID: "ext-1"},
		doc.Object{Type: doc.ObjectText, Text: " "},
		doc.Object{Type: doc.ObjectWord, Text: "καὶ"},
		doc.Object{Type: doc.ObjectText, Text: " "},
		doc.Object{Type: doc.ObjectWord, Text: "καὶ"},
	)

	first, err := Convert(d)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	second, _ := Convert(d)

	tokens := first[0].Verses[0].Tokens
	if tokens[0].ID != "ext-1" {
		t.Errorf("external ID not kept: %q", tokens[0].ID)
	}
	if tokens[2].ID == tokens[4].ID {
		t.Error("repeated words share a derived ID")
	}
	if len(tokens[2].ID) != idLength {
		t.Errorf("derived ID %q has length %d", tokens[2].ID, len(tokens[2].ID))
	}
	if tokens[1].ID != "1:1:1" {
		t.Errorf("whitespace ID = %q, want positional 1:1:1", tokens[1].ID)
	}
	for i := range tokens {
		if tokens[i].ID != second[0].Verses[0].Tokens[i].ID {
			t.Errorf("token %d ID not deterministic", i)
		}
	}

	for i, want := range []int{1, 0, 2, 0, 3} {
		if tokens[i].Occurrence != want {
			t.Errorf("tokens[%d].Occurrence = %d, want %d", i, tokens[i].Occurrence, want)
		}
	}
}

func TestConvertVerseBridge(t *testing.T) {
	d := &doc.Document{
		Book: doc.Book{Code: "TIT"},
		Chapters: []doc.Chapter{{Number: 3, Verses: []doc.Verse{
			{Number: "4-5", Objects: []doc.Object{{Type: doc.ObjectText, Text: "word"}}},
		}}},
	}
	chapters, err := Convert(d)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	v := chapters[0].Verses[0]
	if v.Number != 4 || v.EndNumber != 5 {
		t.Errorf("verse = %d-%d, want 4-5", v.Number, v.EndNumber)
	}
	if chapters[0].Verse(5) == nil {
		t.Error("bridge does not cover verse 5")
	}
}

func TestConvertRejectsInvalid(t *testing.T) {
	if _, err := Convert(nil); !errors.Is(err, herrors.ErrInvalidInput) {
		t.Errorf("Convert(nil) error = %v", err)
	}
	if _, err := Convert(&doc.Document{}); !errors.Is(err, herrors.ErrInvalidInput) {
		t.Errorf("Convert(no book) error = %v", err)
	}
}
