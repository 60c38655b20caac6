package ir

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want TokenKind
	}{
		{" ", KindWhitespace},
		{"\n\t", KindWhitespace},
		{",", KindPunctuation},
		{"—", KindPunctuation},
		{"׃", KindPunctuation},
		{"־", KindPunctuation},
		{"Παῦλος", KindWord},
		{"בְּרֵאשִׁ֖ית", KindWord},
		{"12", KindWord},
		{"word,", KindWord},
		{"", KindText},
	}

	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Run("english", func(t *testing.T) {
		tokens := Tokenize("Paul, a servant don't")
		want := []struct {
			text string
			kind TokenKind
		}{
			{"Paul", KindWord},
			{",", KindPunctuation},
			{" ", KindWhitespace},
			{"a", KindWord},
			{" ", KindWhitespace},
			{"servant", KindWord},
			{" ", KindWhitespace},
			{"don't", KindWord},
		}
		if len(tokens) != len(want) {
			t.Fatalf("len(tokens) = %d, want %d: %+v", len(tokens), len(want), tokens)
		}
		for i, w := range want {
			if tokens[i].Text != w.text || tokens[i].Kind != w.kind {
				t.Errorf("tokens[%d] = {%q %q}, want {%q %q}", i, tokens[i].Text, tokens[i].Kind, w.text, w.kind)
			}
			if tokens[i].Position != i {
				t.Errorf("tokens[%d].Position = %d", i, tokens[i].Position)
			}
		}
	})

	t.Run("hebrew maqaf splits words", func(t *testing.T) {
		tokens := Tokenize("עַל־פְּנֵי")
		if len(tokens) != 3 {
			t.Fatalf("len(tokens) = %d, want 3: %+v", len(tokens), tokens)
		}
		if tokens[1].Kind != KindPunctuation {
			t.Errorf("maqaf kind = %q, want punctuation", tokens[1].Kind)
		}
	})

	t.Run("consecutive punctuation", func(t *testing.T) {
		tokens := Tokenize("“word.”")
		if len(tokens) != 4 {
			t.Fatalf("len(tokens) = %d, want 4: %+v", len(tokens), tokens)
		}
	})

	t.Run("round trip text", func(t *testing.T) {
		text := "Παῦλος, δοῦλος Θεοῦ, ἀπόστολος δὲ"
		if got := JoinText(Tokenize(text)); got != text {
			t.Errorf("JoinText(Tokenize()) = %q, want %q", got, text)
		}
	})
}

func TestTokenJSON(t *testing.T) {
	token := Token{
		ID:                     "t1",
		Text:                   "Paul",
		Kind:                   KindWord,
		AlignedOriginalWordIDs: []string{"tit 1:1:Παῦλος:1"},
	}

	data, err := json.Marshal(token)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if _, ok := raw["alignedOriginalWordIds"]; !ok {
		t.Errorf("missing alignedOriginalWordIds key in %s", data)
	}
}

func TestTokenAlignedTo(t *testing.T) {
	tok := Token{Kind: KindWord, AlignedOriginalWordIDs: []string{"a", "b"}}
	if !tok.AlignedTo(map[string]bool{"b": true}) {
		t.Error("AlignedTo returned false for shared ID")
	}
	if tok.AlignedTo(map[string]bool{"c": true}) {
		t.Error("AlignedTo returned true for disjoint IDs")
	}
}

func TestChapterVerseLookup(t *testing.T) {
	ch := Chapter{
		Number: 1,
		Verses: []Verse{{Number: 1}, {Number: 2, EndNumber: 3}, {Number: 4}},
	}

	if v := ch.Verse(3); v == nil || v.Number != 2 {
		t.Errorf("Verse(3) = %+v, want bridge 2-3", v)
	}
	if v := ch.Verse(5); v != nil {
		t.Errorf("Verse(5) = %+v, want nil", v)
	}
	if c := FindChapter([]Chapter{ch}, 2); c != nil {
		t.Errorf("FindChapter(2) = %+v, want nil", c)
	}
}
