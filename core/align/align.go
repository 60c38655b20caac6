// Package align resolves matched original-language semantic IDs into a
// displayable span of target-language tokens.
package align

import (
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/core/semantic"
)

// Gap is the content of a synthetic elision token.
const Gap = "…"

// Segment is one element of an aligned span.
type Segment struct {
	Content    string       `json:"content"`
	SemanticID string       `json:"semanticId,omitempty"`
	Position   int          `json:"position"`
	Kind       ir.TokenKind `json:"kind"`
}

// Find returns the target-language span aligned to originalIDs at ref.
//
// A target token matches when it is a word whose AlignedOriginalWordIDs share
// an ID with originalIDs. Between two adjacent matches, interior punctuation
// and whitespace are kept verbatim; if any interior token is a word the whole
// interior collapses into one Gap segment. Zero matches yield an empty span.
//
// Target tokens that carry a chapter or verse other than ref are ignored, so a
// chapter-wide stream can be passed as is. A zero ref.Verse keeps the whole
// chapter.
func Find(target []ir.Token, originalIDs []string, ref ir.VerseRef) []Segment {
	if len(target) == 0 || len(originalIDs) == 0 {
		return []Segment{}
	}
	ids := semantic.Set(originalIDs)

	occurrence := make(map[int]int)
	seen := make(map[wordKey]int)
	var matches []int
	for i := range target {
		tok := &target[i]
		if !inScope(tok, ref) || !tok.IsWord() {
			continue
		}
		key := wordKey{chapter: tok.Chapter, verse: tok.Verse, text: quote.Normalize(tok.Text)}
		seen[key]++
		occurrence[i] = seen[key]
		if tok.AlignedTo(ids) {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return []Segment{}
	}

	span := make([]Segment, 0, len(matches)*2)
	for n, pos := range matches {
		if n > 0 {
			span = append(span, interior(target, matches[n-1], pos)...)
		}
		tok := target[pos]
		span = append(span, Segment{
			Content:    tok.Text,
			SemanticID: semantic.ForToken(tok, verseOf(tok, ref), occurrence[pos]),
			Position:   pos,
			Kind:       ir.KindWord,
		})
	}
	return span
}

// wordKey counts occurrences per verse, so a chapter-wide stream numbers each
// verse from one.
type wordKey struct {
	chapter, verse int
	text           string
}

// interior returns the segments strictly between two match positions.
func interior(target []ir.Token, from, to int) []Segment {
	if to-from <= 1 {
		return nil
	}
	region := target[from+1 : to]
	for _, tok := range region {
		if tok.IsWord() {
			return []Segment{{Content: Gap, Position: from + 1, Kind: ir.KindGap}}
		}
	}

	out := make([]Segment, 0, len(region))
	for i, tok := range region {
		kind := tok.Kind
		if kind != ir.KindWhitespace {
			kind = ir.KindPunctuation
		}
		out = append(out, Segment{Content: tok.Text, Position: from + 1 + i, Kind: kind})
	}
	return out
}

func inScope(tok *ir.Token, ref ir.VerseRef) bool {
	if tok.Chapter != 0 && ref.Chapter != 0 && tok.Chapter != ref.Chapter {
		return false
	}
	if tok.Verse != 0 && ref.Verse != 0 && tok.Verse != ref.Verse {
		return false
	}
	return true
}

// verseOf returns the reference a matched target word is keyed under.
func verseOf(tok ir.Token, ref ir.VerseRef) ir.VerseRef {
	out := ref
	if tok.Chapter != 0 {
		out.Chapter = tok.Chapter
	}
	if tok.Verse != 0 {
		out.Verse = tok.Verse
	}
	return out
}

// Text renders a span as display text.
func Text(span []Segment) string {
	var sb strings.Builder
	for _, seg := range span {
		if seg.Kind == ir.KindGap {
			sb.WriteString(" " + Gap + " ")
			continue
		}
		sb.WriteString(seg.Content)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// SemanticIDs returns the semantic IDs of the matched words in a span.
func SemanticIDs(span []Segment) []string {
	var ids []string
	for _, seg := range span {
		if seg.SemanticID != "" {
			ids = append(ids, seg.SemanticID)
		}
	}
	return ids
}
