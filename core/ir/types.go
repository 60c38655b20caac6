package ir

import (
	"fmt"
	"strings"
)

// TokenKind represents the kind of a token.
type TokenKind string

// Token kind constants.
const (
	KindWord        TokenKind = "word"
	KindPunctuation TokenKind = "punctuation"
	KindWhitespace  TokenKind = "whitespace"
	KindText        TokenKind = "text"
	// KindGap marks a synthetic elision placeholder in aligned output.
	KindGap TokenKind = "gap"
)

// validTokenKinds is the set of kinds a parsed token may carry.
var validTokenKinds = map[TokenKind]bool{
	KindWord:        true,
	KindPunctuation: true,
	KindWhitespace:  true,
	KindText:        true,
}

// IsValid returns true if the kind may appear on a content token.
func (k TokenKind) IsValid() bool {
	return validTokenKinds[k]
}

// Token is a single unit of verse content.
type Token struct {
	// ID is an internal identity. It is unrelated to the semantic ID.
	ID string `json:"id"`

	// Position is the index of the token within its verse (0-indexed).
	Position int `json:"position"`

	// Text is the display text.
	Text string `json:"text"`

	// Kind is the token classification.
	Kind TokenKind `json:"type"`

	// Chapter and Verse locate the token. Zero means unknown.
	Chapter int `json:"chapter,omitempty"`
	Verse   int `json:"verse,omitempty"`

	// Occurrence is the 1-based verse-wide occurrence of the token's normalized text.
	Occurrence int `json:"occurrence,omitempty"`

	// Strong is the Strong's number (e.g., "G39720").
	Strong string `json:"strong,omitempty"`

	// Lemma is the dictionary form.
	Lemma string `json:"lemma,omitempty"`

	// Morph is the morphological code.
	Morph string `json:"morph,omitempty"`

	// AlignedOriginalWordIDs lists the semantic IDs of the original-language
	// words this token translates. Target-language tokens only.
	AlignedOriginalWordIDs []string `json:"alignedOriginalWordIds,omitempty"`
}

// IsWord returns true if this token is a word token.
func (t *Token) IsWord() bool {
	return t.Kind == KindWord
}

// AlignedTo returns true if any aligned original word ID is in ids.
func (t *Token) AlignedTo(ids map[string]bool) bool {
	for _, id := range t.AlignedOriginalWordIDs {
		if ids[id] {
			return true
		}
	}
	return false
}

// Verse is a verse and its tokens.
type Verse struct {
	// Number is the verse number. For a bridge such as "3-4" it is 3.
	Number int `json:"number"`

	// EndNumber is the last verse of a bridge, or 0.
	EndNumber int `json:"end_number,omitempty"`

	// Text is the concatenated display text of all tokens.
	Text string `json:"text"`

	// Tokens are the verse tokens in reading order.
	Tokens []Token `json:"tokens"`
}

// Covers returns true if the verse (or verse bridge) includes verse n.
func (v *Verse) Covers(n int) bool {
	if v.EndNumber > v.Number {
		return n >= v.Number && n <= v.EndNumber
	}
	return v.Number == n
}

// Words returns the word tokens of the verse.
func (v *Verse) Words() []Token {
	var words []Token
	for _, t := range v.Tokens {
		if t.IsWord() {
			words = append(words, t)
		}
	}
	return words
}

// Chapter is a chapter and its verses.
type Chapter struct {
	Number int     `json:"number"`
	Verses []Verse `json:"verses"`
}

// Verse returns the verse covering n, or nil.
func (c *Chapter) Verse(n int) *Verse {
	for i := range c.Verses {
		if c.Verses[i].Covers(n) {
			return &c.Verses[i]
		}
	}
	return nil
}

// FindChapter returns the chapter with the given number, or nil.
func FindChapter(chapters []Chapter, number int) *Chapter {
	for i := range chapters {
		if chapters[i].Number == number {
			return &chapters[i]
		}
	}
	return nil
}

// VerseRef is a single verse coordinate.
type VerseRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// String returns the reference in semantic-ID form, e.g. "tit 1:1".
func (r VerseRef) String() string {
	return fmt.Sprintf("%s %d:%d", strings.ToLower(r.Book), r.Chapter, r.Verse)
}

// Range is a book plus an inclusive chapter:verse span.
type Range struct {
	Book         string `json:"book"`
	StartChapter int    `json:"start_chapter"`
	StartVerse   int    `json:"start_verse"`
	EndChapter   int    `json:"end_chapter"`
	EndVerse     int    `json:"end_verse"`
}

// SingleVerse returns a range covering exactly one verse.
func SingleVerse(ref VerseRef) Range {
	return Range{
		Book:         ref.Book,
		StartChapter: ref.Chapter,
		StartVerse:   ref.Verse,
		EndChapter:   ref.Chapter,
		EndVerse:     ref.Verse,
	}
}

// Start returns the first verse of the range.
func (r Range) Start() VerseRef {
	return VerseRef{Book: r.Book, Chapter: r.StartChapter, Verse: r.StartVerse}
}

// IsRange returns true if the range spans more than one verse.
func (r Range) IsRange() bool {
	return r.EndChapter != r.StartChapter || r.EndVerse != r.StartVerse
}

// Contains returns true if chapter:verse lies inside the range.
func (r Range) Contains(chapter, verse int) bool {
	if chapter < r.StartChapter || chapter > r.EndChapter {
		return false
	}
	if chapter == r.StartChapter && verse < r.StartVerse {
		return false
	}
	if chapter == r.EndChapter && verse > r.EndVerse {
		return false
	}
	return true
}

// String returns the reference as "c:v", "c:v-v" or "c:v-c:v".
func (r Range) String() string {
	switch {
	case !r.IsRange():
		return fmt.Sprintf("%d:%d", r.StartChapter, r.StartVerse)
	case r.StartChapter == r.EndChapter:
		return fmt.Sprintf("%d:%d-%d", r.StartChapter, r.StartVerse, r.EndVerse)
	default:
		return fmt.Sprintf("%d:%d-%d:%d", r.StartChapter, r.StartVerse, r.EndChapter, r.EndVerse)
	}
}
