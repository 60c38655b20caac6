// Package adapter converts parsed scripture documents into optimized chapters.
//
// Token classification done here is the only source of truth for token kinds:
// whatever the upstream parser tagged an object as, its text is re-classified
// with ir.Classify. Word-alignment milestones are flattened and their
// original-language words become semantic IDs on the enclosed target words.
package adapter

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/core/semantic"
)

// idLength is the number of hex characters kept from a token hash.
const idLength = 16

// Convert validates d and converts it into optimized chapters.
func Convert(d *doc.Document) ([]ir.Chapter, error) {
	if d == nil {
		return nil, errors.NewValidation("document", "document is nil")
	}
	if errs := doc.Validate(d); len(errs) > 0 {
		return nil, errs[0]
	}

	chapters := make([]ir.Chapter, 0, len(d.Chapters))
	for _, ch := range d.Chapters {
		out := ir.Chapter{Number: ch.Number, Verses: make([]ir.Verse, 0, len(ch.Verses))}
		for _, v := range ch.Verses {
			out.Verses = append(out.Verses, convertVerse(d.Book.Code, ch.Number, v))
		}
		chapters = append(chapters, out)
	}
	return chapters, nil
}

// verseBuilder accumulates the tokens of one verse.
type verseBuilder struct {
	book    string
	chapter int
	verse   int
	tokens  []ir.Token
	// keys counts hash keys so repeated words get distinct IDs.
	keys map[string]int
	// occurrences counts normalized word text.
	occurrences map[string]int
}

func convertVerse(book string, chapter int, v doc.Verse) ir.Verse {
	// Validate has already accepted the number.
	start, end, _ := doc.ParseVerseNumber(v.Number)

	b := &verseBuilder{
		book:        book,
		chapter:     chapter,
		verse:       start,
		keys:        make(map[string]int),
		occurrences: make(map[string]int),
	}
	b.addObjects(v.Objects, nil)

	return ir.Verse{
		Number:    start,
		EndNumber: end,
		Text:      ir.JoinText(b.tokens),
		Tokens:    b.tokens,
	}
}

func (b *verseBuilder) ref() ir.VerseRef {
	return ir.VerseRef{Book: b.book, Chapter: b.chapter, Verse: b.verse}
}

// addObjects walks objects, carrying the semantic IDs of enclosing alignment
// milestones.
func (b *verseBuilder) addObjects(objects []doc.Object, aligned []string) {
	for i := range objects {
		o := &objects[i]
		switch o.Type {
		case doc.ObjectMilestone:
			ids := aligned
			if o.Tag == doc.MilestoneAlign {
				ids = append(append([]string(nil), aligned...), b.milestoneIDs(o)...)
			}
			b.addObjects(o.Children, ids)
		case doc.ObjectWord:
			b.addWord(o, aligned)
		default:
			b.addText(o.Text)
		}
	}
}

// milestoneIDs returns one semantic ID per original word named by a milestone.
func (b *verseBuilder) milestoneIDs(o *doc.Object) []string {
	occurrence, err := strconv.Atoi(o.Attr(doc.AttrOccurrence))
	if err != nil || occurrence < 1 {
		occurrence = 1
	}
	var ids []string
	for _, w := range strings.Fields(o.Attr(doc.AttrContent)) {
		ids = append(ids, semantic.ID(w, b.ref(), occurrence))
	}
	return ids
}

func (b *verseBuilder) addWord(o *doc.Object, aligned []string) {
	strong, lemma, morph := o.Metadata()
	tok := ir.Token{
		Text:   o.Text,
		Kind:   ir.Classify(o.Text),
		Strong: strong,
		Lemma:  lemma,
		Morph:  morph,
	}
	if tok.IsWord() {
		tok.AlignedOriginalWordIDs = mergeIDs(aligned, o.AlignedOriginalWordIDs)
	}
	b.push(tok, o.ID)
}

func (b *verseBuilder) addText(text string) {
	for _, tok := range ir.Tokenize(text) {
		b.push(tok, "")
	}
}

func (b *verseBuilder) push(tok ir.Token, externalID string) {
	tok.Position = len(b.tokens)
	tok.Chapter = b.chapter
	tok.Verse = b.verse
	if tok.IsWord() {
		key := quote.Normalize(tok.Text)
		b.occurrences[key]++
		tok.Occurrence = b.occurrences[key]
	}
	tok.ID = externalID
	if tok.ID == "" {
		tok.ID = b.deriveID(tok)
	}
	b.tokens = append(b.tokens, tok)
}

// deriveID hashes the token's identifying fields. Non-word tokens have no
// stable key and use their position.
func (b *verseBuilder) deriveID(tok ir.Token) string {
	if !tok.IsWord() {
		return strconv.Itoa(b.chapter) + ":" + strconv.Itoa(b.verse) + ":" + strconv.Itoa(tok.Position)
	}
	key := strings.Join([]string{
		b.book, strconv.Itoa(b.chapter), strconv.Itoa(b.verse),
		tok.Strong, tok.Lemma, tok.Text,
	}, "|")
	b.keys[key]++
	sum := blake3.Sum256([]byte(key + "|" + strconv.Itoa(b.keys[key])))
	return hex.EncodeToString(sum[:])[:idLength]
}

// mergeIDs concatenates milestone and explicit IDs, canonicalizing the explicit
// ones and dropping duplicates.
func mergeIDs(aligned, explicit []string) []string {
	if len(aligned) == 0 && len(explicit) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(aligned)+len(explicit))
	out := make([]string, 0, len(aligned)+len(explicit))
	for _, id := range aligned {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range explicit {
		id = semantic.Canonical(id)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
