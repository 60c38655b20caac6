// Package semantic generates the canonical cross-stream join keys for tokens.
//
// A semantic ID has the form "{book-lowercase} {chapter}:{verse}:{text}:{occurrence}",
// e.g. "tit 1:1:Παῦλος:1". Identical inputs always produce identical strings, so
// original-language and target-language token streams that were parsed
// independently can be joined without shared object identity.
package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
)

// ID returns the semantic ID for text at ref with the given occurrence.
// Text is NFC-normalized so precomposed and decomposed input agree.
func ID(text string, ref ir.VerseRef, occurrence int) string {
	return ref.String() + ":" + norm.NFC.String(text) + ":" + strconv.Itoa(occurrence)
}

// ForToken returns the semantic ID for a token.
func ForToken(tok ir.Token, ref ir.VerseRef, occurrence int) string {
	return ID(tok.Text, ref, occurrence)
}

// ForQuoteTokens returns one semantic ID per quote token, in quote order.
//
// A single-token quote trusts the row's declared baseOccurrence. Upstream data
// states occurrence for the quotation as a whole, so multi-token quotes use each
// token's verse-wide occurrence as computed by the matcher. A baseOccurrence
// below 1 falls back to the token's own occurrence.
func ForQuoteTokens(tokens []ir.Token, book string, chapter, verse, baseOccurrence int) []string {
	ref := ir.VerseRef{Book: book, Chapter: chapter, Verse: verse}
	if len(tokens) == 1 && baseOccurrence >= 1 {
		return []string{ForToken(tokens[0], ref, baseOccurrence)}
	}

	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		ids = append(ids, ForToken(tok, ref, tok.Occurrence))
	}
	return ids
}

// ForMatch returns the semantic IDs for a matcher result. Each token is keyed
// by the verse it was found in and by its occurrence within that verse, so
// quotes over a verse range work. baseOccurrence counts across the whole
// range and is used only when a token carries no occurrence of its own.
func ForMatch(res quote.Result, book string, baseOccurrence int) []string {
	if !res.Success || len(res.Tokens) == 0 {
		return nil
	}

	ids := make([]string, 0, len(res.Tokens))
	for _, m := range res.Tokens {
		occ := m.Occurrence
		if occ < 1 && len(res.Tokens) == 1 {
			occ = baseOccurrence
		}
		ref := ir.VerseRef{Book: book, Chapter: m.Chapter, Verse: m.Verse}
		ids = append(ids, ForToken(m.Token, ref, occ))
	}
	return ids
}

// Parts is a decoded semantic ID.
type Parts struct {
	Ref        ir.VerseRef
	Text       string
	Occurrence int
}

// String re-encodes the parts.
func (p Parts) String() string {
	return ID(p.Text, p.Ref, p.Occurrence)
}

// Parse decodes a semantic ID.
func Parse(id string) (Parts, error) {
	book, rest, ok := strings.Cut(id, " ")
	if !ok || book == "" {
		return Parts{}, fmt.Errorf("semantic id %q: missing book", id)
	}

	fields := strings.SplitN(rest, ":", 3)
	if len(fields) != 3 {
		return Parts{}, fmt.Errorf("semantic id %q: expected chapter:verse:text:occurrence", id)
	}
	chapter, err := strconv.Atoi(fields[0])
	if err != nil {
		return Parts{}, fmt.Errorf("semantic id %q: invalid chapter", id)
	}
	verse, err := strconv.Atoi(fields[1])
	if err != nil {
		return Parts{}, fmt.Errorf("semantic id %q: invalid verse", id)
	}

	i := strings.LastIndex(fields[2], ":")
	if i <= 0 {
		return Parts{}, fmt.Errorf("semantic id %q: missing occurrence", id)
	}
	occurrence, err := strconv.Atoi(fields[2][i+1:])
	if err != nil {
		return Parts{}, fmt.Errorf("semantic id %q: invalid occurrence", id)
	}

	return Parts{
		Ref:        ir.VerseRef{Book: strings.ToLower(book), Chapter: chapter, Verse: verse},
		Text:       fields[2][:i],
		Occurrence: occurrence,
	}, nil
}

// Canonical returns id re-encoded in canonical form. IDs that do not parse are
// returned unchanged.
func Canonical(id string) string {
	p, err := Parse(strings.TrimSpace(id))
	if err != nil {
		return id
	}
	return p.String()
}

// Set builds a lookup set from ids.
func Set(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
