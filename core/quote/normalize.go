package quote

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/JuniperHelps/core/ir"
)

// Separator joins independent word groups within one quotation.
const Separator = " & "

// Ellipsis also separates word groups in older translation-helps data.
const Ellipsis = "…"

// apostrophes maps typographic apostrophes to ASCII.
var apostrophes = strings.NewReplacer("’", "'", "ʼ", "'", "‘", "'")

// ignorable reports runes dropped for comparison: nonspacing marks (Greek
// accents, Hebrew points and cantillation) and format characters such as
// zero-width joiners.
func ignorable(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Cf, r)
}

// Normalize returns the comparison form of s. It is only used for matching;
// tokens always keep their display text.
func Normalize(s string) string {
	// transform chains carry state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(ignorable)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(apostrophes.Replace(strings.TrimSpace(out)))
}

// Words splits text into normalized word units. Punctuation (including the
// Hebrew maqaf) and whitespace separate words and are dropped.
func Words(text string) []string {
	var words []string
	for _, tok := range ir.Tokenize(text) {
		if !tok.IsWord() {
			continue
		}
		if w := Normalize(tok.Text); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Parts splits a quotation into its independent word groups, in declared order.
// Empty groups are dropped.
func Parts(quoteText string) [][]string {
	var parts [][]string
	// Split on the bare ampersand so "A&B" and "A & B" agree.
	for _, group := range strings.Split(quoteText, strings.TrimSpace(Separator)) {
		for _, sub := range strings.Split(group, Ellipsis) {
			if words := Words(sub); len(words) > 0 {
				parts = append(parts, words)
			}
		}
	}
	return parts
}

// Direction is the reading direction of content.
type Direction int

// Direction constants.
const (
	DirectionAuto Direction = iota
	DirectionLTR
	DirectionRTL
)

// String returns "auto", "ltr" or "rtl".
func (d Direction) String() string {
	switch d {
	case DirectionLTR:
		return "ltr"
	case DirectionRTL:
		return "rtl"
	default:
		return "auto"
	}
}

// ParseDirection parses "ltr" or "rtl"; anything else is DirectionAuto.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr":
		return DirectionLTR
	case "rtl":
		return DirectionRTL
	default:
		return DirectionAuto
	}
}

// rtlScripts are scripts written right to left.
var rtlScripts = []*unicode.RangeTable{
	unicode.Hebrew,
	unicode.Arabic,
	unicode.Syriac,
	unicode.Thaana,
	unicode.Nko,
}

// DetectDirection returns the direction of the first letter found in text.
func DetectDirection(text string) Direction {
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.In(r, rtlScripts...) {
			return DirectionRTL
		}
		return DirectionLTR
	}
	return DirectionLTR
}
