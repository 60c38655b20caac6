package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidReference is returned for references that cannot be parsed.
var ErrInvalidReference = errors.New("invalid reference")

// referenceGrammar is the participle grammar for translation-helps references.
// Examples: "1:1", "1:1-3", "1:31-2:2"
//
//nolint:govet // participle grammar tags are not standard struct tags
type referenceGrammar struct {
	Chapter int       `@Int ":"`
	Verse   int       `@Int`
	End     *rangeEnd `( ( "-" | "–" ) @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type rangeEnd struct {
	Chapter *int `( @Int ":" )?`
	Verse   int  `@Int`
}

// referenceLexer defines the lexer for chapter:verse references.
var referenceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:\-–]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// referenceParser is the participle parser for chapter:verse references.
var referenceParser = participle.MustBuild[referenceGrammar](
	participle.Lexer(referenceLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseReference parses a chapter:verse reference within book.
// Supported formats:
//   - "1:1" (single verse)
//   - "1:1-3" (verse range)
//   - "1:31-2:2" (cross-chapter range)
func ParseReference(book, s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("%w: empty reference string", ErrInvalidReference)
	}

	parsed, err := referenceParser.ParseString("", s)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %v", ErrInvalidReference, s, err)
	}

	rng := Range{
		Book:         book,
		StartChapter: parsed.Chapter,
		StartVerse:   parsed.Verse,
		EndChapter:   parsed.Chapter,
		EndVerse:     parsed.Verse,
	}
	if parsed.End != nil {
		if parsed.End.Chapter != nil {
			rng.EndChapter = *parsed.End.Chapter
		}
		rng.EndVerse = parsed.End.Verse
	}

	if rng.StartChapter < 1 || rng.StartVerse < 1 {
		return Range{}, fmt.Errorf("%w: %q: chapter and verse must be positive", ErrInvalidReference, s)
	}
	if rng.EndChapter < rng.StartChapter ||
		(rng.EndChapter == rng.StartChapter && rng.EndVerse < rng.StartVerse) {
		return Range{}, fmt.Errorf("%w: %q: range ends before it starts", ErrInvalidReference, s)
	}

	return rng, nil
}
