package ir

import (
	"strings"
	"unicode"
)

// content.go - token classification and tokenization
// Note: Type definitions are in types.go

// Classify returns the kind of a text unit.
func Classify(text string) TokenKind {
	if text == "" {
		return KindText
	}
	if strings.TrimSpace(text) == "" {
		return KindWhitespace
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return KindWord
		}
	}
	return KindPunctuation
}

// runeClass returns the run class of a rune. Marks join the run they follow
// so that pointed Hebrew and accented Greek stay in one word.
func runeClass(r rune) TokenKind {
	switch {
	case unicode.IsSpace(r):
		return KindWhitespace
	case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
		return KindWord
	case r == '\'' || r == '’':
		// Apostrophe inside a word, e.g. "don't".
		return KindWord
	default:
		return KindPunctuation
	}
}

// Tokenize breaks text into word, whitespace and punctuation runs.
// Each punctuation rune becomes its own token; apostrophes only stay inside a
// word when they are followed by a letter.
func Tokenize(text string) []Token {
	var tokens []Token
	var sb strings.Builder
	var current TokenKind

	finishToken := func() {
		if sb.Len() > 0 {
			s := sb.String()
			tokens = append(tokens, Token{
				Position: len(tokens),
				Text:     s,
				Kind:     Classify(s),
			})
			sb.Reset()
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		class := runeClass(r)
		if (r == '\'' || r == '’') && (sb.Len() == 0 || current != KindWord ||
			i+1 >= len(runes) || !unicode.IsLetter(runes[i+1])) {
			class = KindPunctuation
		}
		if r == '־' {
			// Hebrew maqaf separates words.
			class = KindPunctuation
		}

		if sb.Len() > 0 && (class != current || class == KindPunctuation) {
			finishToken()
		}
		if sb.Len() == 0 {
			current = class
		}
		sb.WriteRune(r)
	}

	finishToken()
	return tokens
}

// JoinText concatenates token texts.
func JoinText(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
