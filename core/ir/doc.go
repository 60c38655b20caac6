// Package ir provides the optimized chapter/verse/token representation shared by the
// quote matcher, the alignment resolver and the cross-panel coordination layer.
//
// Token streams are produced fresh per book/chapter load and treated as immutable
// values. Two streams (original language and target language) never share object
// identity; they are joined through semantic IDs (see package semantic).
//
// # Core Types
//
//   - Chapter: a chapter number and its verses
//   - Verse: a verse (or verse bridge such as 3-4) and its tokens
//   - Token: a word, punctuation, whitespace or text unit
//   - VerseRef: a single book/chapter/verse coordinate
//   - Range: a book plus a start and end chapter:verse
//
// # Token Classification
//
// Classify is the single source of truth for token kinds:
//
//   - pure whitespace is whitespace
//   - text without any letter or digit is punctuation
//   - everything else is a word
//
// # Example
//
//	rng, err := ir.ParseReference("TIT", "1:1-3")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(rng.Contains(1, 2)) // true
package ir
