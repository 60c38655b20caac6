// Package coord carries data between independently rendered views.
//
// The active reading view publishes a Snapshot of the chapter it displays on a
// Bus. Views that show translation helps read the latest snapshot to resolve
// aligned spans, and publish an Event when the user activates a quote so that
// any view holding matching semantic IDs can highlight itself.
package coord

import (
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/align"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
)

// Reference is the passage a snapshot displays. EndChapter and EndVerse are
// zero for a single location.
type Reference struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	Verse      int    `json:"verse"`
	EndChapter int    `json:"endChapter,omitempty"`
	EndVerse   int    `json:"endVerse,omitempty"`
}

// Resource describes the translation a snapshot was taken from.
type Resource struct {
	ID                string `json:"id"`
	Language          string `json:"language"`
	LanguageDirection string `json:"languageDirection,omitempty"`
}

// Snapshot is the token stream of the chapter currently displayed by the
// reading view. A new snapshot replaces the previous one entirely.
type Snapshot struct {
	Tokens    []ir.Token `json:"tokens"`
	Reference Reference  `json:"reference"`
	Resource  Resource   `json:"resourceMetadata"`
}

// Cleared reports whether the snapshot is the explicit "nothing displayed"
// state. A cleared snapshot is equivalent to no broadcast at all.
func (s Snapshot) Cleared() bool {
	return len(s.Tokens) == 0 || s.Reference.Book == ""
}

// Covers reports whether the snapshot holds tokens for book chapter:verse.
func (s Snapshot) Covers(book string, chapter, verse int) bool {
	if s.Cleared() || !strings.EqualFold(s.Reference.Book, book) {
		return false
	}
	last := s.Reference.EndChapter
	if last < s.Reference.Chapter {
		last = s.Reference.Chapter
	}
	if chapter < s.Reference.Chapter || chapter > last {
		return false
	}
	if verse == 0 {
		return true
	}

	// Tokens without locations are taken to span the whole chapter.
	located := false
	for i := range s.Tokens {
		tok := &s.Tokens[i]
		if tok.Verse == 0 {
			continue
		}
		located = true
		if tok.Verse == verse && (tok.Chapter == 0 || tok.Chapter == chapter) {
			return true
		}
	}
	return !located
}

// ResolveAligned returns the aligned span for originalIDs at ref using the
// latest snapshot on bus. When the snapshot does not cover ref the span is
// empty and the error is ErrStaleBroadcast.
func ResolveAligned(bus *Bus, originalIDs []string, ref ir.VerseRef) ([]align.Segment, error) {
	snap, ok := bus.Latest()
	if !ok || !snap.Covers(ref.Book, ref.Chapter, ref.Verse) {
		return nil, errors.ErrStaleBroadcast
	}
	return align.Find(snap.Tokens, originalIDs, ref), nil
}
