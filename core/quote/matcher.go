// Package quote locates translation-helps quotations among original-language tokens.
//
// Matching compares normalized text (diacritics stripped, lower-cased) but always
// returns tokens with their display text. The matcher is a pure function of its
// inputs: it never mutates the chapters it reads and never panics on bad data.
// Every failure mode is reported as Result{Success: false}.
package quote

import (
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
)

// OccurrenceAll selects every occurrence of the quotation.
const OccurrenceAll = -1

// Options tunes matching.
type Options struct {
	// Direction forces a reading direction. DirectionAuto detects it from the
	// verse text.
	Direction Direction

	// ReorderWindow bounds right-to-left flexible matches to at most this many
	// verse words, first to last. Zero means unbounded.
	ReorderWindow int
}

// Match is a matched token and the verse it was found in.
type Match struct {
	ir.Token
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`
}

// Result is the outcome of a quote search.
type Result struct {
	Success bool    `json:"success"`
	Tokens  []Match `json:"tokens"`
}

// failed is the zero result for every failure mode.
func failed() Result {
	return Result{Success: false, Tokens: []Match{}}
}

// Texts returns the display text of each matched token.
func (r Result) Texts() []string {
	texts := make([]string, len(r.Tokens))
	for i, m := range r.Tokens {
		texts[i] = m.Text
	}
	return texts
}

// verseWords is the normalized word view of one verse.
type verseWords struct {
	chapter int
	verse   *ir.Verse
	// index holds positions into verse.Tokens of the word tokens.
	index []int
	// words holds the normalized text of each word token.
	words []string
	// occurrence holds the verse-wide occurrence of each word token.
	occurrence []int
}

// candidate is one way the quotation (or a part of it) matches.
type candidate struct {
	vw    *verseWords
	slots []int // indexes into vw.index
}

// Find locates quoteText in chapters within rng and selects the given occurrence.
func Find(chapters []ir.Chapter, quoteText string, occurrence int, rng ir.Range) Result {
	return FindWithOptions(chapters, quoteText, occurrence, rng, Options{})
}

// FindWithOptions is Find with explicit options.
//
// Each " & " separated part is matched independently with the same occurrence
// and the results are concatenated in declared order. Occurrences are counted
// in scan order over the whole reference range. Right-to-left content first
// tries a strict contiguous match and then falls back to matching the words in
// any order within one verse.
func FindWithOptions(chapters []ir.Chapter, quoteText string, occurrence int, rng ir.Range, opts Options) Result {
	if occurrence == 0 || occurrence < OccurrenceAll {
		return failed()
	}
	parts := Parts(quoteText)
	if len(parts) == 0 {
		return failed()
	}

	window := collect(chapters, rng)
	if len(window) == 0 {
		return failed()
	}

	dir := opts.Direction
	if dir == DirectionAuto {
		dir = detectWindowDirection(window)
	}

	var tokens []Match
	for _, part := range parts {
		candidates := strictCandidates(window, part)
		if dir == DirectionRTL && !enough(candidates, occurrence) {
			candidates = flexibleCandidates(window, part, opts.ReorderWindow)
		}

		selected, ok := selectOccurrence(candidates, occurrence)
		if !ok {
			return failed()
		}
		for _, c := range selected {
			tokens = append(tokens, c.matches()...)
		}
	}

	return Result{Success: true, Tokens: tokens}
}

// collect builds the normalized word view of every verse in rng.
func collect(chapters []ir.Chapter, rng ir.Range) []*verseWords {
	var window []*verseWords
	for ci := range chapters {
		ch := &chapters[ci]
		if ch.Number < rng.StartChapter || ch.Number > rng.EndChapter {
			continue
		}
		for vi := range ch.Verses {
			v := &ch.Verses[vi]
			if !verseInRange(ch.Number, v, rng) {
				continue
			}
			window = append(window, newVerseWords(ch.Number, v))
		}
	}
	return window
}

// verseInRange reports whether any verse number of v (bridges included) is in rng.
func verseInRange(chapter int, v *ir.Verse, rng ir.Range) bool {
	last := v.Number
	if v.EndNumber > last {
		last = v.EndNumber
	}
	for n := v.Number; n <= last; n++ {
		if rng.Contains(chapter, n) {
			return true
		}
	}
	return false
}

func newVerseWords(chapter int, v *ir.Verse) *verseWords {
	vw := &verseWords{chapter: chapter, verse: v}
	seen := make(map[string]int)
	for i := range v.Tokens {
		if !v.Tokens[i].IsWord() {
			continue
		}
		w := Normalize(v.Tokens[i].Text)
		if w == "" {
			continue
		}
		seen[w]++
		vw.index = append(vw.index, i)
		vw.words = append(vw.words, w)
		vw.occurrence = append(vw.occurrence, seen[w])
	}
	return vw
}

func detectWindowDirection(window []*verseWords) Direction {
	for _, vw := range window {
		if len(vw.index) > 0 {
			return DetectDirection(vw.verse.Tokens[vw.index[0]].Text)
		}
	}
	return DirectionLTR
}

// strictCandidates finds non-overlapping contiguous runs of part, in scan order.
func strictCandidates(window []*verseWords, part []string) []candidate {
	var out []candidate
	for _, vw := range window {
		for i := 0; i+len(part) <= len(vw.words); {
			if !equalAt(vw.words, i, part) {
				i++
				continue
			}
			slots := make([]int, len(part))
			for j := range part {
				slots[j] = i + j
			}
			out = append(out, candidate{vw: vw, slots: slots})
			i += len(part)
		}
	}
	return out
}

func equalAt(words []string, at int, part []string) bool {
	for j, w := range part {
		if words[at+j] != w {
			return false
		}
	}
	return true
}

// flexibleCandidates matches part in any word order within a single verse.
// Matched tokens are returned in the order the quote names them.
// The n-th candidate of a verse uses the n-th group of occurrences of each
// quote word, so candidates never share tokens.
func flexibleCandidates(window []*verseWords, part []string, reorderWindow int) []candidate {
	need := make(map[string]int)
	for _, w := range part {
		need[w]++
	}

	var out []candidate
	for _, vw := range window {
		positions := make(map[string][]int)
		for slot, w := range vw.words {
			if need[w] > 0 {
				positions[w] = append(positions[w], slot)
			}
		}

		for n := 0; ; n++ {
			complete := true
			for w, count := range need {
				if len(positions[w]) < (n+1)*count {
					complete = false
					break
				}
			}
			if !complete {
				break
			}

			// Slots follow the quote's word order.
			used := make(map[string]int, len(need))
			slots := make([]int, len(part))
			for i, w := range part {
				slots[i] = positions[w][n*need[w]+used[w]]
				used[w]++
			}
			if reorderWindow > 0 && span(slots) > reorderWindow {
				continue
			}
			out = append(out, candidate{vw: vw, slots: slots})
		}
	}
	return out
}

// span is the number of verse words from the first to the last slot.
func span(slots []int) int {
	lo, hi := slots[0], slots[0]
	for _, s := range slots[1:] {
		lo, hi = min(lo, s), max(hi, s)
	}
	return hi - lo + 1
}

func enough(candidates []candidate, occurrence int) bool {
	if occurrence == OccurrenceAll {
		return len(candidates) > 0
	}
	return len(candidates) >= occurrence
}

func selectOccurrence(candidates []candidate, occurrence int) ([]candidate, bool) {
	if !enough(candidates, occurrence) {
		return nil, false
	}
	if occurrence == OccurrenceAll {
		return candidates, true
	}
	return candidates[occurrence-1 : occurrence], true
}

// matches copies the candidate's tokens, stamping verse-wide occurrences on the
// copies only.
func (c candidate) matches() []Match {
	out := make([]Match, 0, len(c.slots))
	for _, slot := range c.slots {
		tok := c.vw.verse.Tokens[c.vw.index[slot]]
		tok.Occurrence = c.vw.occurrence[slot]
		out = append(out, Match{Token: tok, Chapter: c.vw.chapter, Verse: c.vw.verse.Number})
	}
	return out
}
