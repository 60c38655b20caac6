// Package usfm reads USFM 3 scripture text into parsed documents.
//
// Both original-language editions (\w word|lemma strong x-morph\w*) and aligned
// translations (\zaln-s |x-content x-occurrence\* ... \zaln-e\*) are supported.
// Headings, footnotes and cross references are not verse content and are dropped.
package usfm

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
)

// USFM parsing helpers
var (
	attrRegex     = regexp.MustCompile(`([A-Za-z0-9-]+)\s*=\s*"([^"]*)"`)
	spaceRegex    = regexp.MustCompile(`\s+`)
	verseNumRegex = regexp.MustCompile(`^(\d+)(?:-(\d+))?`)
	chapterRegex  = regexp.MustCompile(`^(\d+)`)
)

// lineMarkers carry the rest of their line as non-verse content.
var lineMarkers = map[string]bool{
	"id": true, "ide": true, "h": true, "toc1": true, "toc2": true, "toc3": true,
	"mt": true, "mt1": true, "mt2": true, "mt3": true, "rem": true, "usfm": true,
	"sts": true, "cl": true, "cp": true, "d": true, "ms": true, "ms1": true,
	"s": true, "s1": true, "s2": true, "s3": true, "r": true, "mr": true,
}

// noteMarkers enclose content that is skipped up to their closing marker.
var noteMarkers = map[string]bool{
	"f": true, "fe": true, "x": true, "ca": true, "va": true, "fig": true,
}

// BookNames maps USFM book codes to English names.
var BookNames = map[string]string{
	"GEN": "Genesis", "EXO": "Exodus", "LEV": "Leviticus", "NUM": "Numbers",
	"DEU": "Deuteronomy", "JOS": "Joshua", "JDG": "Judges", "RUT": "Ruth",
	"1SA": "1 Samuel", "2SA": "2 Samuel", "1KI": "1 Kings", "2KI": "2 Kings",
	"1CH": "1 Chronicles", "2CH": "2 Chronicles", "EZR": "Ezra", "NEH": "Nehemiah",
	"EST": "Esther", "JOB": "Job", "PSA": "Psalms", "PRO": "Proverbs",
	"ECC": "Ecclesiastes", "SNG": "Song of Solomon", "ISA": "Isaiah", "JER": "Jeremiah",
	"LAM": "Lamentations", "EZK": "Ezekiel", "DAN": "Daniel", "HOS": "Hosea",
	"JOL": "Joel", "AMO": "Amos", "OBA": "Obadiah", "JON": "Jonah",
	"MIC": "Micah", "NAM": "Nahum", "HAB": "Habakkuk", "ZEP": "Zephaniah",
	"HAG": "Haggai", "ZEC": "Zechariah", "MAL": "Malachi",
	"MAT": "Matthew", "MRK": "Mark", "LUK": "Luke", "JHN": "John",
	"ACT": "Acts", "ROM": "Romans", "1CO": "1 Corinthians", "2CO": "2 Corinthians",
	"GAL": "Galatians", "EPH": "Ephesians", "PHP": "Philippians", "COL": "Colossians",
	"1TH": "1 Thessalonians", "2TH": "2 Thessalonians", "1TI": "1 Timothy", "2TI": "2 Timothy",
	"TIT": "Titus", "PHM": "Philemon", "HEB": "Hebrews", "JAS": "James",
	"1PE": "1 Peter", "2PE": "2 Peter", "1JN": "1 John", "2JN": "2 John",
	"3JN": "3 John", "JUD": "Jude", "REV": "Revelation",
}

// Detect reports whether data looks like USFM.
func Detect(data []byte) bool {
	return bytes.Contains(data, []byte(`\id `)) &&
		(bytes.Contains(data, []byte(`\c `)) || bytes.Contains(data, []byte(`\v `)))
}

// parser holds the state of one USFM parse.
type parser struct {
	s    string
	i    int
	line int

	d       *doc.Document
	chapter *doc.Chapter
	verse   *doc.Verse
	// open holds unclosed alignment milestones, innermost last.
	open []*doc.Object
}

// Parse converts USFM text into a parsed document.
func Parse(data []byte) (*doc.Document, error) {
	p := &parser{
		s:    strings.ReplaceAll(string(data), "\r\n", "\n"),
		line: 1,
		d:    &doc.Document{Schema: doc.SchemaV1},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.closeVerse()
	p.closeChapter()

	if p.d.Book.Code == "" {
		return nil, &errors.ParseError{Format: "USFM", Message: `missing \id marker`}
	}
	if p.d.Book.Name == "" {
		p.d.Book.Name = BookNames[p.d.Book.Code]
	}
	return p.d, nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &errors.ParseError{Format: "USFM", Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	for p.i < len(p.s) {
		j := strings.IndexByte(p.s[p.i:], '\\')
		if j < 0 {
			p.text(p.s[p.i:])
			p.i = len(p.s)
			break
		}
		if j > 0 {
			p.text(p.s[p.i : p.i+j])
			p.i += j
		}
		if err := p.marker(); err != nil {
			return err
		}
	}
	return nil
}

// readMarker consumes a marker name at p.i (which holds a backslash) and
// returns it, including a trailing '*' for closing markers.
func (p *parser) readMarker() string {
	start := p.i + 1
	end := start
	for end < len(p.s) && isMarkerByte(p.s[end]) {
		end++
	}
	if end < len(p.s) && p.s[end] == '*' {
		end++
	}
	name := p.s[start:end]
	p.i = end
	if !strings.HasSuffix(name, "*") && p.i < len(p.s) && p.s[p.i] == ' ' {
		p.i++
	}
	return name
}

func isMarkerByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '+'
}

func (p *parser) marker() error {
	name := p.readMarker()
	switch {
	case name == "":
		// A lone backslash is literal text.
		p.text(`\`)
	case name == "id":
		fields := strings.Fields(p.restOfLine())
		if len(fields) == 0 {
			return p.errorf(`empty \id marker`)
		}
		p.d.Book.Code = strings.ToUpper(fields[0])
	case name == "h":
		p.d.Book.Name = strings.TrimSpace(p.restOfLine())
	case lineMarkers[name]:
		p.restOfLine()
	case name == "c":
		return p.startChapter()
	case name == "v":
		return p.startVerse()
	case name == "w" || name == "+w":
		return p.word(name)
	case name == "zaln-s":
		return p.openMilestone()
	case name == "zaln-e*" || name == "zaln-e":
		p.skipMilestoneClose()
		p.closeMilestone()
	case strings.HasSuffix(name, "-s") || strings.HasSuffix(name, "-e") ||
		strings.HasSuffix(name, "-s*") || strings.HasSuffix(name, "-e*"):
		// Other milestones (\k-s, \ts-s, ...) carry no verse text.
		p.skipMilestoneClose()
	case name == "ts*" || name == "ts":
		// Chunk marker.
	case noteMarkers[name]:
		return p.skipNote(name)
	default:
		// Paragraph, poetry and character markers: keep their text, drop the marker.
	}
	return nil
}

func (p *parser) restOfLine() string {
	end := strings.IndexByte(p.s[p.i:], '\n')
	if end < 0 {
		end = len(p.s) - p.i
	}
	line := p.s[p.i : p.i+end]
	p.i += end
	return line
}

func (p *parser) startChapter() error {
	m := chapterRegex.FindString(p.s[p.i:])
	if m == "" {
		return p.errorf(`\c without chapter number`)
	}
	p.i += len(m)
	n, _ := strconv.Atoi(m)

	p.closeVerse()
	p.closeChapter()
	p.chapter = &doc.Chapter{Number: n}
	return nil
}

func (p *parser) startVerse() error {
	if p.chapter == nil {
		return p.errorf(`\v before \c`)
	}
	m := verseNumRegex.FindString(p.s[p.i:])
	if m == "" {
		return p.errorf(`\v without verse number`)
	}
	p.i += len(m)
	if p.i < len(p.s) && p.s[p.i] == ' ' {
		p.i++
	}

	p.closeVerse()
	p.verse = &doc.Verse{Number: m}
	return nil
}

func (p *parser) closeVerse() {
	if p.verse == nil {
		return
	}
	// Milestones left open at the end of a verse are closed implicitly.
	for len(p.open) > 0 {
		p.closeMilestone()
	}
	trimTrailingSpace(p.verse)
	p.chapter.Verses = append(p.chapter.Verses, *p.verse)
	p.verse = nil
}

func (p *parser) closeChapter() {
	if p.chapter == nil {
		return
	}
	p.d.Chapters = append(p.d.Chapters, *p.chapter)
	p.chapter = nil
}

// word parses "\w text|attributes\w*".
func (p *parser) word(name string) error {
	closing := `\` + name + `*`
	end := strings.Index(p.s[p.i:], closing)
	if end < 0 {
		return p.errorf(`unclosed \%s`, name)
	}
	body := p.s[p.i : p.i+end]
	p.i += end + len(closing)
	p.line += strings.Count(body, "\n")

	if p.verse == nil {
		return nil
	}

	text, attrs, _ := strings.Cut(body, "|")
	o := doc.Object{Type: doc.ObjectWord, Text: strings.TrimSpace(text)}
	values := parseAttributes(attrs)
	o.Lemma = values["lemma"]
	o.Strong = values["strong"]
	o.Morph = values["x-morph"]
	if o.Lemma == "" && attrs != "" && !strings.Contains(attrs, "=") {
		// Default attribute is the lemma.
		o.Lemma = strings.TrimSpace(attrs)
	}
	o.Occurrence, _ = strconv.Atoi(values["x-occurrence"])
	o.Occurrences, _ = strconv.Atoi(values["x-occurrences"])
	p.add(o)
	return nil
}

func (p *parser) openMilestone() error {
	end := strings.Index(p.s[p.i:], `\*`)
	if end < 0 {
		return p.errorf(`unclosed \zaln-s`)
	}
	body := p.s[p.i : p.i+end]
	p.i += end + 2

	if p.verse == nil {
		return nil
	}
	_, attrs, _ := strings.Cut(body, "|")
	p.open = append(p.open, &doc.Object{
		Type:       doc.ObjectMilestone,
		Tag:        doc.MilestoneAlign,
		Attributes: parseAttributes(attrs),
	})
	return nil
}

func (p *parser) closeMilestone() {
	if len(p.open) == 0 {
		return
	}
	m := p.open[len(p.open)-1]
	p.open = p.open[:len(p.open)-1]
	p.add(*m)
}

// skipMilestoneClose consumes an optional "\*" that ends a milestone marker.
func (p *parser) skipMilestoneClose() {
	rest := p.s[p.i:]
	if strings.HasPrefix(rest, `\*`) {
		p.i += 2
		return
	}
	// Attributes before the closing "\*" on the same line.
	if end := strings.Index(rest, `\*`); end >= 0 && !strings.Contains(rest[:end], "\n") &&
		!strings.Contains(rest[:end], `\`) {
		p.i += end + 2
	}
}

func (p *parser) skipNote(name string) error {
	closing := `\` + name + `*`
	end := strings.Index(p.s[p.i:], closing)
	if end < 0 {
		return p.errorf(`unclosed \%s`, name)
	}
	p.line += strings.Count(p.s[p.i:p.i+end], "\n")
	p.i += end + len(closing)
	return nil
}

// text appends raw text to the current container. Line breaks become spaces.
func (p *parser) text(raw string) {
	p.line += strings.Count(raw, "\n")
	if p.verse == nil {
		return
	}
	t := spaceRegex.ReplaceAllString(raw, " ")
	if t == "" {
		return
	}
	objects := p.container()
	if n := len(*objects); n > 0 && (*objects)[n-1].Type == doc.ObjectText {
		(*objects)[n-1].Text += t
		return
	}
	if t == " " && len(*objects) == 0 && len(p.open) == 0 {
		// Leading whitespace of a verse.
		return
	}
	p.add(doc.Object{Type: doc.ObjectText, Text: t})
}

func (p *parser) add(o doc.Object) {
	objects := p.container()
	*objects = append(*objects, o)
}

func (p *parser) container() *[]doc.Object {
	if len(p.open) > 0 {
		return &p.open[len(p.open)-1].Children
	}
	return &p.verse.Objects
}

// trimTrailingSpace drops the whitespace left by line breaks at the end of a verse.
func trimTrailingSpace(v *doc.Verse) {
	n := len(v.Objects)
	if n == 0 || v.Objects[n-1].Type != doc.ObjectText {
		return
	}
	v.Objects[n-1].Text = strings.TrimRight(v.Objects[n-1].Text, " ")
	if v.Objects[n-1].Text == "" {
		v.Objects = v.Objects[:n-1]
	}
}

// parseAttributes parses key="value" pairs.
func parseAttributes(s string) map[string]string {
	matches := attrRegex.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(matches))
	for _, m := range matches {
		attrs[m[1]] = m[2]
	}
	return attrs
}
