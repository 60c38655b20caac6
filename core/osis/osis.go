// Package osis reads OSIS XML, including the Open Scriptures Hebrew Bible
// (OSHB) edition, into parsed documents.
//
// Both verse containers (<verse osisID="Gen.1.1">...</verse>) and verse
// milestones (<verse sID="Gen.1.1"/> ... <verse eID="Gen.1.1"/>) are read.
// Notes are dropped; <w> elements become words carrying lemma, strong and morph.
package osis

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
)

var (
	osisTextExpr = xpath.MustCompile(`//*[local-name()='osisText']`)
	bookDivExpr  = xpath.MustCompile(`//*[local-name()='div'][@type='book']`)
)

// MorphemeSeparator splits OSHB words into prefixes and stem.
const MorphemeSeparator = "/"

// BookCodes maps OSIS book names to USFM book codes.
var BookCodes = map[string]string{
	"Gen": "GEN", "Exod": "EXO", "Lev": "LEV", "Num": "NUM", "Deut": "DEU",
	"Josh": "JOS", "Judg": "JDG", "Ruth": "RUT", "1Sam": "1SA", "2Sam": "2SA",
	"1Kgs": "1KI", "2Kgs": "2KI", "1Chr": "1CH", "2Chr": "2CH", "Ezra": "EZR",
	"Neh": "NEH", "Esth": "EST", "Job": "JOB", "Ps": "PSA", "Prov": "PRO",
	"Eccl": "ECC", "Song": "SNG", "Isa": "ISA", "Jer": "JER", "Lam": "LAM",
	"Ezek": "EZK", "Dan": "DAN", "Hos": "HOS", "Joel": "JOL", "Amos": "AMO",
	"Obad": "OBA", "Jonah": "JON", "Mic": "MIC", "Nah": "NAM", "Hab": "HAB",
	"Zeph": "ZEP", "Hag": "HAG", "Zech": "ZEC", "Mal": "MAL",
	"Matt": "MAT", "Mark": "MRK", "Luke": "LUK", "John": "JHN", "Acts": "ACT",
	"Rom": "ROM", "1Cor": "1CO", "2Cor": "2CO", "Gal": "GAL", "Eph": "EPH",
	"Phil": "PHP", "Col": "COL", "1Thess": "1TH", "2Thess": "2TH", "1Tim": "1TI",
	"2Tim": "2TI", "Titus": "TIT", "Phlm": "PHM", "Heb": "HEB", "Jas": "JAS",
	"1Pet": "1PE", "2Pet": "2PE", "1John": "1JN", "2John": "2JN", "3John": "3JN",
	"Jude": "JUD", "Rev": "REV",
}

// rtlLanguages are the language subtags written right to left.
var rtlLanguages = map[string]bool{"he": true, "hbo": true, "arc": true, "ar": true, "syr": true}

// Detect reports whether data looks like OSIS.
func Detect(data []byte) bool {
	return bytes.Contains(data, []byte("<osis")) && bytes.Contains(data, []byte("osisText"))
}

// reader collects the verses of one book.
type reader struct {
	d       *doc.Document
	chapter *doc.Chapter
	verse   *doc.Verse
	// milestone is the sID of the open milestone verse, if any.
	milestone string
}

// Parse reads the first book of an OSIS document. An OSIS file holding
// several books is read with ParseBook.
func Parse(data []byte) (*doc.Document, error) {
	return ParseBook(data, "")
}

// ParseBook reads the book with the given USFM code. An empty code selects
// the first book.
func ParseBook(data []byte, code string) (*doc.Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "OSIS", Message: err.Error(), Err: err}
	}
	text := xmlquery.QuerySelector(root, osisTextExpr)
	if text == nil {
		return nil, &errors.ParseError{Format: "OSIS", Message: "missing osisText element"}
	}

	var book *xmlquery.Node
	var bookCode string
	for _, div := range xmlquery.QuerySelectorAll(root, bookDivExpr) {
		c := BookCodes[div.SelectAttr("osisID")]
		if c == "" {
			c = strings.ToUpper(div.SelectAttr("osisID"))
		}
		if code == "" || strings.EqualFold(c, code) {
			book, bookCode = div, c
			break
		}
	}
	if book == nil {
		if code != "" {
			return nil, errors.NewNotFound("book", code)
		}
		return nil, &errors.ParseError{Format: "OSIS", Message: "no book div"}
	}

	r := &reader{d: &doc.Document{
		Schema:   doc.SchemaV1,
		Book:     doc.Book{Code: bookCode},
		Language: language(text),
	}}
	for c := book.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == "title" {
			r.d.Book.Name = strings.TrimSpace(c.InnerText())
			break
		}
	}
	if rtlLanguages[strings.SplitN(r.d.Language, "-", 2)[0]] {
		r.d.Direction = "rtl"
	}

	if err := r.walk(book); err != nil {
		return nil, err
	}
	r.closeVerse()
	r.closeChapter()
	return r.d, nil
}

func language(text *xmlquery.Node) string {
	for _, a := range text.Attr {
		if a.Name.Local == "lang" {
			return a.Value
		}
	}
	return ""
}

func (r *reader) walk(n *xmlquery.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			r.text(c.Data)
		case xmlquery.ElementNode:
			if err := r.element(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *reader) element(n *xmlquery.Node) error {
	switch n.Data {
	case "note", "title", "rdg":
		return nil
	case "chapter":
		if id := first(n.SelectAttr("osisID"), n.SelectAttr("sID")); id != "" {
			if err := r.startChapter(id); err != nil {
				return err
			}
		}
		return r.walk(n)
	case "verse":
		return r.verseElement(n)
	case "w":
		r.word(n)
		return nil
	case "seg":
		r.text(n.InnerText())
		return nil
	}
	return r.walk(n)
}

func (r *reader) verseElement(n *xmlquery.Node) error {
	if eID := n.SelectAttr("eID"); eID != "" {
		if eID == r.milestone {
			r.closeVerse()
			r.milestone = ""
		}
		return nil
	}
	if sID := n.SelectAttr("sID"); sID != "" {
		if err := r.startVerse(first(n.SelectAttr("osisID"), sID)); err != nil {
			return err
		}
		r.milestone = sID
		return nil
	}

	id := n.SelectAttr("osisID")
	if id == "" {
		return r.walk(n)
	}
	if err := r.startVerse(id); err != nil {
		return err
	}
	if err := r.walk(n); err != nil {
		return err
	}
	r.closeVerse()
	return nil
}

// startChapter opens the chapter named by an osisID such as "Gen.1".
func (r *reader) startChapter(id string) error {
	parts := strings.Split(id, ".")
	if len(parts) < 2 {
		return &errors.ParseError{Format: "OSIS", Message: "invalid chapter osisID " + strconv.Quote(id)}
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return &errors.ParseError{Format: "OSIS", Message: "invalid chapter osisID " + strconv.Quote(id), Err: err}
	}
	if r.chapter != nil && r.chapter.Number == n {
		return nil
	}
	r.closeVerse()
	r.closeChapter()
	r.chapter = &doc.Chapter{Number: n}
	return nil
}

// startVerse opens the verse named by an osisID. A space-separated list of
// IDs ("Gen.1.1 Gen.1.2") is a verse bridge.
func (r *reader) startVerse(id string) error {
	ids := strings.Fields(id)
	if len(ids) == 0 {
		return nil
	}
	chapter, start, err := splitVerseID(ids[0])
	if err != nil {
		return err
	}
	if err := r.startChapter(ids[0][:strings.LastIndex(ids[0], ".")]); err != nil {
		return err
	}
	r.closeVerse()

	number := strconv.Itoa(start)
	if len(ids) > 1 {
		if c, end, err := splitVerseID(ids[len(ids)-1]); err == nil && c == chapter && end > start {
			number += "-" + strconv.Itoa(end)
		}
	}
	r.verse = &doc.Verse{Number: number}
	return nil
}

func splitVerseID(id string) (chapter, verse int, err error) {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return 0, 0, &errors.ParseError{Format: "OSIS", Message: "invalid verse osisID " + strconv.Quote(id)}
	}
	chapter, err = strconv.Atoi(parts[1])
	if err == nil {
		verse, err = strconv.Atoi(parts[2])
	}
	if err != nil {
		return 0, 0, &errors.ParseError{Format: "OSIS", Message: "invalid verse osisID " + strconv.Quote(id), Err: err}
	}
	return chapter, verse, nil
}

func (r *reader) closeVerse() {
	if r.verse == nil {
		return
	}
	v := r.verse
	if n := len(v.Objects); n > 0 && v.Objects[n-1].Type == doc.ObjectText {
		v.Objects[n-1].Text = strings.TrimRightFunc(v.Objects[n-1].Text, unicode.IsSpace)
		if v.Objects[n-1].Text == "" {
			v.Objects = v.Objects[:n-1]
		}
	}
	r.chapter.Verses = append(r.chapter.Verses, *v)
	r.verse = nil
}

func (r *reader) closeChapter() {
	if r.chapter == nil {
		return
	}
	r.d.Chapters = append(r.d.Chapters, *r.chapter)
	r.chapter = nil
}

func (r *reader) word(n *xmlquery.Node) {
	if r.verse == nil {
		return
	}
	text := strings.ReplaceAll(strings.TrimSpace(n.InnerText()), MorphemeSeparator, "")
	if text == "" {
		return
	}
	lemma := n.SelectAttr("lemma")
	r.verse.Objects = append(r.verse.Objects, doc.Object{
		Type:   doc.ObjectWord,
		Text:   text,
		ID:     n.SelectAttr("id"),
		Lemma:  lemma,
		Strong: Strong(lemma, r.d.Direction == "rtl"),
		Morph:  strings.TrimPrefix(n.SelectAttr("morph"), "oshm:"),
	})
}

func (r *reader) text(s string) {
	if r.verse == nil || s == "" {
		return
	}
	s = collapseSpace(s)

	objects := &r.verse.Objects
	if n := len(*objects); n > 0 && (*objects)[n-1].Type == doc.ObjectText {
		(*objects)[n-1].Text = collapseSpace((*objects)[n-1].Text + s)
		return
	}
	if s == " " && len(*objects) == 0 {
		return
	}
	*objects = append(*objects, doc.Object{Type: doc.ObjectText, Text: s})
}

// collapseSpace replaces every whitespace run with a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// Strong extracts a Strong's number from an OSIS lemma attribute. It accepts
// "strong:H07225", "strong:G2316" and OSHB lemmas such as "b/7225" or
// "1254 a", where the last numbered morpheme is the stem. hebrew selects the
// H prefix for bare numbers.
func Strong(lemma string, hebrew bool) string {
	for _, field := range strings.Fields(lemma) {
		if rest, ok := strings.CutPrefix(field, "strong:"); ok {
			return rest
		}
	}

	fields := strings.Fields(lemma)
	if len(fields) == 0 {
		return ""
	}
	segments := strings.Split(fields[0], MorphemeSeparator)
	for i := len(segments) - 1; i >= 0; i-- {
		digits := strings.TrimLeftFunc(segments[i], func(r rune) bool { return !unicode.IsDigit(r) })
		digits = strings.TrimRightFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) })
		if digits == "" {
			continue
		}
		if _, err := strconv.Atoi(digits); err != nil {
			continue
		}
		if hebrew {
			return "H" + digits
		}
		return "G" + digits
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
