// Package helps resolves translation-helps rows against original-language
// content and the target-language broadcast.
//
// A row (from translation notes or translation word links) names a verse
// reference, a quotation of original-language words and an occurrence. The
// Engine locates the quoted tokens, derives their semantic IDs and maps them
// onto the target-language tokens of the reading view. Rows that cannot be
// resolved degrade to a status rather than an error.
package helps

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/internal/validation"
)

// maxLine bounds a single TSV line. Notes can be long.
const maxLine = 1 << 20

// Row is one translation-helps row.
type Row struct {
	Reference  string `json:"reference"`
	ID         string `json:"id,omitempty"`
	Occurrence string `json:"occurrence"`
	Quote      string `json:"quote"`

	// Note is the note body (translation notes) or the article link
	// (translation word links).
	Note string `json:"note,omitempty"`

	// Line is the 1-based source line, or 0.
	Line int `json:"line,omitempty"`
}

// Column names recognized in a TSV header. Quote and OrigWords are
// alternatives, as are Note and TWLink.
var columns = map[string]string{
	"reference":      "reference",
	"id":             "id",
	"occurrence":     "occurrence",
	"quote":          "quote",
	"origquote":      "quote",
	"origwords":      "quote",
	"note":           "note",
	"occurrencenote": "note",
	"twlink":         "note",
}

// TSVReader reads rows from a translation notes or word links TSV file.
type TSVReader struct {
	scanner *bufio.Scanner
	index   map[string]int
	line    int
}

// NewTSVReader returns a reader for r. The header is read on the first call
// to Next.
func NewTSVReader(r io.Reader) *TSVReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &TSVReader{scanner: s}
}

// Next returns the next row, or io.EOF.
func (tr *TSVReader) Next() (Row, error) {
	if tr.index == nil {
		if err := tr.readHeader(); err != nil {
			return Row{}, err
		}
	}

	for tr.scanner.Scan() {
		tr.line++
		line := strings.TrimRight(tr.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		return Row{
			Reference:  tr.field(fields, "reference"),
			ID:         tr.field(fields, "id"),
			Occurrence: tr.field(fields, "occurrence"),
			Quote:      tr.field(fields, "quote"),
			Note:       tr.field(fields, "note"),
			Line:       tr.line,
		}, nil
	}
	if err := tr.scanner.Err(); err != nil {
		return Row{}, &errors.ParseError{Format: "TSV", Line: tr.line + 1, Message: err.Error(), Err: err}
	}
	return Row{}, io.EOF
}

func (tr *TSVReader) readHeader() error {
	for tr.scanner.Scan() {
		tr.line++
		line := strings.TrimPrefix(strings.TrimRight(tr.scanner.Text(), "\r"), "\ufeff")
		if strings.TrimSpace(line) == "" {
			continue
		}

		tr.index = make(map[string]int)
		for i, name := range strings.Split(line, "\t") {
			key, ok := columns[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				continue
			}
			if _, dup := tr.index[key]; !dup {
				tr.index[key] = i
			}
		}
		for _, required := range []string{"reference", "occurrence", "quote"} {
			if _, ok := tr.index[required]; !ok {
				return &errors.ParseError{Format: "TSV", Line: tr.line, Message: "header has no " + required + " column"}
			}
		}
		return nil
	}
	if err := tr.scanner.Err(); err != nil {
		return &errors.ParseError{Format: "TSV", Line: tr.line + 1, Message: err.Error(), Err: err}
	}
	return &errors.ParseError{Format: "TSV", Message: "missing header"}
}

func (tr *TSVReader) field(fields []string, name string) string {
	i, ok := tr.index[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// ReadTSV reads every row from r.
func ReadTSV(r io.Reader) ([]Row, error) {
	tr := NewTSVReader(r)
	var rows []Row
	for {
		row, err := tr.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// QuoteSpec is a validated row: where to look, what to look for and which
// occurrence to select.
type QuoteSpec struct {
	Range      ir.Range `json:"range"`
	Occurrence int      `json:"occurrence"`
	Quote      string   `json:"quote"`
}

// Ref returns the first verse of the quoted range.
func (q QuoteSpec) Ref() ir.VerseRef {
	return q.Range.Start()
}

// ParseQuoteSpec validates row for book. The error wraps ErrMalformedQuote
// when the quote is empty, the occurrence is not an integer (or -1 for every
// occurrence), or the reference does not parse.
func ParseQuoteSpec(book string, row Row) (QuoteSpec, error) {
	text := strings.TrimSpace(row.Quote)
	if text == "" || len(quote.Parts(text)) == 0 {
		return QuoteSpec{}, errors.MalformedQuote("row %s: empty quote", row.describe())
	}
	if err := validation.Text("quote", text, validation.MaxQuoteLength); err != nil {
		return QuoteSpec{}, errors.MalformedQuote("row %s: %v", row.describe(), err)
	}

	occurrence, err := strconv.Atoi(strings.TrimSpace(row.Occurrence))
	if err != nil || (occurrence < 1 && occurrence != quote.OccurrenceAll) {
		return QuoteSpec{}, errors.MalformedQuote("row %s: invalid occurrence %q", row.describe(), row.Occurrence)
	}

	rng, err := ir.ParseReference(book, row.Reference)
	if err != nil {
		return QuoteSpec{}, errors.MalformedQuote("row %s: %v", row.describe(), err)
	}

	return QuoteSpec{Range: rng, Occurrence: occurrence, Quote: text}, nil
}

func (r Row) describe() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.Line > 0:
		return "line " + strconv.Itoa(r.Line)
	default:
		return strconv.Quote(r.Reference)
	}
}
