// Package doc defines the versioned input schema for parsed scripture documents.
//
// Readers (USFM, OSIS, JSON) produce a Document; the adapter package converts it
// into optimized ir chapters. The schema is validated at the boundary so that
// unknown or missing fields become explicit optionals instead of pass-through data.
package doc

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/errors"
)

// SchemaV1 is the only supported schema identifier.
const SchemaV1 = "juniper.helps.document/v1"

// ObjectType is the type of a verse object.
type ObjectType string

// Object type constants.
const (
	ObjectWord        ObjectType = "word"
	ObjectText        ObjectType = "text"
	ObjectMilestone   ObjectType = "milestone"
	ObjectPunctuation ObjectType = "punctuation"
	ObjectWhitespace  ObjectType = "whitespace"
)

// validObjectTypes is the set of valid object types.
var validObjectTypes = map[ObjectType]bool{
	ObjectWord:        true,
	ObjectText:        true,
	ObjectMilestone:   true,
	ObjectPunctuation: true,
	ObjectWhitespace:  true,
}

// IsValid returns true if the object type is valid.
func (t ObjectType) IsValid() bool {
	return validObjectTypes[t]
}

// Alignment milestone attribute names.
const (
	AttrContent     = "x-content"
	AttrOccurrence  = "x-occurrence"
	AttrOccurrences = "x-occurrences"
	AttrStrong      = "x-strong"
	AttrLemma       = "x-lemma"
	AttrMorph       = "x-morph"
)

// MilestoneAlign is the tag of a word-alignment milestone.
const MilestoneAlign = "zaln"

// Document is a parsed scripture book.
type Document struct {
	// Schema identifies the schema version. Empty means SchemaV1.
	Schema string `json:"schema,omitempty"`

	// Book identifies the book.
	Book Book `json:"book"`

	// Language is the BCP-47 language tag (e.g., "el-x-koine", "hbo", "en").
	Language string `json:"language,omitempty"`

	// Direction is "ltr" or "rtl" when the source states it.
	Direction string `json:"direction,omitempty"`

	// Chapters in document order.
	Chapters []Chapter `json:"chapters"`
}

// Book identifies a book by USFM code.
type Book struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Chapter holds the verses of one chapter.
type Chapter struct {
	Number int     `json:"number"`
	Verses []Verse `json:"verses"`
}

// Verse holds the objects of one verse. Number may be a bridge such as "3-4".
type Verse struct {
	Number  string   `json:"number"`
	Objects []Object `json:"objects"`
}

// Alignment carries word metadata nested under a sub-object.
type Alignment struct {
	Strong string `json:"strong,omitempty"`
	Lemma  string `json:"lemma,omitempty"`
	Morph  string `json:"morph,omitempty"`
}

// Object is a single verse object: a word, a text run or a milestone.
type Object struct {
	Type ObjectType `json:"type"`
	Text string     `json:"text,omitempty"`

	// ID is an externally stable identity, when the source has one.
	ID string `json:"id,omitempty"`

	// Flat word metadata.
	Strong string `json:"strong,omitempty"`
	Lemma  string `json:"lemma,omitempty"`
	Morph  string `json:"morph,omitempty"`

	// Occurrence and Occurrences as declared by the source, if any.
	Occurrence  int `json:"occurrence,omitempty"`
	Occurrences int `json:"occurrences,omitempty"`

	// Alignment carries nested word metadata. It takes precedence over flat fields.
	Alignment *Alignment `json:"alignment,omitempty"`

	// Tag and Attributes describe milestones (e.g., tag "zaln").
	Tag        string            `json:"tag,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`

	// Children are the objects enclosed by a milestone.
	Children []Object `json:"children,omitempty"`

	// AlignedOriginalWordIDs are explicit semantic IDs for target-language words.
	AlignedOriginalWordIDs []string `json:"alignedOriginalWordIds,omitempty"`
}

// Attr returns a milestone attribute, or "".
func (o *Object) Attr(name string) string {
	if o.Attributes == nil {
		return ""
	}
	return o.Attributes[name]
}

// Metadata returns the word's strong, lemma and morph, preferring nested values.
func (o *Object) Metadata() (strong, lemma, morph string) {
	strong, lemma, morph = o.Strong, o.Lemma, o.Morph
	if o.Alignment != nil {
		if o.Alignment.Strong != "" {
			strong = o.Alignment.Strong
		}
		if o.Alignment.Lemma != "" {
			lemma = o.Alignment.Lemma
		}
		if o.Alignment.Morph != "" {
			morph = o.Alignment.Morph
		}
	}
	return strong, lemma, morph
}

// ParseVerseNumber parses "3" or "3-4" into start and end (end is 0 for a single verse).
func ParseVerseNumber(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	first, rest, bridged := strings.Cut(s, "-")
	start, err = strconv.Atoi(first)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("invalid verse number %q", s)
	}
	if bridged {
		end, err = strconv.Atoi(rest)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("invalid verse bridge %q", s)
		}
	}
	return start, end, nil
}

// Decode reads a JSON document, rejecting unknown fields, and validates it.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var d Document
	if err := dec.Decode(&d); err != nil {
		return nil, &errors.ParseError{Format: "document", Message: err.Error(), Err: err}
	}
	if errs := Validate(&d); len(errs) > 0 {
		return nil, errs[0]
	}
	return &d, nil
}

// Validate checks a document and returns all violations.
func Validate(d *Document) []error {
	var errs []error

	if d.Schema != "" && d.Schema != SchemaV1 {
		errs = append(errs, errors.NewUnsupported("document schema", d.Schema))
	}
	if strings.TrimSpace(d.Book.Code) == "" {
		errs = append(errs, errors.NewValidation("book.code", "book code is required"))
	}
	if d.Direction != "" && d.Direction != "ltr" && d.Direction != "rtl" {
		errs = append(errs, errors.NewValidation("direction", fmt.Sprintf("invalid direction %q", d.Direction)))
	}

	for i, ch := range d.Chapters {
		chPath := fmt.Sprintf("chapters[%d]", i)
		if ch.Number < 1 {
			errs = append(errs, errors.NewValidation(chPath+".number", "chapter number must be positive"))
		}
		for j, v := range ch.Verses {
			vPath := fmt.Sprintf("%s.verses[%d]", chPath, j)
			if _, _, err := ParseVerseNumber(v.Number); err != nil {
				errs = append(errs, errors.NewValidation(vPath+".number", err.Error()))
			}
			errs = append(errs, validateObjects(vPath, v.Objects)...)
		}
	}

	return errs
}

func validateObjects(path string, objects []Object) []error {
	var errs []error
	for i, o := range objects {
		oPath := fmt.Sprintf("%s.objects[%d]", path, i)
		if !o.Type.IsValid() {
			errs = append(errs, errors.NewValidation(oPath+".type", fmt.Sprintf("invalid object type %q", o.Type)))
			continue
		}
		if o.Type == ObjectMilestone {
			errs = append(errs, validateObjects(oPath, o.Children)...)
		} else if len(o.Children) > 0 {
			errs = append(errs, errors.NewValidation(oPath+".children", "only milestones may have children"))
		}
	}
	return errs
}
