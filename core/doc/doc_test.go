package doc

import (
	"errors"
	"strings"
	"testing"

	herrors "github.com/FocuswithJustin/JuniperHelps/core/errors"
)

const titusJSON = `{
  "schema": "juniper.helps.document/v1",
  "book": {"code": "TIT", "name": "Titus"},
  "language": "el-x-koine",
  "chapters": [
    {"number": 1, "verses": [
      {"number": "1", "objects": [
        {"type": "word", "text": "Παῦλος", "strong": "G39720", "lemma": "Παῦλος", "morph": "Gr,N,,,,,NMS,"},
        {"type": "text", "text": ", "},
        {"type": "word", "text": "δοῦλος", "alignment": {"strong": "G14010", "lemma": "δοῦλος"}}
      ]}
    ]}
  ]
}`

func TestDecode(t *testing.T) {
	d, err := Decode(strings.NewReader(titusJSON))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.Book.Code != "TIT" {
		t.Errorf("Book.Code = %q, want TIT", d.Book.Code)
	}
	if len(d.Chapters) != 1 || len(d.Chapters[0].Verses) != 1 {
		t.Fatalf("unexpected shape: %+v", d.Chapters)
	}
	objs := d.Chapters[0].Verses[0].Objects
	if len(objs) != 3 {
		t.Fatalf("len(objects) = %d, want 3", len(objs))
	}

	strong, lemma, _ := objs[2].Metadata()
	if strong != "G14010" || lemma != "δοῦλος" {
		t.Errorf("nested metadata = %q/%q", strong, lemma)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"book":{"code":"TIT"},"chapters":[],"extra":1}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	var pe *herrors.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error %T is not a ParseError", err)
	}
}

func TestDecodeRejectsUnknownSchema(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"schema":"juniper.helps.document/v9","book":{"code":"TIT"},"chapters":[]}`))
	if !errors.Is(err, herrors.ErrUnsupported) {
		t.Errorf("Decode() error = %v, want ErrUnsupported", err)
	}
}

func TestValidate(t *testing.T) {
	d := &Document{
		Direction: "up",
		Chapters: []Chapter{
			{Number: 0, Verses: []Verse{
				{Number: "x", Objects: []Object{
					{Type: "bogus"},
					{Type: ObjectWord, Children: []Object{{Type: ObjectText}}},
					{Type: ObjectMilestone, Tag: MilestoneAlign, Children: []Object{{Type: "nope"}}},
				}},
			}},
		},
	}

	errs := Validate(d)
	// book code, direction, chapter number, verse number, bogus type, word children, nested type
	if len(errs) != 7 {
		t.Errorf("len(errs) = %d, want 7: %v", len(errs), errs)
	}
}

func TestParseVerseNumber(t *testing.T) {
	tests := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{"1", 1, 0, false},
		{"3-4", 3, 4, false},
		{" 12 ", 12, 0, false},
		{"4-3", 0, 0, true},
		{"a", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		start, end, err := ParseVerseNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVerseNumber(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("ParseVerseNumber(%q) = %d, %d, want %d, %d", tt.in, start, end, tt.start, tt.end)
		}
	}
}

func TestObjectAttr(t *testing.T) {
	var o Object
	if o.Attr(AttrContent) != "" {
		t.Error("Attr on nil map should be empty")
	}
	o.Attributes = map[string]string{AttrContent: "Παῦλος"}
	if o.Attr(AttrContent) != "Παῦλος" {
		t.Error("Attr did not return the stored value")
	}
}
