package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "book", ID: "TIT"},
			wantMsg:  "book not found: TIT",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "chapter"},
			wantMsg:  "chapter not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "57-TIT.usfm", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidation("occurrence", "must be a positive integer")
	if got := err.Error(); got != "validation failed for occurrence: must be a positive integer" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}

	bare := &ValidationError{Message: "bad"}
	if got := bare.Error(); got != "validation failed: bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{"path and line", &ParseError{Format: "USFM", Path: "tit.usfm", Line: 4, Message: "bad marker"}, "failed to parse USFM at tit.usfm:4: bad marker"},
		{"path only", &ParseError{Format: "OSIS", Path: "Titus.xml", Message: "no verses"}, "failed to parse OSIS at Titus.xml: no verses"},
		{"line only", &ParseError{Format: "TSV", Line: 2, Message: "short row"}, "failed to parse TSV at line 2: short row"},
		{"bare", NewParse("JSON", "", "eof"), "failed to parse JSON: eof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ParseError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestIOError(t *testing.T) {
	base := fmt.Errorf("permission denied")
	err := NewIO("read", "/tmp/x", base)
	if got := err.Error(); got != "failed to read /tmp/x: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, base) {
		t.Error("IOError should unwrap to its cause")
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("document schema", "juniper.helps.document/v9")
	if got := err.Error(); got != "unsupported document schema: juniper.helps.document/v9" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestMissingContentError(t *testing.T) {
	err := NewMissingContent("uhb", "TIT", nil)
	if got := err.Error(); got != "uhb has no content for TIT" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrMissingContent) {
		t.Error("should match ErrMissingContent")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("should match ErrNotFound")
	}

	wrapped := Wrap(err, "loading chapter")
	var mc *MissingContentError
	if !As(wrapped, &mc) || mc.Book != "TIT" {
		t.Errorf("As() did not recover MissingContentError from %v", wrapped)
	}
}

func TestMalformedQuote(t *testing.T) {
	err := MalformedQuote("empty quote in row %s", "abcd")
	if !Is(err, ErrMalformedQuote) {
		t.Error("should wrap ErrMalformedQuote")
	}
	if got := err.Error(); got != "malformed quote: empty quote in row abcd" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	err := Wrapf(ErrMatchNotFound, "row %s", "x1")
	if got := err.Error(); got != "row x1: quote not found" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrMatchNotFound) {
		t.Error("Wrapf should preserve the chain")
	}
}
