// Package validation checks identifiers and text that arrive from users,
// configuration files and bridge clients before they reach a content
// source or the matcher.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/JuniperHelps/core/usfm"
)

// Limits on untrusted input (CWE-400).
const (
	// MaxResourceKeyLength is the longest accepted resource key.
	MaxResourceKeyLength = 128
	// MaxQuoteLength is the longest accepted quotation, in bytes.
	MaxQuoteLength = 4096
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidBookCode    = errors.New("invalid book code")
	ErrInvalidResourceKey = errors.New("invalid resource key")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrTooLong            = errors.New("value too long")
	ErrInvalidCharacter   = errors.New("invalid character")
	ErrEmptyPath          = errors.New("path cannot be empty")
)

// BookCode checks that code is a known three-character book code. Case is
// ignored.
func BookCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidBookCode, code)
	}
	if _, ok := usfm.BookNames[strings.ToUpper(code)]; !ok {
		return fmt.Errorf("%w: %q is not a known book", ErrInvalidBookCode, code)
	}
	return nil
}

// ResourceKey checks a resource key such as "el-x-koine/ugnt". Keys are
// slash-separated segments of letters, digits, '-', '_' and '.', and never
// name a parent or current directory.
func ResourceKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidResourceKey)
	}
	if len(key) > MaxResourceKeyLength {
		return fmt.Errorf("%w: %w", ErrInvalidResourceKey, ErrTooLong)
	}
	for _, seg := range strings.Split(key, "/") {
		switch seg {
		case "":
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidResourceKey, key)
		case ".", "..":
			return fmt.Errorf("%w: %w", ErrInvalidResourceKey, ErrPathTraversal)
		}
		for _, r := range seg {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' {
				return fmt.Errorf("%w: %w %q", ErrInvalidResourceKey, ErrInvalidCharacter, r)
			}
		}
	}
	return nil
}

// Text checks a free-text field such as a quotation: it must fit in max
// bytes and hold no control characters other than tab.
func Text(field, s string, max int) error {
	if len(s) > max {
		return fmt.Errorf("%s: %w (%d > %d bytes)", field, ErrTooLong, len(s), max)
	}
	for _, r := range s {
		if r != '\t' && unicode.IsControl(r) {
			return fmt.Errorf("%s: %w %U", field, ErrInvalidCharacter, r)
		}
	}
	return nil
}

// Path performs path validation without requiring a base directory.
// It checks length limits and invalid characters.
func Path(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("%w: path", ErrTooLong)
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}
