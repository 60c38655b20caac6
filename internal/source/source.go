// Package source loads scripture content for a resource and book.
//
// A Source returns converted chapters ready for quote matching. Books are read
// from a directory of USFM, OSIS or JSON files (Dir), from a SQLite content
// store (Store), or through an in-memory cache in front of either (Cached).
// A resource that has no content for a book yields a MissingContentError.
package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperHelps/core/adapter"
	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/osis"
	"github.com/FocuswithJustin/JuniperHelps/core/usfm"
)

// Source loads the converted chapters of one book of a resource.
type Source interface {
	Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error)
}

// DocumentSource loads the parsed document of one book of a resource.
type DocumentSource interface {
	Document(ctx context.Context, resourceKey, book string) (*doc.Document, error)
}

// Convert loads a document from src and converts it to chapters.
func Convert(ctx context.Context, src DocumentSource, resourceKey, book string) ([]ir.Chapter, error) {
	d, err := src.Document(ctx, resourceKey, book)
	if err != nil {
		return nil, err
	}
	chapters, err := adapter.Convert(d)
	if err != nil {
		return nil, errors.Wrapf(err, "converting %s %s", resourceKey, book)
	}
	return chapters, nil
}

// Supported file extensions, longest first so ".usfm.xz" wins over ".xz".
var extensions = []string{".usfm.xz", ".sfm.xz", ".xml.xz", ".json.xz", ".usfm", ".sfm", ".xml", ".json"}

// Parse decodes a book file by name. Names ending in ".xz" are decompressed first.
func Parse(name string, r io.Reader) (*doc.Document, error) {
	return ParseBook(name, r, "")
}

// ParseBook is Parse for files that may hold several books (OSIS). An empty
// book selects the first.
func ParseBook(name string, r io.Reader, book string) (*doc.Document, error) {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, &errors.ParseError{Format: "xz", Path: name, Message: err.Error(), Err: err}
		}
		r = xr
		lower = strings.TrimSuffix(lower, ".xz")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", name, err)
	}

	var d *doc.Document
	switch {
	case strings.HasSuffix(lower, ".usfm") || strings.HasSuffix(lower, ".sfm"):
		d, err = usfm.Parse(data)
	case strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".osis"):
		d, err = osis.ParseBook(data, book)
	case strings.HasSuffix(lower, ".json"):
		d, err = doc.Decode(bytes.NewReader(data))
	case usfm.Detect(data):
		d, err = usfm.Parse(data)
	case osis.Detect(data):
		d, err = osis.ParseBook(data, book)
	default:
		return nil, errors.NewUnsupported("content format", name)
	}
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = name
		}
		return nil, err
	}
	return d, nil
}

// Dir reads book files from one directory per resource.
//
// A book file is matched by a name component equal to the book code, so
// "57-TIT.usfm", "tit.usfm.xz" and "TIT.json" all hold Titus.
type Dir struct {
	roots map[string]string
	index *dirIndex
}

// NewDir returns a directory source. roots maps resource keys to directories.
func NewDir(roots map[string]string) *Dir {
	r := make(map[string]string, len(roots))
	for k, v := range roots {
		r[k] = v
	}
	return &Dir{roots: r, index: newDirIndex(indexTTL)}
}

// Rescan drops the cached directory listings.
func (d *Dir) Rescan() {
	d.index.invalidate()
}

// Document implements DocumentSource.
func (d *Dir) Document(ctx context.Context, resourceKey, book string) (*doc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, ok := d.roots[resourceKey]
	if !ok {
		return nil, errors.NewMissingContent(resourceKey, book, errors.NewNotFound("resource", resourceKey))
	}

	idx, err := d.index.get(root)
	if err != nil {
		return nil, errors.NewMissingContent(resourceKey, book, err)
	}
	path, err := idx.path(book)
	if err != nil {
		return nil, errors.NewMissingContent(resourceKey, book, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewMissingContent(resourceKey, book, errors.NewIO("open", path, err))
	}
	defer f.Close()

	parsed, err := ParseBook(path, f, book)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(parsed.Book.Code, book) {
		return nil, errors.NewValidation("book", "file "+path+" holds "+parsed.Book.Code+", not "+strings.ToUpper(book))
	}
	return parsed, nil
}

// Load implements Source.
func (d *Dir) Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error) {
	return Convert(ctx, d, resourceKey, book)
}

// Books lists the book files found for a resource, keyed by book code.
func (d *Dir) Books(resourceKey string) (map[string]string, error) {
	root, ok := d.roots[resourceKey]
	if !ok {
		return nil, errors.NewNotFound("resource", resourceKey)
	}
	idx, err := d.index.get(root)
	if err != nil {
		return nil, err
	}
	books := make(map[string]string, len(idx.files))
	for code, paths := range idx.files {
		books[code] = paths[0]
	}
	return books, nil
}

func trimExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)], true
		}
	}
	return "", false
}

func nameParts(stem string) []string {
	return strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
}

// IsMissing reports whether err means a resource has no content for a book.
func IsMissing(err error) bool {
	return errors.Is(err, errors.ErrMissingContent)
}

func missing(resourceKey, book string) error {
	return errors.NewMissingContent(resourceKey, book, nil)
}
