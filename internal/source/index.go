package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/usfm"
)

// indexTTL is how long a directory listing is trusted before it is read
// again. Files added within that window are found after Rescan.
const indexTTL = 30 * time.Second

// bookIndex maps book codes to the book files of one directory.
type bookIndex struct {
	files   map[string][]string
	scanned time.Time
}

// dirIndex caches the book index of each resource directory.
type dirIndex struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]bookIndex
}

func newDirIndex(ttl time.Duration) *dirIndex {
	return &dirIndex{ttl: ttl, entries: make(map[string]bookIndex)}
}

// get returns the index of root, reading the directory when the cached
// index is absent or expired.
func (x *dirIndex) get(root string) (bookIndex, error) {
	x.mu.RLock()
	idx, ok := x.entries[root]
	x.mu.RUnlock()
	if ok && time.Since(idx.scanned) < x.ttl {
		return idx, nil
	}

	idx, err := scan(root)
	if err != nil {
		return bookIndex{}, err
	}
	x.mu.Lock()
	x.entries[root] = idx
	x.mu.Unlock()
	return idx, nil
}

func (x *dirIndex) invalidate() {
	x.mu.Lock()
	x.entries = make(map[string]bookIndex)
	x.mu.Unlock()
}

// scan reads root and indexes every file whose name has a book code as one
// of its components. Uncompressed files sort before compressed ones.
func scan(root string) (bookIndex, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return bookIndex{}, errors.NewIO("read directory", root, err)
	}

	files := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem, ok := trimExtension(e.Name())
		if !ok {
			continue
		}
		for _, part := range nameParts(stem) {
			if code := strings.ToUpper(part); usfm.BookNames[code] != "" {
				files[code] = append(files[code], filepath.Join(root, e.Name()))
				break
			}
		}
	}
	for _, paths := range files {
		sort.Slice(paths, func(i, j int) bool {
			ci, cj := strings.HasSuffix(paths[i], ".xz"), strings.HasSuffix(paths[j], ".xz")
			if ci != cj {
				return !ci
			}
			return paths[i] < paths[j]
		})
	}
	return bookIndex{files: files, scanned: time.Now()}, nil
}

// path returns the preferred file for book.
func (idx bookIndex) path(book string) (string, error) {
	paths := idx.files[strings.ToUpper(book)]
	if len(paths) == 0 {
		return "", errors.NewNotFound("book file", book)
	}
	return paths[0], nil
}
