package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	herrors "github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
)

const titusUSFM = `\id TIT
\c 1
\p
\v 1 \w Παῦλος|lemma="Παῦλος" strong="G39720"\w*, \w δοῦλος|lemma="δοῦλος" strong="G14010"\w* \w Θεοῦ|lemma="θεός" strong="G23160"\w*
`

const philemonJSON = `{
  "schema": "juniper.helps.document/v1",
  "book": {"code": "PHM", "name": "Philemon"},
  "chapters": [{"number": 1, "verses": [{"number": "1", "objects": [
    {"type": "word", "text": "Παῦλος"}
  ]}]}]
}`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func xzBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDirLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "57-TIT.usfm"), []byte(titusUSFM))
	writeFile(t, filepath.Join(root, "phm.json"), []byte(philemonJSON))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("ignored"))

	dir := NewDir(map[string]string{"el-x-koine/ugnt": root})
	ctx := context.Background()

	chapters, err := dir.Load(ctx, "el-x-koine/ugnt", "tit")
	if err != nil {
		t.Fatalf("Load(TIT) failed: %v", err)
	}
	if v := chapters[0].Verse(1); v == nil || v.Text != "Παῦλος, δοῦλος Θεοῦ" {
		t.Errorf("TIT 1:1 = %+v", v)
	}

	d, err := dir.Document(ctx, "el-x-koine/ugnt", "PHM")
	if err != nil || d.Book.Name != "Philemon" {
		t.Errorf("Document(PHM) = %+v, %v", d, err)
	}

	books, err := dir.Books("el-x-koine/ugnt")
	if err != nil {
		t.Fatalf("Books failed: %v", err)
	}
	if len(books) != 2 || books["TIT"] == "" || books["PHM"] == "" {
		t.Errorf("Books = %v", books)
	}
}

func TestDirLoadCompressed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tit.usfm.xz"), xzBytes(t, titusUSFM))

	dir := NewDir(map[string]string{"ugnt": root})
	chapters, err := dir.Load(context.Background(), "ugnt", "TIT")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(chapters[0].Verses[0].Words()) != 3 {
		t.Errorf("words = %+v", chapters[0].Verses[0].Words())
	}
}

func TestDirMissingContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "TIT.usfm"), []byte(titusUSFM))
	dir := NewDir(map[string]string{"ugnt": root})
	ctx := context.Background()

	tests := []struct {
		name     string
		resource string
		book     string
	}{
		{"unknown resource", "uhb", "TIT"},
		{"absent book", "ugnt", "PHM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.Load(ctx, tt.resource, tt.book)
			if !IsMissing(err) {
				t.Errorf("error = %v, want missing content", err)
			}
			var mc *herrors.MissingContentError
			if !errors.As(err, &mc) || mc.Book != tt.book {
				t.Errorf("error = %#v", err)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := dir.Load(cancelled, "ugnt", "TIT"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Load error = %v", err)
	}
}

func TestDirIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "TIT.usfm.xz"), xzBytes(t, titusUSFM))
	writeFile(t, filepath.Join(root, "TIT.usfm"), []byte(titusUSFM))
	dir := NewDir(map[string]string{"ugnt": root})
	ctx := context.Background()

	books, err := dir.Books("ugnt")
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(books["TIT"]); got != "TIT.usfm" {
		t.Errorf("preferred file = %s, want TIT.usfm", got)
	}

	// The listing is cached until Rescan.
	writeFile(t, filepath.Join(root, "phm.json"), []byte(philemonJSON))
	if _, err := dir.Load(ctx, "ugnt", "PHM"); !IsMissing(err) {
		t.Errorf("Load(PHM) before Rescan error = %v, want missing content", err)
	}
	dir.Rescan()
	if _, err := dir.Load(ctx, "ugnt", "PHM"); err != nil {
		t.Errorf("Load(PHM) after Rescan failed: %v", err)
	}
}

func TestDirWrongBook(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "PHM.usfm"), []byte(titusUSFM))

	_, err := NewDir(map[string]string{"ugnt": root}).Load(context.Background(), "ugnt", "PHM")
	if !errors.Is(err, herrors.ErrInvalidInput) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("book.txt", strings.NewReader("plain text")); !errors.Is(err, herrors.ErrUnsupported) {
		t.Errorf("Parse(txt) error = %v", err)
	}

	// Content sniffing for unknown extensions.
	d, err := Parse("book.dat", strings.NewReader(titusUSFM))
	if err != nil || d.Book.Code != "TIT" {
		t.Errorf("Parse(dat) = %+v, %v", d, err)
	}

	_, err = Parse("broken.usfm", strings.NewReader(`\c 1`))
	var pe *herrors.ParseError
	if !errors.As(err, &pe) || pe.Path != "broken.usfm" {
		t.Errorf("Parse(broken) error = %v", err)
	}

	if _, err := Parse("bad.usfm.xz", strings.NewReader("not xz")); !errors.As(err, &pe) || pe.Format != "xz" {
		t.Errorf("Parse(bad xz) error = %v", err)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	d, err := Parse("tit.usfm", strings.NewReader(titusUSFM))
	if err != nil {
		t.Fatal(err)
	}
	d.Language = "el-x-koine"
	if err := store.Put(ctx, "el-x-koine/ugnt", d); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Replacing is allowed.
	if err := store.Put(ctx, "el-x-koine/ugnt", d); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Document(ctx, "el-x-koine/ugnt", "tit")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got.Book.Code != "TIT" || got.Language != "el-x-koine" {
		t.Errorf("Document header = %+v %q", got.Book, got.Language)
	}
	if w := got.Chapters[0].Verses[0].Objects[0]; w.Text != "Παῦλος" || w.Strong != "G39720" {
		t.Errorf("first object = %+v", w)
	}

	chapters, err := store.Load(ctx, "el-x-koine/ugnt", "TIT")
	if err != nil || chapters[0].Verses[0].Text != "Παῦλος, δοῦλος Θεοῦ" {
		t.Errorf("Load = %+v, %v", chapters, err)
	}

	if _, err := store.Load(ctx, "el-x-koine/ugnt", "PHM"); !IsMissing(err) {
		t.Errorf("Load(PHM) error = %v, want missing content", err)
	}

	entries, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Book != "TIT" || entries[0].Resource != "el-x-koine/ugnt" {
		t.Errorf("List = %+v", entries)
	}
	if entries, _ := store.List(ctx, "hbo/uhb"); len(entries) != 0 {
		t.Errorf("List(uhb) = %+v", entries)
	}

	if err := store.Put(ctx, "x", &doc.Document{}); !errors.Is(err, herrors.ErrInvalidInput) {
		t.Errorf("Put(invalid) error = %v", err)
	}
}

// countingSource counts loads and blocks until release is closed.
type countingSource struct {
	loads   atomic.Int32
	release chan struct{}
	err     error
}

func (s *countingSource) Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error) {
	s.loads.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return []ir.Chapter{{Number: 1}}, nil
}

func TestCachedLoad(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	cached := NewCached(src, 4)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached.Load(ctx, "ugnt", "TIT"); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	// Let the goroutines queue up behind the first load.
	for src.loads.Load() == 0 {
		// spin until the first load starts
	}
	close(src.release)
	wg.Wait()

	if _, err := cached.Load(ctx, "ugnt", "tit"); err != nil {
		t.Fatal(err)
	}
	// Goroutines that arrived after the first load finished hit the cache.
	if n := src.loads.Load(); n != 1 {
		t.Errorf("underlying loads = %d, want 1", n)
	}
	if cached.Stats().Hits == 0 {
		t.Error("expected cache hits")
	}

	cached.Invalidate("ugnt", "TIT")
	if _, err := cached.Load(ctx, "ugnt", "TIT"); err != nil {
		t.Fatal(err)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("underlying loads after Invalidate = %d, want 2", n)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: herrors.NewMissingContent("ugnt", "TIT", nil)}
	cached := NewCached(src, 4)

	for i := 0; i < 2; i++ {
		if _, err := cached.Load(context.Background(), "ugnt", "TIT"); !IsMissing(err) {
			t.Errorf("error = %v", err)
		}
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	missingSrc := &countingSource{err: herrors.NewMissingContent("ugnt", "TIT", nil)}
	okSrc := &countingSource{}

	chapters, err := Chain{missingSrc, okSrc}.Load(ctx, "ugnt", "TIT")
	if err != nil || len(chapters) != 1 {
		t.Errorf("Chain.Load = %+v, %v", chapters, err)
	}

	failing := &countingSource{err: errors.New("disk on fire")}
	if _, err := (Chain{failing, okSrc}).Load(ctx, "ugnt", "TIT"); err == nil || IsMissing(err) {
		t.Errorf("Chain should stop at a hard error, got %v", err)
	}

	if _, err := (Chain{}).Load(ctx, "ugnt", "TIT"); !IsMissing(err) {
		t.Errorf("empty Chain error = %v", err)
	}
}
