package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
	"github.com/FocuswithJustin/JuniperHelps/internal/validation"
)

// ImportCmd parses every book file in a directory and stores it.
type ImportCmd struct {
	Dir      string `arg:"" help:"Directory of USFM, OSIS or JSON book files" type:"existingdir"`
	Resource string `required:"" help:"Resource key to store the books under (e.g. el-x-koine/ugnt)"`
	Store    string `help:"Content store path (default: paths.store from config)" type:"path"`
}

func (c *ImportCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if err := validation.ResourceKey(c.Resource); err != nil {
		return err
	}
	path := c.Store
	if path == "" {
		path = cfg.Paths.Store
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	store, err := source.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	dir := source.NewDir(map[string]string{c.Resource: c.Dir})
	books, err := dir.Books(c.Resource)
	if err != nil {
		return err
	}
	codes := make([]string, 0, len(books))
	for code := range books {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	language := ""
	if r, ok := cfg.Resource(c.Resource); ok {
		language = r.Language
	}

	ctx := context.Background()
	imported, failed := 0, 0
	for _, code := range codes {
		d, err := dir.Document(ctx, c.Resource, code)
		if err != nil {
			logging.Warn("import skipped", "book", code, "file", books[code], "error", err)
			failed++
			continue
		}
		if d.Language == "" {
			d.Language = language
		}
		if err := store.Put(ctx, c.Resource, d); err != nil {
			return err
		}
		logging.Debug("imported", "resource", c.Resource, "book", code)
		imported++
	}

	fmt.Printf("Imported %d books into %s (%d skipped)\n", imported, path, failed)
	return nil
}
