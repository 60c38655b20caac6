package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/JuniperHelps/core/align"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/internal/config"
	"github.com/FocuswithJustin/JuniperHelps/internal/coord"
	"github.com/FocuswithJustin/JuniperHelps/internal/helps"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
	"github.com/FocuswithJustin/JuniperHelps/internal/validation"
)

// NotesCmd resolves the rows of a translation-helps TSV file.
type NotesCmd struct {
	TSV       string `arg:"" help:"Translation notes or word links TSV file" type:"existingfile"`
	Book      string `help:"Book code (default: taken from the file name)"`
	Resource  string `help:"Original-language resource key (default: configured for the book)"`
	Original  string `help:"Directory of original-language book files, used instead of the configured resources" type:"existingdir"`
	Target    string `help:"Aligned target-language book file to align against" type:"existingfile"`
	Direction string `help:"Force the original-language reading direction (ltr or rtl)"`
	Failures  bool   `help:"Only print rows that did not resolve"`
	JSON      bool   `help:"Output as JSON"`
}

type notesResult struct {
	helps.RowResult
	Title string `json:"title"`
	Error string `json:"error,omitempty"`
}

func (c *NotesCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	book := strings.ToUpper(c.Book)
	if book == "" {
		book = bookFromName(c.TSV)
	}
	if book == "" {
		return fmt.Errorf("cannot tell the book of %s; use --book", c.TSV)
	}
	if err := validation.BookCode(book); err != nil {
		return err
	}

	f, err := os.Open(c.TSV)
	if err != nil {
		return err
	}
	rows, err := helps.ReadTSV(f)
	f.Close()
	if err != nil {
		return err
	}

	resourceKey, src, closer, err := c.originalSource(cfg, book)
	if err != nil {
		return err
	}
	defer closer()

	bus := coord.NewBus()
	engine := helps.NewEngine(src, bus, helps.Options{
		ResourceKey: resourceKey,
		Book:        book,
		Matcher:     matcherOptions(cfg, resourceKey, c.Direction),
		Titles:      cfg.Cache.Titles,
	})

	var target []ir.Chapter
	if c.Target != "" {
		if _, target, err = loadBook(c.Target); err != nil {
			return err
		}
	}

	ctx := context.Background()
	results := make([]notesResult, 0, len(rows))
	published := 0
	for _, row := range rows {
		var res helps.RowResult
		if target == nil {
			res = engine.Match(ctx, row)
		} else {
			if spec, err := helps.ParseQuoteSpec(book, row); err == nil && spec.Range.StartChapter != published {
				published = spec.Range.StartChapter
				bus.Publish(chapterSnapshot(book, target, published, c.Target))
			}
			res = engine.Resolve(ctx, row)
		}
		out := notesResult{RowResult: res, Title: engine.Title(row)}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		results = append(results, out)
	}

	if c.JSON {
		return printJSON(results)
	}
	return c.report(results)
}

// originalSource returns the resource key and source for the original text.
func (c *NotesCmd) originalSource(cfg *config.Config, book string) (string, source.Source, func(), error) {
	if c.Original != "" {
		key := c.Resource
		if key == "" {
			key = "original"
		}
		return key, source.NewCached(source.NewDir(map[string]string{key: c.Original}), cfg.Cache.Books), func() {}, nil
	}

	key := c.Resource
	if key == "" {
		r, ok := cfg.OriginalFor(book)
		if !ok {
			return "", nil, nil, fmt.Errorf("no original-language resource configured for %s; use --original or --resource", book)
		}
		key = r.Key
	}
	src, closer, err := openSource(cfg)
	if err != nil {
		return "", nil, nil, err
	}
	return key, src, closer, nil
}

// chapterSnapshot is what a reading view showing chapter of target would
// publish.
func chapterSnapshot(book string, target []ir.Chapter, chapter int, resourceID string) coord.Snapshot {
	ch := ir.FindChapter(target, chapter)
	if ch == nil {
		return coord.Snapshot{}
	}
	var tokens []ir.Token
	for _, v := range ch.Verses {
		tokens = append(tokens, v.Tokens...)
	}
	return coord.Snapshot{
		Tokens:    tokens,
		Reference: coord.Reference{Book: book, Chapter: chapter, Verse: 1},
		Resource:  coord.Resource{ID: resourceID},
	}
}

func (c *NotesCmd) report(results []notesResult) error {
	counts := make(map[helps.Status]int)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		counts[r.Status]++
		if c.Failures && r.Status == helps.StatusMatched {
			continue
		}
		detail := align.Text(r.Span)
		if r.Status != helps.StatusMatched {
			detail = r.Error
		} else if detail == "" {
			detail = strings.Join(r.OriginalIDs, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Row.ID, r.Row.Reference, r.Status, r.Title, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	fmt.Printf("\n%d rows:", len(results))
	for _, s := range statuses {
		fmt.Printf(" %s=%d", s, counts[helps.Status(s)])
	}
	fmt.Println()
	return nil
}
