package main

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/align"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/core/semantic"
)

// MatchCmd finds a quotation in a book file.
type MatchCmd struct {
	File       string `arg:"" help:"Original-language book file (USFM, OSIS or JSON, optionally .xz)" type:"existingfile"`
	Reference  string `arg:"" help:"Reference: c:v, c:v-v or c:v-c:v"`
	Quote      string `arg:"" help:"Quoted text; independent parts are joined by ' & '"`
	Occurrence int    `short:"o" default:"1" help:"Occurrence to select (-1 for every occurrence)"`
	Direction  string `enum:"auto,ltr,rtl" default:"auto" help:"Reading direction"`
	Window     int    `name:"reorder-window" help:"Bound right-to-left reordering to this many words (0: config value)"`
	JSON       bool   `help:"Output as JSON"`
}

type matchOutput struct {
	Success bool          `json:"success"`
	Tokens  []quote.Match `json:"tokens"`
	IDs     []string      `json:"semanticIds"`
}

func (c *MatchCmd) Run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	d, chapters, err := loadBook(c.File)
	if err != nil {
		return err
	}
	rng, err := ir.ParseReference(d.Book.Code, c.Reference)
	if err != nil {
		return err
	}

	opts := matcherOptions(cfg, "", c.Direction)
	if c.Window > 0 {
		opts.ReorderWindow = c.Window
	}
	res := quote.FindWithOptions(chapters, c.Quote, c.Occurrence, rng, opts)
	ids := semantic.ForMatch(res, d.Book.Code, c.Occurrence)

	if c.JSON {
		return printJSON(matchOutput{Success: res.Success, Tokens: res.Tokens, IDs: ids})
	}
	if !res.Success {
		return fmt.Errorf("%q (occurrence %d) not found in %s %s", c.Quote, c.Occurrence, d.Book.Code, rng)
	}
	for i, m := range res.Tokens {
		fmt.Printf("%d:%d\t%s\t%d\t%s\n", m.Chapter, m.Verse, m.Text, m.Occurrence, ids[i])
	}
	return nil
}

// AlignCmd resolves original-language semantic IDs against an aligned
// translation file.
type AlignCmd struct {
	File      string   `arg:"" help:"Aligned target-language book file" type:"existingfile"`
	Reference string   `arg:"" help:"Verse reference (c:v)"`
	IDs       []string `arg:"" name:"id" help:"Original-language semantic IDs, e.g. 'tit 1:1:Παῦλος:1'"`
	JSON      bool     `help:"Output as JSON"`
}

func (c *AlignCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	d, chapters, err := loadBook(c.File)
	if err != nil {
		return err
	}
	rng, err := ir.ParseReference(d.Book.Code, c.Reference)
	if err != nil {
		return err
	}
	ch := ir.FindChapter(chapters, rng.StartChapter)
	if ch == nil {
		return fmt.Errorf("%s has no chapter %d", d.Book.Code, rng.StartChapter)
	}

	var tokens []ir.Token
	for _, v := range ch.Verses {
		tokens = append(tokens, v.Tokens...)
	}
	ids := make([]string, len(c.IDs))
	for i, id := range c.IDs {
		ids[i] = semantic.Canonical(id)
	}
	span := align.Find(tokens, ids, rng.Start())

	if c.JSON {
		return printJSON(span)
	}
	if len(span) == 0 {
		return fmt.Errorf("no aligned words at %s %s", d.Book.Code, rng)
	}
	fmt.Println(align.Text(span))
	for _, seg := range span {
		if seg.Kind == ir.KindWord {
			fmt.Printf("  %d\t%s\t%s\n", seg.Position, seg.Content, seg.SemanticID)
		}
	}
	return nil
}

// IDsCmd lists the semantic IDs of the words in a passage.
type IDsCmd struct {
	File      string `arg:"" help:"Book file (USFM, OSIS or JSON)" type:"existingfile"`
	Reference string `arg:"" help:"Reference: c:v, c:v-v or c:v-c:v"`
	JSON      bool   `help:"Output as JSON"`
}

type wordID struct {
	Reference  string   `json:"reference"`
	Text       string   `json:"text"`
	Occurrence int      `json:"occurrence"`
	SemanticID string   `json:"semanticId"`
	Strong     string   `json:"strong,omitempty"`
	Aligned    []string `json:"alignedOriginalWordIds,omitempty"`
}

func (c *IDsCmd) Run() error {
	if _, err := setup(); err != nil {
		return err
	}
	d, chapters, err := loadBook(c.File)
	if err != nil {
		return err
	}
	rng, err := ir.ParseReference(d.Book.Code, c.Reference)
	if err != nil {
		return err
	}

	var words []wordID
	for _, ch := range chapters {
		for _, v := range ch.Verses {
			if !rng.Contains(ch.Number, v.Number) {
				continue
			}
			ref := ir.VerseRef{Book: d.Book.Code, Chapter: ch.Number, Verse: v.Number}
			for _, tok := range v.Words() {
				words = append(words, wordID{
					Reference:  ref.String(),
					Text:       tok.Text,
					Occurrence: tok.Occurrence,
					SemanticID: semantic.ForToken(tok, ref, tok.Occurrence),
					Strong:     tok.Strong,
					Aligned:    tok.AlignedOriginalWordIDs,
				})
			}
		}
	}

	if c.JSON {
		return printJSON(words)
	}
	for _, w := range words {
		line := w.SemanticID
		if w.Strong != "" {
			line += "\t" + w.Strong
		}
		if len(w.Aligned) > 0 {
			line += "\t-> " + strings.Join(w.Aligned, ", ")
		}
		fmt.Println(line)
	}
	return nil
}
