package helps

import (
	"context"
	"strings"

	"github.com/FocuswithJustin/JuniperHelps/core/align"
	"github.com/FocuswithJustin/JuniperHelps/core/cache"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/quote"
	"github.com/FocuswithJustin/JuniperHelps/core/semantic"
	"github.com/FocuswithJustin/JuniperHelps/internal/coord"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
)

// Status classifies the outcome of resolving a row.
type Status string

// Row statuses. Only StatusMatched carries original IDs.
const (
	StatusMatched                Status = "matched"
	StatusMatchNotFound          Status = "match_not_found"
	StatusMissingOriginalContent Status = "missing_original_content"
	StatusStaleBroadcast         Status = "stale_broadcast"
	StatusMalformed              Status = "malformed"
)

// RowResult is the outcome of resolving one row.
type RowResult struct {
	Row    Row       `json:"row"`
	Status Status    `json:"status"`
	Quote  QuoteSpec `json:"quote"`

	// Tokens are the matched original-language tokens.
	Tokens []quote.Match `json:"tokens,omitempty"`

	// OriginalIDs are the semantic IDs of Tokens.
	OriginalIDs []string `json:"originalIds,omitempty"`

	// Span is the aligned target-language span. It is empty unless a
	// broadcast covering the row's verses is held.
	Span []align.Segment `json:"span"`

	// Err explains a status other than StatusMatched.
	Err error `json:"-"`
}

// Options configures an Engine.
type Options struct {
	// ResourceKey names the original-language resource.
	ResourceKey string

	// Book is the USFM code of the book the rows belong to.
	Book string

	// Matcher tunes quote matching.
	Matcher quote.Options

	// Titles is the capacity of the display title cache. Zero uses the
	// cache default.
	Titles int
}

// Engine resolves rows of one book. It is safe for concurrent use.
//
// Original-language content is loaded for the chapter the reading view shows.
// A load still in flight when the view moves to another chapter is discarded.
type Engine struct {
	loader *coord.Loader
	bus    *coord.Bus
	opts   Options

	titles cache.Cache[string, string]
}

// NewEngine returns an engine that loads content from src and aligns against
// the snapshots published on bus.
func NewEngine(src source.Source, bus *coord.Bus, opts Options) *Engine {
	config := cache.DefaultConfig()
	if opts.Titles > 0 {
		config.MaxSize = opts.Titles
	}
	opts.Book = strings.ToUpper(opts.Book)
	return &Engine{
		loader: coord.NewLoader(src),
		bus:    bus,
		opts:   opts,
		titles: cache.NewLRUCache[string, string](config),
	}
}

// Book returns the engine's book code.
func (e *Engine) Book() string {
	return e.opts.Book
}

// Navigate moves the engine to chapter of its book. Loads started for another
// chapter are discarded.
func (e *Engine) Navigate(chapter int) {
	e.loader.Navigate(e.opts.Book, chapter)
}

// Location returns the book and chapter content is loaded for.
func (e *Engine) Location() coord.Location {
	return e.loader.Current()
}

// Follow keeps the engine on the chapter the reading view shows until ctx is
// done.
func (e *Engine) Follow(ctx context.Context) {
	for range e.bus.Subscribe(ctx) {
		e.followView()
	}
}

// followView navigates to the latest snapshot when it shows the engine's
// book. It reports whether it did.
func (e *Engine) followView() bool {
	snap, ok := e.bus.Latest()
	if !ok || !strings.EqualFold(snap.Reference.Book, e.opts.Book) {
		return false
	}
	e.Navigate(snap.Reference.Chapter)
	return true
}

// Match locates a row's quotation without aligning it.
func (e *Engine) Match(ctx context.Context, row Row) RowResult {
	res := RowResult{Row: row, Span: []align.Segment{}}
	ctx = logging.WithResource(ctx, e.opts.ResourceKey)

	spec, err := ParseQuoteSpec(e.opts.Book, row)
	if err != nil {
		res.Status, res.Err = StatusMalformed, err
		return res
	}
	res.Quote = spec

	if !e.followView() && e.loader.Current().Book == "" {
		e.Navigate(spec.Range.StartChapter)
	}
	chapters, err := e.loader.Load(ctx, e.opts.ResourceKey)
	if err != nil {
		if !source.IsMissing(err) && !errors.Is(err, coord.ErrStale) {
			err = errors.NewMissingContent(e.opts.ResourceKey, e.opts.Book, err)
		}
		res.Status, res.Err = StatusMissingOriginalContent, err
		return res
	}

	found := quote.FindWithOptions(chapters, spec.Quote, spec.Occurrence, spec.Range, e.opts.Matcher)
	if !found.Success {
		res.Status, res.Err = StatusMatchNotFound, errors.ErrMatchNotFound
		logging.QuoteUnmatched(ctx, spec.Range.String(), spec.Quote, spec.Occurrence, res.Err, "id", row.ID)
		return res
	}

	res.Status = StatusMatched
	res.Tokens = found.Tokens
	res.OriginalIDs = semantic.ForMatch(found, e.opts.Book, spec.Occurrence)
	return res
}

// Resolve matches a row and aligns it against the latest broadcast. It never
// fails: every problem is reported through the result's Status.
func (e *Engine) Resolve(ctx context.Context, row Row) RowResult {
	res := e.Match(ctx, row)
	if res.Status != StatusMatched {
		return res
	}

	for i, ref := range e.verses(res.Tokens) {
		span, err := coord.ResolveAligned(e.bus, res.OriginalIDs, ref)
		if err != nil {
			res.Status, res.Err = StatusStaleBroadcast, err
			res.Span = []align.Segment{}
			return res
		}
		if i > 0 && len(span) > 0 && len(res.Span) > 0 {
			res.Span = append(res.Span, align.Segment{Content: align.Gap, Position: span[0].Position, Kind: ir.KindGap})
		}
		res.Span = append(res.Span, span...)
	}
	return res
}

// ResolveAll resolves rows in order.
func (e *Engine) ResolveAll(ctx context.Context, rows []Row) []RowResult {
	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		results = append(results, e.Resolve(ctx, row))
	}
	return results
}

// Activate resolves row and publishes an activation event for it. It returns
// false when the row's quote could not be matched.
func (e *Engine) Activate(ctx context.Context, row Row) (coord.Event, bool) {
	res := e.Match(ctx, row)
	if res.Status != StatusMatched {
		return coord.Event{}, false
	}
	ref := res.Quote.Ref()
	ref.Book = strings.ToLower(ref.Book)
	ev, ok := coord.NewEvent(ref, res.OriginalIDs)
	if !ok {
		return coord.Event{}, false
	}
	return e.bus.Activate(ev), true
}

// Title returns the display title of a row: its reference followed by the
// quotation, with " & " parts shown as an elision.
func (e *Engine) Title(row Row) string {
	key := row.Reference + "\x00" + row.Quote
	if t, ok := e.titles.Get(key); ok {
		return t
	}

	var parts []string
	for _, p := range strings.Split(row.Quote, quote.Separator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	title := e.opts.Book + " " + strings.TrimSpace(row.Reference)
	if len(parts) > 0 {
		title += " " + strings.Join(parts, " "+align.Gap+" ")
	}

	e.titles.Put(key, title)
	return title
}

// TitleStats returns the title cache statistics.
func (e *Engine) TitleStats() cache.Stats {
	return e.titles.Stats()
}

// verses returns the distinct verses of tokens in order of first appearance.
func (e *Engine) verses(tokens []quote.Match) []ir.VerseRef {
	var refs []ir.VerseRef
	seen := make(map[[2]int]bool)
	for _, m := range tokens {
		k := [2]int{m.Chapter, m.Verse}
		if seen[k] {
			continue
		}
		seen[k] = true
		refs = append(refs, ir.VerseRef{Book: e.opts.Book, Chapter: m.Chapter, Verse: m.Verse})
	}
	return refs
}
