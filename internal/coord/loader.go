package coord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
	"github.com/FocuswithJustin/JuniperHelps/internal/source"
)

// ErrStale is returned by Loader.Load when navigation moved on while the load
// was in flight.
var ErrStale = errors.ErrStaleLoad

// Location is a navigation target.
type Location struct {
	Book    string
	Chapter int
}

func (l Location) String() string {
	return fmt.Sprintf("%s %d", strings.ToUpper(l.Book), l.Chapter)
}

// Loader loads original-language content for the current navigation target.
// Loads that finish after navigation moved elsewhere are discarded.
type Loader struct {
	src source.Source

	mu      sync.Mutex
	current Location
	pending map[*pendingLoad]struct{}
}

type pendingLoad struct {
	at     Location
	cancel context.CancelFunc
}

// NewLoader returns a loader reading from src.
func NewLoader(src source.Source) *Loader {
	return &Loader{
		src:     src,
		pending: make(map[*pendingLoad]struct{}),
	}
}

// Navigate sets the current book and chapter. Pending loads for any other
// location are cancelled.
func (l *Loader) Navigate(book string, chapter int) {
	at := Location{Book: strings.ToUpper(book), Chapter: chapter}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = at
	for p := range l.pending {
		if p.at != at {
			p.cancel()
		}
	}
}

// Current returns the current navigation target.
func (l *Loader) Current() Location {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load loads the current book from resourceKey. If navigation changes before
// the load completes the result is discarded and ErrStale is returned.
func (l *Loader) Load(ctx context.Context, resourceKey string) ([]ir.Chapter, error) {
	l.mu.Lock()
	at := l.current
	if at.Book == "" {
		l.mu.Unlock()
		return nil, errors.NewValidation("book", "no book selected")
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &pendingLoad{at: at, cancel: cancel}
	l.pending[p] = struct{}{}
	l.mu.Unlock()

	chapters, err := l.src.Load(ctx, resourceKey, at.Book)

	l.mu.Lock()
	delete(l.pending, p)
	now := l.current
	l.mu.Unlock()
	cancel()

	if now != at {
		logging.StaleLoad(resourceKey, at.Book, at.Chapter, now.String())
		return nil, ErrStale
	}
	if err != nil {
		if source.IsMissing(err) {
			logging.ContentMissing(resourceKey, at.Book, err)
		}
		return nil, err
	}
	return chapters, nil
}
