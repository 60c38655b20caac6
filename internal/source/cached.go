package source

import (
	"context"
	"sync"

	"github.com/FocuswithJustin/JuniperHelps/core/cache"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
)

// Cached keeps recently loaded books in memory. Concurrent loads of the same
// book share one underlying load.
type Cached struct {
	src   Source
	cache *cache.ChapterCache

	mu       sync.Mutex
	inflight map[cache.ChapterKey]*call
}

type call struct {
	done     chan struct{}
	chapters []ir.Chapter
	err      error
}

// NewCached wraps src with a cache holding up to books books.
func NewCached(src Source, books int) *Cached {
	config := cache.DefaultConfig()
	config.MaxSize = books
	return &Cached{
		src:      src,
		cache:    cache.NewChapterCache(config),
		inflight: make(map[cache.ChapterKey]*call),
	}
}

// Load implements Source. Errors are not cached.
func (c *Cached) Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error) {
	key := cache.NewChapterKey(resourceKey, book)
	if chapters, ok := c.cache.Get(key); ok {
		return chapters, nil
	}

	c.mu.Lock()
	if chapters, ok := c.cache.Get(key); ok {
		c.mu.Unlock()
		return chapters, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.chapters, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.chapters, cl.err = c.src.Load(ctx, resourceKey, book)
	if cl.err == nil {
		c.cache.Put(key, cl.chapters)
	} else {
		logging.Debug("load failed", "key", key.String(), "error", cl.err.Error())
	}

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(cl.done)

	return cl.chapters, cl.err
}

// Invalidate drops a cached book, e.g. after an import replaced it.
func (c *Cached) Invalidate(resourceKey, book string) {
	c.cache.Remove(cache.NewChapterKey(resourceKey, book))
}

// Stats returns cache statistics.
func (c *Cached) Stats() cache.Stats {
	return c.cache.Stats()
}

// Chain tries each source in order, returning the first content found. A
// MissingContentError from one source moves on to the next.
type Chain []Source

// Load implements Source.
func (ch Chain) Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error) {
	var lastErr error
	for _, src := range ch {
		chapters, err := src.Load(ctx, resourceKey, book)
		if err == nil {
			return chapters, nil
		}
		if !IsMissing(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = missing(resourceKey, book)
	}
	return nil, lastErr
}
