package markdown

import (
	"context"
	"sync"

	"github.com/inful/mdfp"
)

// DefaultCacheEntries bounds a CachingParser created with a non-positive size.
const DefaultCacheEntries = 4096

// CachingParser reuses the parse of a document whose content fingerprint has been seen
// before. Parsed documents are treated as read-only by every consumer, so they are shared.
type CachingParser struct {
	next Parser
	size int

	mu      sync.Mutex
	entries map[string]*Document
	hits    int
	misses  int
}

// NewCachingParser wraps next with a content-addressed cache of at most size documents.
// The cache is cleared when it fills up.
func NewCachingParser(next Parser, size int) *CachingParser {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	return &CachingParser{next: next, size: size, entries: make(map[string]*Document)}
}

// Parse returns the cached document for raw or parses it with the wrapped parser.
// Failed parses are not cached.
func (c *CachingParser) Parse(ctx context.Context, raw []byte) (*Document, error) {
	key := mdfp.CalculateFingerprintFromParts("", string(raw))

	c.mu.Lock()
	if doc, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return doc, nil
	}
	c.misses++
	c.mu.Unlock()

	doc, err := c.next.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) >= c.size {
		clear(c.entries)
	}
	c.entries[key] = doc
	c.mu.Unlock()
	return doc, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *CachingParser) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
