package render

import (
	"slices"
	"sync"
)

// Entry is what the Cache keeps for a rendered URL.
type Entry struct {
	// HTML is the serialized post-render DOM.
	HTML string

	// Links are the normalized same-origin links found on the page.
	// They are kept alongside the HTML so a cache hit reports the same
	// outbound links as the render that produced it.
	Links []string
}

// Cache memoizes rendered pages for the lifetime of the process.
// Entries never expire and are never evicted; memory grows with the number
// of distinct URLs rendered. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the entry stored for url.
func (c *Cache) Get(url string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[url]
	if !ok {
		return Entry{}, false
	}
	e.Links = slices.Clone(e.Links)
	return e, true
}

// Put stores e for url, replacing any previous entry.
func (c *Cache) Put(url string, e Entry) {
	e.Links = slices.Clone(e.Links)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = e
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
