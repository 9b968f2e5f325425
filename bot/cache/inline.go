package cache

import (
	"sync"

	"github.com/google/uuid"
)

// InlineEntry is a result offered in answer to an inline query.
type InlineEntry struct {
	Title    string
	URL      string
	Platform string
	Query    string
}

// Inline maps inline result ids to their entries until the user picks one.
type Inline struct {
	mu      sync.Mutex
	entries map[string]InlineEntry
}

// NewInline creates an empty inline cache.
func NewInline() *Inline {
	return &Inline{entries: make(map[string]InlineEntry)}
}

// Put stores entry under a fresh id and returns the id.
func (c *Inline) Put(entry InlineEntry) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.entries[id] = entry
	c.mu.Unlock()
	return id
}

// Take returns and removes the entry stored under id.
func (c *Inline) Take(id string) (InlineEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	return entry, ok
}

// Len returns the number of pending entries.
func (c *Inline) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
