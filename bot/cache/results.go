// Package cache holds the per-user search results and the pending inline
// selections.
package cache

import (
	"sync"

	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

// Results keeps the last search of each user. Callback payloads refer to
// entries by index, so a new search invalidates the previous indices.
type Results struct {
	mu      sync.RWMutex
	entries map[int64][]platform.SearchResult
}

// NewResults creates an empty result cache.
func NewResults() *Results {
	return &Results{entries: make(map[int64][]platform.SearchResult)}
}

// Put replaces the user's cached results.
func (c *Results) Put(userID int64, results []platform.SearchResult) {
	stored := make([]platform.SearchResult, len(results))
	copy(stored, results)

	c.mu.Lock()
	c.entries[userID] = stored
	c.mu.Unlock()
}

// Get returns the result at index from the user's last search.
func (c *Results) Get(userID int64, index int) (platform.SearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results, ok := c.entries[userID]
	if !ok || index < 0 || index >= len(results) {
		return platform.SearchResult{}, false
	}
	return results[index], true
}

// List returns a copy of the user's last search.
func (c *Results) List(userID int64) ([]platform.SearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	out := make([]platform.SearchResult, len(results))
	copy(out, results)
	return out, true
}

// Len returns the number of users with cached results.
func (c *Results) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
