package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(n int, prefix string) []platform.SearchResult {
	out := make([]platform.SearchResult, n)
	for i := range out {
		out[i] = platform.SearchResult{Title: fmt.Sprintf("%s %d", prefix, i), URL: fmt.Sprintf("https://x/%s/%d", prefix, i)}
	}
	return out
}

func TestResultsStaleSelection(t *testing.T) {
	c := NewResults()

	_, ok := c.Get(42, 0)
	assert.False(t, ok, "no prior search")

	c.Put(42, results(3, "a"))
	got, ok := c.Get(42, 2)
	require.True(t, ok)
	assert.Equal(t, "a 2", got.Title)

	_, ok = c.Get(42, 3)
	assert.False(t, ok)
	_, ok = c.Get(42, -1)
	assert.False(t, ok)
}

func TestResultsLastSearchWins(t *testing.T) {
	c := NewResults()
	c.Put(1, results(5, "old"))
	c.Put(1, results(2, "new"))

	got, ok := c.Get(1, 1)
	require.True(t, ok)
	assert.Equal(t, "new 1", got.Title)
	_, ok = c.Get(1, 4)
	assert.False(t, ok)

	list, ok := c.List(1)
	require.True(t, ok)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, c.Len())
}

func TestResultsIsolatedFromCaller(t *testing.T) {
	c := NewResults()
	in := results(1, "a")
	c.Put(7, in)
	in[0].Title = "mutated"

	got, _ := c.Get(7, 0)
	assert.Equal(t, "a 0", got.Title)
}

func TestInlineTakeConsumes(t *testing.T) {
	c := NewInline()
	id := c.Put(InlineEntry{Title: "Song", URL: "https://soundcloud.com/a/b", Platform: "soundcloud", Query: "song"})
	require.NotEmpty(t, id)

	entry, ok := c.Take(id)
	require.True(t, ok)
	assert.Equal(t, "Song", entry.Title)

	_, ok = c.Take(id)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestInlineConcurrentTakeOnce(t *testing.T) {
	c := NewInline()
	id := c.Put(InlineEntry{Title: "Song"})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Take(id); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, taken)
}
