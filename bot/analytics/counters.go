// Package analytics keeps in-memory usage counters for the /stats command
// and mirrors them into Prometheus.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultTop is the number of entries shown per ranking in Summary.
const DefaultTop = 5

// Entry is one ranked counter.
type Entry struct {
	Key   string
	Count int64
}

// Snapshot holds the totals.
type Snapshot struct {
	Searches  int64
	Downloads int64
}

// Counters accumulates usage for the life of the process.
type Counters struct {
	mu        sync.Mutex
	searches  int64
	downloads int64
	queries   map[string]int64
	platforms map[string]int64
	inline    map[string]int64

	searchTotal   prometheus.Counter
	downloadTotal *prometheus.CounterVec
	inlineTotal   prometheus.Counter
}

// New creates counters. When reg is non-nil the Prometheus collectors are
// registered with it.
func New(reg prometheus.Registerer) *Counters {
	c := &Counters{
		queries:   make(map[string]int64),
		platforms: make(map[string]int64),
		inline:    make(map[string]int64),
	}
	if reg == nil {
		return c
	}
	c.searchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "musifyyy_searches_total",
		Help: "Searches performed, chat and inline.",
	})
	c.downloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "musifyyy_downloads_total",
		Help: "Downloads requested by platform.",
	}, []string{"platform"})
	c.inlineTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "musifyyy_inline_selections_total",
		Help: "Inline results picked by users.",
	})
	reg.MustRegister(c.searchTotal, c.downloadTotal, c.inlineTotal)
	return c
}

// RecordSearch counts a search for query.
func (c *Counters) RecordSearch(query string) {
	key := normalize(query)
	c.mu.Lock()
	c.searches++
	if key != "" {
		c.queries[key]++
	}
	c.mu.Unlock()
	if c.searchTotal != nil {
		c.searchTotal.Inc()
	}
}

// RecordDownload counts a download from platform.
func (c *Counters) RecordDownload(platform string) {
	c.mu.Lock()
	c.downloads++
	c.platforms[platform]++
	c.mu.Unlock()
	if c.downloadTotal != nil {
		c.downloadTotal.WithLabelValues(platform).Inc()
	}
}

// RecordInlineSelection counts an inline pick made for query.
func (c *Counters) RecordInlineSelection(query string) {
	key := normalize(query)
	c.mu.Lock()
	if key != "" {
		c.inline[key]++
	}
	c.mu.Unlock()
	if c.inlineTotal != nil {
		c.inlineTotal.Inc()
	}
}

// Snapshot returns the totals.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Searches: c.searches, Downloads: c.downloads}
}

// TopQueries returns the n most frequent search queries.
func (c *Counters) TopQueries(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ranked(c.queries, n)
}

// TopInline returns the n most frequent inline queries that led to a pick.
func (c *Counters) TopInline(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ranked(c.inline, n)
}

// PlatformUsage returns downloads per platform, most used first.
func (c *Counters) PlatformUsage() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ranked(c.platforms, 0)
}

// Summary renders the statistics as Telegram Markdown. users is the number
// of known users, or negative when unknown.
func (c *Counters) Summary(users int64) string {
	snap := c.Snapshot()

	var b strings.Builder
	b.WriteString("📊 *Bot Statistics*\n\n")
	if users >= 0 {
		fmt.Fprintf(&b, "👥 Users: %d\n", users)
	}
	fmt.Fprintf(&b, "🔍 Total Searches: %d\n", snap.Searches)
	fmt.Fprintf(&b, "⬇️ Total Downloads: %d\n\n", snap.Downloads)

	b.WriteString("*Top Search Queries:*\n")
	writeRanking(&b, c.TopQueries(DefaultTop), "%d. %s (%dx)\n")

	b.WriteString("\n*Top Inline Selections:*\n")
	writeRanking(&b, c.TopInline(DefaultTop), "%d. %s (%dx)\n")

	b.WriteString("\n*Platform Usage:*\n")
	usage := c.PlatformUsage()
	if len(usage) == 0 {
		b.WriteString("_No data yet_\n")
	}
	for _, e := range usage {
		fmt.Fprintf(&b, "• %s: %d downloads\n", escapeMarkdown(e.Key), e.Count)
	}
	return b.String()
}

func writeRanking(b *strings.Builder, entries []Entry, format string) {
	if len(entries) == 0 {
		b.WriteString("_No data yet_\n")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(b, format, i+1, escapeMarkdown(e.Key), e.Count)
	}
}

// ranked sorts by count descending, then key ascending. n <= 0 means all.
func ranked(m map[string]int64, n int) []Entry {
	out := make([]Entry, 0, len(m))
	for k, v := range m {
		out = append(out, Entry{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var markdownReplacer = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}
