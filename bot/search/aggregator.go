// Package search merges results from the configured platforms into one
// ranked, display-ready list.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds a single platform query.
const DefaultTimeout = 25 * time.Second

// Aggregator queries platforms in priority order. Each later platform is
// asked only for the shortfall left by the ones before it.
type Aggregator struct {
	platforms []platform.Platform
	breakers  map[string]*gobreaker.CircuitBreaker
	meta      map[string]platform.Meta
	timeout   time.Duration
	logger    bot.Logger
}

// New creates an aggregator over platforms, highest priority first.
func New(platforms []platform.Platform, timeout time.Duration, logger bot.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a := &Aggregator{
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(platforms)),
		meta:     make(map[string]platform.Meta, len(platforms)),
		timeout:  timeout,
		logger:   logger,
	}
	for _, p := range platforms {
		if p == nil {
			continue
		}
		name := p.Name()
		if _, dup := a.breakers[name]; dup {
			continue
		}
		a.platforms = append(a.platforms, p)
		a.meta[name] = platform.MetaOf(p)
		a.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name + "-search",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		})
	}
	return a
}

// Platforms returns the platform names in priority order.
func (a *Aggregator) Platforms() []string {
	names := make([]string, 0, len(a.platforms))
	for _, p := range a.platforms {
		names = append(names, p.Name())
	}
	return names
}

// Search returns up to desired results. Platform failures are logged and
// treated as empty, so the result is empty only when every platform came
// back with nothing usable.
func (a *Aggregator) Search(ctx context.Context, query string, desired int) []platform.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || desired <= 0 {
		return []platform.SearchResult{}
	}

	results := make([]platform.SearchResult, 0, desired)
	for _, p := range a.platforms {
		shortfall := desired - len(results)
		if shortfall <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}

		name := p.Name()
		tracks, err := a.query(ctx, p, query, shortfall)
		if err != nil {
			a.warn("platform search failed", "platform", name, "query", query, "error", err)
			continue
		}

		accepted := 0
		for _, track := range tracks {
			if accepted == shortfall {
				break
			}
			result, ok := a.toResult(name, track)
			if !ok {
				continue
			}
			results = append(results, result)
			accepted++
		}
		a.debug("platform search done", "platform", name, "requested", shortfall, "accepted", accepted)
	}
	return results
}

func (a *Aggregator) query(ctx context.Context, p platform.Platform, query string, limit int) ([]platform.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.breakers[p.Name()].Execute(func() (interface{}, error) {
		return p.Search(ctx, query, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, platform.NewUnavailableError(p.Name(), "search")
	}
	if err != nil {
		return nil, err
	}
	tracks, _ := out.([]platform.Track)
	return tracks, nil
}

func (a *Aggregator) toResult(name string, track platform.Track) (platform.SearchResult, bool) {
	title := strings.TrimSpace(track.Title)
	if title == "" || title == "NA" {
		return platform.SearchResult{}, false
	}
	if !isAbsoluteURL(track.URL) {
		return platform.SearchResult{}, false
	}

	emoji := a.meta[name].Emoji
	if track.Kind == platform.KindAlbum {
		emoji = platform.AlbumEmoji
	}
	return platform.SearchResult{
		Title:    platform.FormatTitle(emoji, title, track.Duration),
		URL:      track.URL,
		Platform: name,
		Kind:     track.Kind,
	}, true
}

func isAbsoluteURL(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}

func (a *Aggregator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
