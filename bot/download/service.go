package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTitle  = "Audio Track"
	defaultArtist = "Unknown Artist"
)

// ErrNoTracks is returned when an album produced no downloadable track.
var ErrNoTracks = errors.New("download: no tracks downloaded")

// Error wraps a download failure with the platform it came from.
type Error struct {
	Platform string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download from %s: %v", e.Platform, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Track is a downloaded audio file inside its own temp directory.
type Track struct {
	Path         string
	Title        string
	Artist       string
	Duration     time.Duration
	ThumbnailURL string
	Platform     string
	SourceURL    string
	Dir          string
}

// Cleanup removes the track's temp directory.
func (t *Track) Cleanup() error {
	if t == nil || t.Dir == "" {
		return nil
	}
	return os.RemoveAll(t.Dir)
}

// AlbumVisitor receives each album track while it is on disk. index is zero
// based and total is the number of listed entries.
type AlbumVisitor func(index, total int, track *Track) error

// ServiceOptions configures a Service.
type ServiceOptions struct {
	TempDir        string
	Concurrency    int
	AlbumMaxTracks int
	Logger         bot.Logger
}

// Service downloads audio through the extraction engine.
type Service struct {
	engine   extractor.Engine
	manager  platform.Manager
	tempDir  string
	sem      *semaphore.Weighted
	albumMax int
	logger   bot.Logger
}

// NewService creates a download service.
func NewService(engine extractor.Engine, manager platform.Manager, opts ServiceOptions) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.AlbumMaxTracks <= 0 {
		opts.AlbumMaxTracks = 50
	}
	if strings.TrimSpace(opts.TempDir) == "" {
		opts.TempDir = filepath.Join(os.TempDir(), "musifyyy")
	}
	return &Service{
		engine:   engine,
		manager:  manager,
		tempDir:  opts.TempDir,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		albumMax: opts.AlbumMaxTracks,
		logger:   opts.Logger,
	}
}

// Download fetches a single item. On error nothing is left on disk.
func (s *Service) Download(ctx context.Context, url, platformName string) (*Track, error) {
	track, err := s.download(ctx, url, platformName)
	if err != nil {
		return nil, &Error{Platform: platformName, Err: err}
	}
	return track, nil
}

func (s *Service) download(ctx context.Context, url, platformName string) (*Track, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("empty url")
	}
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	dir, err := os.MkdirTemp(s.tempDir, "dl-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	entry, err := s.engine.Download(ctx, url, dir, s.extractorOptions(platformName))
	s.sem.Release(1)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if entry == nil || entry.Path == "" {
		_ = os.RemoveAll(dir)
		return nil, extractor.ErrNoOutput
	}

	track := &Track{
		Path:         entry.Path,
		Title:        firstNonEmpty(entry.Title, defaultTitle),
		Artist:       firstNonEmpty(entry.Artist, entry.Uploader, defaultArtist),
		Duration:     entry.Duration,
		ThumbnailURL: entry.Thumbnail,
		Platform:     platformName,
		SourceURL:    url,
		Dir:          dir,
	}
	if s.logger != nil {
		s.logger.Debug("download finished", "platform", platformName, "url", url, "path", track.Path)
	}
	return track, nil
}

// DownloadAlbum downloads every track of a collection. Failed tracks are
// skipped; the caller owns cleanup of the returned tracks.
func (s *Service) DownloadAlbum(ctx context.Context, url, platformName string) ([]*Track, error) {
	var tracks []*Track
	_, err := s.eachAlbumTrack(ctx, url, platformName, false, func(_, _ int, track *Track) error {
		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		for _, track := range tracks {
			_ = track.Cleanup()
		}
		return nil, err
	}
	return tracks, nil
}

// EachAlbumTrack downloads collection tracks one at a time and hands each
// to visit, removing it from disk afterwards. It returns the number of
// tracks visited. A visit error stops the iteration.
func (s *Service) EachAlbumTrack(ctx context.Context, url, platformName string, visit AlbumVisitor) (int, error) {
	return s.eachAlbumTrack(ctx, url, platformName, true, visit)
}

func (s *Service) eachAlbumTrack(ctx context.Context, url, platformName string, cleanup bool, visit AlbumVisitor) (int, error) {
	urls, err := s.albumURLs(ctx, url, platformName)
	if err != nil {
		return 0, &Error{Platform: platformName, Err: err}
	}

	visited := 0
	for i, itemURL := range urls {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		track, err := s.download(ctx, itemURL, platformName)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("album track failed", "platform", platformName, "url", itemURL, "error", err)
			}
			continue
		}
		visitErr := visit(i, len(urls), track)
		if cleanup {
			_ = track.Cleanup()
		}
		if visitErr != nil {
			return visited, visitErr
		}
		visited++
	}
	if visited == 0 {
		return 0, &Error{Platform: platformName, Err: ErrNoTracks}
	}
	return visited, nil
}

// albumURLs lists the collection. One entry or fewer means the URL is
// treated as a single item.
func (s *Service) albumURLs(ctx context.Context, url, platformName string) ([]string, error) {
	entries, err := s.engine.List(ctx, url, s.albumMax, s.extractorOptions(platformName))
	if err != nil {
		return nil, err
	}
	if len(entries) <= 1 {
		return []string{url}, nil
	}
	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		if itemURL := entryURL(entry); itemURL != "" {
			urls = append(urls, itemURL)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoTracks
	}
	return urls, nil
}

func (s *Service) extractorOptions(platformName string) extractor.Options {
	if s.manager == nil {
		return extractor.Options{}
	}
	provider, ok := s.manager.Get(platformName).(platform.DownloadOptionsProvider)
	if !ok {
		return extractor.Options{}
	}
	opts := provider.DownloadOptions()
	return extractor.Options{ExtractorArgs: opts.ExtractorArgs, CookieFile: opts.CookieFile}
}

func entryURL(entry extractor.Entry) string {
	for _, candidate := range []string{entry.URL, entry.WebpageURL} {
		if strings.HasPrefix(candidate, "https://") || strings.HasPrefix(candidate, "http://") {
			return candidate
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
