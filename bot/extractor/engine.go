// Package extractor drives yt-dlp for searching, listing collections and
// downloading audio.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// ErrNoOutput is returned when yt-dlp exits cleanly but reports no file.
var ErrNoOutput = errors.New("extractor: no output produced")

// Options carries per-request extractor settings.
type Options struct {
	ExtractorArgs string
	CookieFile    string
}

// Entry is one item reported by yt-dlp.
type Entry struct {
	ID         string
	Title      string
	URL        string
	WebpageURL string
	Uploader   string
	Artist     string
	Thumbnail  string
	Duration   time.Duration
	// Path is set for downloaded entries only.
	Path string
}

// Engine is the narrow surface of the extraction tool used by the bot.
type Engine interface {
	// Search runs a search expression such as "scsearch5:daft punk".
	Search(ctx context.Context, expr string, limit int, opts Options) ([]Entry, error)
	// List flat-lists up to limit entries of a collection URL.
	List(ctx context.Context, url string, limit int, opts Options) ([]Entry, error)
	// Download fetches the audio of a single item into dir.
	Download(ctx context.Context, url, dir string, opts Options) (*Entry, error)
}

// YtDlp implements Engine on top of the yt-dlp binary.
type YtDlp struct {
	AudioFormat  string
	AudioQuality string
	Proxy        string
}

// New creates a yt-dlp engine producing audio in format at quality.
func New(format, quality string) *YtDlp {
	if strings.TrimSpace(format) == "" {
		format = "mp3"
	}
	if strings.TrimSpace(quality) == "" {
		quality = "192"
	}
	return &YtDlp{AudioFormat: format, AudioQuality: quality}
}

const (
	flatTemplate     = "%(id)s\t%(title)s\t%(url)s\t%(webpage_url)s\t%(uploader)s\t%(duration)s"
	downloadTemplate = "after_move:%(filepath)s\t%(title)s\t%(artist)s\t%(uploader)s\t%(duration)s\t%(thumbnail)s\t%(id)s\t%(webpage_url)s"
)

// Search implements Engine.
func (y *YtDlp) Search(ctx context.Context, expr string, limit int, opts Options) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	res, err := ytdlp.New().
		FlatPlaylist().
		Print(flatTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		NoWarnings().
		IgnoreConfig().
		Run(ctx, append(y.optionArgs(opts), expr)...)
	if err != nil {
		return nil, runError("search", res, err)
	}
	return parseFlat(res.Stdout), nil
}

// List implements Engine.
func (y *YtDlp) List(ctx context.Context, url string, limit int, opts Options) ([]Entry, error) {
	cmd := ytdlp.New().
		FlatPlaylist().
		Print(flatTemplate).
		NoWarnings().
		IgnoreConfig()
	if limit > 0 {
		cmd = cmd.PlaylistItems(fmt.Sprintf("1-%d", limit))
	}
	res, err := cmd.Run(ctx, append(y.optionArgs(opts), url)...)
	if err != nil {
		return nil, runError("list", res, err)
	}
	return parseFlat(res.Stdout), nil
}

// Download implements Engine.
func (y *YtDlp) Download(ctx context.Context, url, dir string, opts Options) (*Entry, error) {
	args := append(y.audioArgs(), y.optionArgs(opts)...)
	args = append(args, url)

	res, err := ytdlp.New().
		Format("bestaudio/best").
		NoPlaylist().
		NoSimulate().
		Output(filepath.Join(dir, "%(id)s.%(ext)s")).
		Print(downloadTemplate).
		NoWarnings().
		IgnoreConfig().
		Run(ctx, args...)
	if err != nil {
		return nil, runError("download", res, err)
	}

	entry, ok := parseDownload(res.Stdout)
	if !ok {
		entry = &Entry{}
	}
	if entry.Path == "" || !fileExists(entry.Path) {
		entry.Path = newestFile(dir)
	}
	if entry.Path == "" {
		return nil, ErrNoOutput
	}
	return entry, nil
}

func (y *YtDlp) audioArgs() []string {
	return []string{
		"--extract-audio",
		"--audio-format", y.AudioFormat,
		"--audio-quality", y.AudioQuality,
	}
}

func (y *YtDlp) optionArgs(opts Options) []string {
	var args []string
	if opts.ExtractorArgs != "" {
		args = append(args, "--extractor-args", opts.ExtractorArgs)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if y.Proxy != "" {
		args = append(args, "--proxy", y.Proxy)
	}
	return args
}

func runError(op string, res *ytdlp.Result, err error) error {
	if res != nil {
		if line := lastLine(res.Stderr); line != "" {
			return fmt.Errorf("yt-dlp %s: %w: %s", op, err, line)
		}
	}
	return fmt.Errorf("yt-dlp %s: %w", op, err)
}

func parseFlat(stdout string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(ps) < 6 {
			continue
		}
		entries = append(entries, Entry{
			ID:         field(ps[0]),
			Title:      field(ps[1]),
			URL:        field(ps[2]),
			WebpageURL: field(ps[3]),
			Uploader:   field(ps[4]),
			Duration:   parseSeconds(ps[5]),
		})
	}
	return entries
}

func parseDownload(stdout string) (*Entry, bool) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		ps := strings.Split(strings.TrimRight(lines[i], "\r"), "\t")
		if len(ps) < 8 {
			continue
		}
		return &Entry{
			Path:       field(ps[0]),
			Title:      field(ps[1]),
			Artist:     field(ps[2]),
			Uploader:   field(ps[3]),
			Duration:   parseSeconds(ps[4]),
			Thumbnail:  field(ps[5]),
			ID:         field(ps[6]),
			WebpageURL: field(ps[7]),
		}, true
	}
	return nil, false
}

// field normalises yt-dlp's "NA" placeholder to an empty string.
func field(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" || s == "None" {
		return ""
	}
	return s
}

func parseSeconds(s string) time.Duration {
	value, err := strconv.ParseFloat(field(s), 64)
	if err != nil || value <= 0 {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newestFile returns the most recently modified regular file in dir, skipping
// yt-dlp's partial downloads.
func newestFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".part") || strings.HasSuffix(e.Name(), ".ytdl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(dir, e.Name())
			bestMod = info.ModTime()
		}
	}
	return best
}
