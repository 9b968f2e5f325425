package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/audio"
	"github.com/sepehrmoghiseh/musifyyy/bot/download"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// Downloader fetches tracks and collections.
type Downloader interface {
	Download(ctx context.Context, url, platformName string) (*download.Track, error)
	EachAlbumTrack(ctx context.Context, url, platformName string, visit download.AlbumVisitor) (int, error)
}

// SizeLimiter brings a file under the upload ceiling.
type SizeLimiter interface {
	EnsureWithinLimit(ctx context.Context, path string, limit int64) (audio.Result, error)
}

// TrackTagger writes tags and reads stream properties.
type TrackTagger interface {
	Embed(audioPath string, tag audio.TagData, coverPath string) error
	Probe(audioPath string) (audio.Properties, error)
}

// ThumbnailSource downloads cover art into a directory.
type ThumbnailSource interface {
	Fetch(ctx context.Context, rawURL, dir string) (string, error)
}

// TaskSubmitter queues background work without blocking.
type TaskSubmitter interface {
	TrySubmit(task func()) error
}

// TooLargeError reports a file that stayed over the upload limit.
type TooLargeError struct {
	Title string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is %s, limit %s", e.Title, formatSize(e.Size), formatSize(e.Limit))
}

// preparedTrack is a downloaded file that fits the limit and carries tags.
type preparedTrack struct {
	track     *download.Track
	caption   string
	thumbPath string
	bitrate   int
	duration  time.Duration
}

func (p *preparedTrack) cleanup() {
	if p != nil && p.track != nil {
		_ = p.track.Cleanup()
	}
}

// MusicHandler runs the download, shrink, tag and upload pipeline shared by
// chat selections, links and inline picks.
type MusicHandler struct {
	Downloader      Downloader
	Compressor      SizeLimiter
	Tagger          TrackTagger
	Thumbnails      ThumbnailSource
	PlatformManager platform.Manager
	Pool            TaskSubmitter
	RateLimiter     *telegram.RateLimiter
	UploadBot       *telego.Bot
	Analytics       *analytics.Counters
	UploadLimit     int64
	Logger          bot.Logger
}

// Enqueue runs task on the worker pool. When the pool refuses the task the
// status message is replaced with a busy notice.
func (h *MusicHandler) Enqueue(ctx context.Context, b *telego.Bot, chatID int64, statusID int, task func(context.Context)) {
	run := func() { task(ctx) }
	if h.Pool == nil {
		go run()
		return
	}
	if err := h.Pool.TrySubmit(run); err != nil {
		logWarn(h.Logger, "download task rejected", "chat_id", chatID, "error", err)
		h.setStatus(ctx, b, chatID, statusID, busyText, "")
	}
}

// DeliverTrack downloads a single item and sends it to chatID, keeping the
// status message up to date.
func (h *MusicHandler) DeliverTrack(ctx context.Context, b *telego.Bot, chatID int64, statusID int, url, platformName string) {
	display := displayName(h.PlatformManager, platformName)
	h.setStatus(ctx, b, chatID, statusID, fmt.Sprintf(downloadingTemplate, display), "")

	prepared, err := h.fetch(ctx, url, platformName)
	if err != nil {
		h.reportFailure(ctx, b, chatID, statusID, platformName, err)
		return
	}
	defer prepared.cleanup()

	if _, err := h.sendAudio(ctx, b, chatID, prepared); err != nil {
		logError(h.Logger, "send audio failed", "chat_id", chatID, "platform", platformName, "error", err)
		h.setStatus(ctx, b, chatID, statusID, sendFailedText, "")
		return
	}
	h.recordDownload(platformName)
	h.setStatus(ctx, b, chatID, statusID,
		fmt.Sprintf(sentTemplate, markdownSafe(prepared.track.Title), display), telego.ModeMarkdown)
}

// DeliverAlbum sends every track of a collection. Tracks that fail are
// skipped.
func (h *MusicHandler) DeliverAlbum(ctx context.Context, b *telego.Bot, chatID int64, statusID int, url, platformName string) {
	display := displayName(h.PlatformManager, platformName)
	h.setStatus(ctx, b, chatID, statusID, fmt.Sprintf(downloadingTemplate, display), "")

	sent := 0
	_, err := h.Downloader.EachAlbumTrack(ctx, url, platformName, func(index, total int, track *download.Track) error {
		h.setStatus(ctx, b, chatID, statusID, fmt.Sprintf(albumProgressTmpl, display, index+1, total), "")
		prepared, err := h.prepare(ctx, track)
		if err != nil {
			logWarn(h.Logger, "album track skipped", "platform", platformName, "title", track.Title, "error", err)
			return nil
		}
		if _, err := h.sendAudio(ctx, b, chatID, prepared); err != nil {
			logWarn(h.Logger, "album track send failed", "platform", platformName, "title", track.Title, "error", err)
			return nil
		}
		sent++
		h.recordDownload(platformName)
		return nil
	})
	if err != nil && sent == 0 {
		h.reportFailure(ctx, b, chatID, statusID, platformName, err)
		return
	}
	if sent == 0 {
		h.reportFailure(ctx, b, chatID, statusID, platformName, download.ErrNoTracks)
		return
	}
	h.setStatus(ctx, b, chatID, statusID, fmt.Sprintf(albumDoneTemplate, sent, display), "")
}

// fetch downloads and prepares a track. On error nothing is left on disk.
func (h *MusicHandler) fetch(ctx context.Context, url, platformName string) (*preparedTrack, error) {
	if h.Downloader == nil {
		return nil, errors.New("downloader not configured")
	}
	track, err := h.Downloader.Download(ctx, url, platformName)
	if err != nil {
		return nil, err
	}
	prepared, err := h.prepare(ctx, track)
	if err != nil {
		_ = track.Cleanup()
		return nil, err
	}
	return prepared, nil
}

// prepare enforces the upload limit, then tags the file and fetches its
// cover. Only the size check can fail.
func (h *MusicHandler) prepare(ctx context.Context, track *download.Track) (*preparedTrack, error) {
	bitrate := 0
	if h.Compressor != nil && h.UploadLimit > 0 {
		result, err := h.Compressor.EnsureWithinLimit(ctx, track.Path, h.UploadLimit)
		if err != nil {
			return nil, err
		}
		if !result.WithinLimit {
			return nil, &TooLargeError{Title: track.Title, Size: result.FinalSize, Limit: h.UploadLimit}
		}
		bitrate = result.Bitrate
	}

	prepared := &preparedTrack{
		track:    track,
		bitrate:  bitrate,
		duration: track.Duration,
		caption:  audioCaption(track.Title, displayName(h.PlatformManager, track.Platform), bitrate),
	}

	if h.Thumbnails != nil && track.ThumbnailURL != "" {
		thumb, err := h.Thumbnails.Fetch(ctx, track.ThumbnailURL, track.Dir)
		if err != nil {
			logWarn(h.Logger, "thumbnail fetch failed", "url", track.ThumbnailURL, "error", err)
		} else {
			prepared.thumbPath = thumb
		}
	}

	if h.Tagger != nil {
		tag := audio.TagData{Title: track.Title, Artist: track.Artist, Comment: track.SourceURL}
		if err := h.Tagger.Embed(track.Path, tag, prepared.thumbPath); err != nil {
			logWarn(h.Logger, "tagging failed", "path", track.Path, "error", err)
		}
		if prepared.duration <= 0 {
			if props, err := h.Tagger.Probe(track.Path); err == nil {
				prepared.duration = props.Duration
			}
		}
	}
	return prepared, nil
}

type namedFile struct {
	*os.File
	name string
}

func (f namedFile) Name() string { return f.name }

func (h *MusicHandler) sendAudio(ctx context.Context, b *telego.Bot, chatID int64, p *preparedTrack) (*telego.Message, error) {
	uploader := h.UploadBot
	if uploader == nil {
		uploader = b
	}

	file, err := os.Open(p.track.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	params := &telego.SendAudioParams{
		ChatID:    telego.ChatID{ID: chatID},
		Audio:     telego.InputFile{File: namedFile{File: file, name: filepath.Base(p.track.Path)}},
		Caption:   p.caption,
		Title:     p.track.Title,
		Performer: p.track.Artist,
		Duration:  int(p.duration / time.Second),
	}

	var thumb *os.File
	if p.thumbPath != "" {
		if thumb, err = os.Open(p.thumbPath); err == nil {
			defer thumb.Close()
			params.Thumbnail = &telego.InputFile{File: namedFile{File: thumb, name: filepath.Base(p.thumbPath)}}
		} else {
			thumb = nil
		}
	}

	var msg *telego.Message
	err = telegram.WithRetry(ctx, h.RateLimiter, chatID, func() error {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if thumb != nil {
			if _, err := thumb.Seek(0, io.SeekStart); err != nil {
				return err
			}
		}
		var sendErr error
		msg, sendErr = uploader.SendAudio(ctx, params)
		return sendErr
	})
	return msg, err
}

func (h *MusicHandler) reportFailure(ctx context.Context, b *telego.Bot, chatID int64, statusID int, platformName string, err error) {
	logWarn(h.Logger, "delivery failed", "chat_id", chatID, "platform", platformName, "error", err)
	var tooLarge *TooLargeError
	if errors.As(err, &tooLarge) {
		h.setStatus(ctx, b, chatID, statusID, fmt.Sprintf(tooLargeTemplate,
			markdownSafe(tooLarge.Title), formatSize(tooLarge.Limit), formatSize(tooLarge.Size)), telego.ModeMarkdown)
		return
	}
	h.setStatus(ctx, b, chatID, statusID, downloadFailedText(displayName(h.PlatformManager, platformName), err), "")
}

func (h *MusicHandler) recordDownload(platformName string) {
	if h.Analytics != nil {
		h.Analytics.RecordDownload(platformName)
	}
}

func (h *MusicHandler) setStatus(ctx context.Context, b *telego.Bot, chatID int64, statusID int, text, parseMode string) {
	if b == nil {
		return
	}
	if statusID == 0 {
		_, _ = sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
			ChatID:    telego.ChatID{ID: chatID},
			Text:      text,
			ParseMode: parseMode,
		})
		return
	}
	_, _ = editText(ctx, b, h.RateLimiter, &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: statusID,
		Text:      text,
		ParseMode: parseMode,
	})
}
