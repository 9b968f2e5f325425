package audio

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nfnt/resize"
)

const (
	thumbSize     = 320
	thumbMaxBytes = 200 * 1024
	maxFetchBytes = 10 * 1024 * 1024
)

// ThumbnailFetcher downloads cover art and prepares it as a Telegram audio
// thumbnail.
type ThumbnailFetcher struct {
	client *retryablehttp.Client
}

// NewThumbnailFetcher creates a fetcher with retrying HTTP.
func NewThumbnailFetcher(timeout time.Duration) *ThumbnailFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	return &ThumbnailFetcher{client: client}
}

// Fetch downloads rawURL into dir and returns the path of a 320x320 JPEG.
// The original download is removed; the resized file lives in dir.
func (f *ThumbnailFetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("thumbnail url missing")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch thumbnail: status %d", resp.StatusCode)
	}

	raw, err := os.CreateTemp(dir, "thumb-*")
	if err != nil {
		return "", err
	}
	rawPath := raw.Name()
	defer os.Remove(rawPath)

	if _, err := io.Copy(raw, io.LimitReader(resp.Body, maxFetchBytes)); err != nil {
		_ = raw.Close()
		return "", err
	}
	if err := raw.Close(); err != nil {
		return "", err
	}
	return resizeImg(rawPath, filepath.Join(dir, "thumb.jpg"))
}

// resizeImg scales the image into a 320x320 square with padding and writes
// it as JPEG to dst.
func resizeImg(src, dst string) (string, error) {
	img, err := decodeJPEGOrPNG(src)
	if err != nil {
		return "", err
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return "", fmt.Errorf("empty image %s", src)
	}

	var m image.Image
	if width >= height {
		m = resize.Resize(thumbSize, uint(height*thumbSize/width), img, resize.Lanczos3)
	} else {
		m = resize.Resize(uint(width*thumbSize/height), thumbSize, img, resize.Lanczos3)
	}

	square := image.NewNRGBA(image.Rect(0, 0, thumbSize, thumbSize))
	offset := image.Point{
		X: (thumbSize - m.Bounds().Dx()) / 2,
		Y: (thumbSize - m.Bounds().Dy()) / 2,
	}
	draw.Draw(square, m.Bounds().Add(offset), m, m.Bounds().Min, draw.Src)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if err := jpeg.Encode(out, square, &jpeg.Options{Quality: 85}); err != nil {
		_ = out.Close()
		return "", err
	}
	if stat, err := out.Stat(); err == nil && stat.Size() > thumbMaxBytes {
		if _, err := out.Seek(0, io.SeekStart); err != nil {
			_ = out.Close()
			return "", err
		}
		if err := out.Truncate(0); err != nil {
			_ = out.Close()
			return "", err
		}
		if err := jpeg.Encode(out, square, &jpeg.Options{Quality: 60}); err != nil {
			_ = out.Close()
			return "", err
		}
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

func decodeJPEGOrPNG(filePath string) (image.Image, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, jpegErr := jpeg.Decode(file)
	if jpegErr == nil {
		return img, nil
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, pngErr := png.Decode(file)
	if pngErr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image decode error %s", filePath)
}
