// Package audio post-processes downloaded files: size compliance, tags and
// cover art.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sepehrmoghiseh/musifyyy/bot"
)

// DefaultBitrates are tried in order until the output fits.
var DefaultBitrates = []int{160, 128, 96, 64}

// Result describes the outcome of EnsureWithinLimit.
type Result struct {
	// FinalSize is the size of the file at path after the call.
	FinalSize int64
	// Bitrate is the kbps the file was re-encoded at, 0 when untouched.
	Bitrate int
	// WithinLimit reports whether FinalSize fits the limit.
	WithinLimit bool
}

// Compressor shrinks audio files to fit an upload ceiling.
type Compressor struct {
	encoder  Encoder
	bitrates []int
	logger   bot.Logger
}

// NewCompressor creates a compressor. A nil encoder behaves as unavailable.
func NewCompressor(encoder Encoder, logger bot.Logger) *Compressor {
	return &Compressor{encoder: encoder, bitrates: DefaultBitrates, logger: logger}
}

// EnsureWithinLimit leaves path at or under limit bytes when it can. Each
// attempt encodes the original input. When nothing fits, the smallest
// output replaces the original and WithinLimit is false. The only error is
// a failure to stat the input.
func (c *Compressor) EnsureWithinLimit(ctx context.Context, path string, limit int64) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat input: %w", err)
	}
	size := info.Size()
	if size <= limit {
		return Result{FinalSize: size, WithinLimit: true}, nil
	}
	if c.encoder == nil {
		return Result{FinalSize: size}, nil
	}

	var (
		best     string
		bestSize = size
		bestRate int
	)
	for _, kbps := range c.bitrates {
		out := fmt.Sprintf("%s.%dk.tmp", path, kbps)
		if err := c.encoder.Encode(ctx, path, out, kbps); err != nil {
			_ = os.Remove(out)
			if errors.Is(err, ErrEncoderUnavailable) {
				c.warn("encoder unavailable, cannot shrink file", "path", path, "error", err)
				break
			}
			if ctx.Err() != nil {
				break
			}
			c.warn("re-encode attempt failed", "path", path, "kbps", kbps, "error", err)
			continue
		}

		outInfo, err := os.Stat(out)
		if err != nil {
			_ = os.Remove(out)
			continue
		}
		if outInfo.Size() <= limit {
			if best != "" {
				_ = os.Remove(best)
			}
			if err := os.Rename(out, path); err != nil {
				_ = os.Remove(out)
				c.warn("replace original failed", "path", path, "error", err)
				continue
			}
			return Result{FinalSize: outInfo.Size(), Bitrate: kbps, WithinLimit: true}, nil
		}
		if outInfo.Size() < bestSize {
			if best != "" {
				_ = os.Remove(best)
			}
			best, bestSize, bestRate = out, outInfo.Size(), kbps
		} else {
			_ = os.Remove(out)
		}
	}

	if best != "" {
		if err := os.Rename(best, path); err != nil {
			_ = os.Remove(best)
			return Result{FinalSize: size}, nil
		}
		return Result{FinalSize: bestSize, Bitrate: bestRate}, nil
	}
	return Result{FinalSize: size}, nil
}

func (c *Compressor) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
