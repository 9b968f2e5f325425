package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrEncoderUnavailable is returned when the encoder binary cannot be found.
var ErrEncoderUnavailable = errors.New("audio: encoder unavailable")

// Encoder re-encodes an audio file to mp3 at a constant bitrate.
type Encoder interface {
	Encode(ctx context.Context, input, output string, kbps int) error
}

// FFmpegEncoder encodes with the ffmpeg binary and libmp3lame.
type FFmpegEncoder struct {
	Path string
}

// NewFFmpegEncoder creates an encoder using the binary at path, or "ffmpeg"
// from PATH when empty.
func NewFFmpegEncoder(path string) *FFmpegEncoder {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpegEncoder{Path: path}
}

// Available reports whether the binary can be resolved.
func (e *FFmpegEncoder) Available() bool {
	_, err := exec.LookPath(e.Path)
	return err == nil
}

// Encode implements Encoder.
func (e *FFmpegEncoder) Encode(ctx context.Context, input, output string, kbps int) error {
	bin, err := exec.LookPath(e.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}
	if kbps <= 0 {
		return fmt.Errorf("invalid bitrate %d", kbps)
	}
	cmd := exec.CommandContext(ctx, bin,
		"-y", "-loglevel", "error",
		"-i", input,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(kbps)+"k",
		"-f", "mp3",
		output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encode at %dk failed: %w: %s", kbps, err, strings.TrimSpace(string(out)))
	}
	return nil
}
