package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder writes outputs whose size is a function of the bitrate.
type fakeEncoder struct {
	sizes map[int]int
	fail  map[int]bool
	err   error
	calls []int
	input []string
}

func (f *fakeEncoder) Encode(ctx context.Context, input, output string, kbps int) error {
	f.calls = append(f.calls, kbps)
	f.input = append(f.input, input)
	if f.err != nil {
		return f.err
	}
	if f.fail[kbps] {
		_ = os.WriteFile(output, []byte("partial"), 0o644)
		return errors.New("encoder crashed")
	}
	return os.WriteFile(output, make([]byte, f.sizes[kbps]), 0o644)
}

func writeSized(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func onlyFile(t *testing.T, path string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestEnsureWithinLimitCompliantIsIdempotent(t *testing.T) {
	path := writeSized(t, 500)
	enc := &fakeEncoder{}
	c := NewCompressor(enc, nil)

	first, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)
	second, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)

	assert.Equal(t, Result{FinalSize: 500, WithinLimit: true}, first)
	assert.Equal(t, first, second)
	assert.Empty(t, enc.calls)
}

func TestEnsureWithinLimitStopsAtFirstFit(t *testing.T) {
	path := writeSized(t, 2000)
	enc := &fakeEncoder{sizes: map[int]int{160: 1500, 128: 900, 96: 600, 64: 400}}
	c := NewCompressor(enc, nil)

	res, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)
	assert.True(t, res.WithinLimit)
	assert.Equal(t, 128, res.Bitrate)
	assert.Equal(t, int64(900), res.FinalSize)
	assert.Equal(t, []int{160, 128}, enc.calls)
	for _, in := range enc.input {
		assert.Equal(t, path, in)
	}
	assert.Equal(t, int64(900), fileSize(t, path))
	onlyFile(t, path)
}

func TestEnsureWithinLimitKeepsSmallestWhenNothingFits(t *testing.T) {
	path := writeSized(t, 5000)
	enc := &fakeEncoder{sizes: map[int]int{160: 4000, 128: 3000, 96: 2500, 64: 2600}}
	c := NewCompressor(enc, nil)

	res, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)
	assert.False(t, res.WithinLimit)
	assert.Equal(t, int64(2500), res.FinalSize)
	assert.Equal(t, 96, res.Bitrate)
	assert.Equal(t, []int{160, 128, 96, 64}, enc.calls)
	assert.Equal(t, int64(2500), fileSize(t, path))
	onlyFile(t, path)
}

func TestEnsureWithinLimitFailedAttemptLeavesNoPartial(t *testing.T) {
	path := writeSized(t, 2000)
	enc := &fakeEncoder{
		sizes: map[int]int{128: 800},
		fail:  map[int]bool{160: true},
	}
	c := NewCompressor(enc, nil)

	res, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)
	assert.True(t, res.WithinLimit)
	assert.Equal(t, 128, res.Bitrate)
	onlyFile(t, path)
}

func TestEnsureWithinLimitEncoderUnavailable(t *testing.T) {
	path := writeSized(t, 2000)
	enc := &fakeEncoder{err: ErrEncoderUnavailable}
	c := NewCompressor(enc, nil)

	res, err := c.EnsureWithinLimit(context.Background(), path, 1000)
	require.NoError(t, err)
	assert.Equal(t, Result{FinalSize: 2000}, res)
	assert.Equal(t, []int{160}, enc.calls)
	onlyFile(t, path)
}

func TestEnsureWithinLimitMissingInput(t *testing.T) {
	c := NewCompressor(&fakeEncoder{}, nil)
	_, err := c.EnsureWithinLimit(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"), 10)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "stat input"))
}

func TestFFmpegEncoderMissingBinary(t *testing.T) {
	enc := NewFFmpegEncoder("definitely-not-ffmpeg-binary")
	assert.False(t, enc.Available())
	err := enc.Encode(context.Background(), "in.mp3", "out.mp3", 128)
	assert.ErrorIs(t, err, ErrEncoderUnavailable)
}
