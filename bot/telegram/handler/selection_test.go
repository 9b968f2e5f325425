package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		data string
		want Selection
	}{
		{"download_3", Selection{Kind: SelectDownload, Index: 3}},
		{"album_0", Selection{Kind: SelectAlbum, Index: 0}},
		{"page_2", Selection{Kind: SelectPage, Index: 2}},
		{"noop", Selection{Kind: SelectNoop}},
		{"7", Selection{Kind: SelectDownload, Index: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := ParseSelection(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelectionRejectsMalformed(t *testing.T) {
	for _, data := range []string{"", "download_", "download_-1", "page_+1", "album_x", "-2", " 1", "play_1", "1234567890", "noop_1"} {
		_, err := ParseSelection(data)
		assert.ErrorIs(t, err, ErrInvalidSelection, "data %q", data)
	}
}

func TestSelectionEncodeRoundTrip(t *testing.T) {
	for _, sel := range []Selection{
		{Kind: SelectDownload, Index: 12},
		{Kind: SelectAlbum, Index: 1},
		{Kind: SelectPage, Index: 4},
		{Kind: SelectNoop},
	} {
		got, err := ParseSelection(sel.Encode())
		require.NoError(t, err)
		assert.Equal(t, sel, got)
	}
	assert.Equal(t, "download_5", Selection{Kind: SelectDownload, Index: 5}.Encode())
}
