package audio

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"go.senan.xyz/taglib"
)

const maxCoverSize = 10 * 1024 * 1024

// TagData holds the fields written into the audio file.
type TagData struct {
	Title   string
	Artist  string
	Album   string
	Comment string
}

// Properties are the stream properties read back from a file.
type Properties struct {
	Duration time.Duration
	Bitrate  int
}

// Tagger writes ID3 tags and reads audio properties.
type Tagger struct {
	logger bot.Logger
}

// NewTagger creates a tagger.
func NewTagger(logger bot.Logger) *Tagger {
	return &Tagger{logger: logger}
}

// Embed writes tag and, when coverPath is set, the front cover. Only mp3
// files are tagged; other formats are left untouched.
func (t *Tagger) Embed(audioPath string, tag TagData, coverPath string) error {
	if !strings.EqualFold(filepath.Ext(audioPath), ".mp3") {
		return nil
	}
	meta, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags: %w", err)
	}
	defer meta.Close()

	meta.SetDefaultEncoding(id3v2.EncodingUTF8)
	if tag.Title != "" {
		meta.SetTitle(tag.Title)
	}
	if tag.Artist != "" {
		meta.SetArtist(tag.Artist)
	}
	if tag.Album != "" {
		meta.SetAlbum(tag.Album)
	}
	if tag.Comment != "" {
		meta.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     tag.Comment,
		})
	}
	t.writeCover(meta, coverPath)

	return meta.Save()
}

func (t *Tagger) writeCover(meta *id3v2.Tag, coverPath string) {
	if coverPath == "" {
		return
	}
	artwork, err := readCoverWithLimit(coverPath, maxCoverSize)
	if err != nil {
		if t.logger != nil {
			t.logger.Warn("failed to read cover for embedding", "error", err)
		}
		return
	}
	if len(artwork) == 0 {
		return
	}
	meta.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingISO,
		MimeType:    http.DetectContentType(artwork[:min(len(artwork), 32)]),
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     artwork,
	})
}

// Probe reads duration and bitrate from the file.
func (t *Tagger) Probe(audioPath string) (Properties, error) {
	props, err := taglib.ReadProperties(audioPath)
	if err != nil {
		return Properties{}, fmt.Errorf("read properties: %w", err)
	}
	return Properties{Duration: props.Length, Bitrate: int(props.Bitrate)}, nil
}

func readCoverWithLimit(path string, maxSize int64) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if stat.Size() > maxSize {
		return nil, fmt.Errorf("cover image too large: %d bytes (max %d)", stat.Size(), maxSize)
	}
	return os.ReadFile(path)
}
