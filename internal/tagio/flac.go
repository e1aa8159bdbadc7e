package tagio

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/desertthunder/audiotag/internal/models"
)

// FlacWriter writes vorbis comments and front cover artwork into FLAC
// files in place.
type FlacWriter struct{}

// NewFlacWriter creates a Writer for FLAC files.
func NewFlacWriter() *FlacWriter {
	return &FlacWriter{}
}

// Write replaces the file's vorbis comment block with the store's tags
// and embeds cover art when the store carries any.
func (fw *FlacWriter) Write(path string, store *models.Store) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse flac %s: %w", path, err)
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	comment := flacvorbis.New()
	for name, t := range store.Snapshot() {
		if t.Kind == models.KindBlob || t.Kind == models.KindList {
			continue
		}
		if err := comment.Add(strings.ToUpper(name), t.String()); err != nil {
			return fmt.Errorf("failed to add comment %s: %w", name, err)
		}
	}

	// synced lyric lines are stored as one LRC body
	if t, ok := store.Get(models.TagSyncedLyrics); ok && t.Kind == models.KindList {
		body := strings.Join(t.ListValue(), "\n")
		if err := comment.Add(strings.ToUpper(models.TagSyncedLyrics), body); err != nil {
			return fmt.Errorf("failed to add synced lyrics: %w", err)
		}
	}

	commentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &commentBlock)

	if art, ok := store.Get(models.TagCoverArt); ok {
		data := art.BlobValue()
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", data, imageMIME(data))
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}

		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save flac %s: %w", path, err)
	}

	return nil
}

func imageMIME(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "image/png"
	}
	return "image/jpeg"
}
