// package tagio reads embedded metadata from audio files and writes
// enriched tags back to the copies the pipeline produces.
package tagio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// Reader extracts existing tags from an audio file.
type Reader interface {
	Read(path string) (map[string]models.Tag, error)
}

// Writer persists a tag store into an audio file on disk.
type Writer interface {
	Write(path string, store *models.Store) error
}

// FileReader reads metadata from FLAC, MP3, M4A, and OGG files.
type FileReader struct{}

// NewFileReader creates a Reader for local audio files.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read parses the file's embedded metadata into tags keyed by name.
// Files without readable metadata return an empty map, not an error.
func (fr *FileReader) Read(path string) (map[string]models.Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		if err == tag.ErrNoTagsFound {
			return map[string]models.Tag{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrUnsupportedFile, path, err)
	}

	tags := map[string]models.Tag{}

	put := func(name, value string) {
		if value != "" {
			tags[name] = models.Text(name, value)
		}
	}

	put(models.TagTitle, meta.Title())
	put(models.TagArtist, meta.Artist())
	put(models.TagAlbum, meta.Album())
	put(models.TagAlbumArtist, meta.AlbumArtist())
	put(models.TagGenre, meta.Genre())
	put(models.TagLyrics, meta.Lyrics())

	if year := meta.Year(); year > 0 {
		tags[models.TagYear] = models.Int(models.TagYear, year)
		tags[models.TagDate] = models.Text(models.TagDate, strconv.Itoa(year))
	}

	if track, _ := meta.Track(); track > 0 {
		tags[models.TagTrackNumber] = models.Int(models.TagTrackNumber, track)
	}

	if disc, _ := meta.Disc(); disc > 0 {
		tags[models.TagDiscNumber] = models.Int(models.TagDiscNumber, disc)
	}

	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		tags[models.TagCoverArt] = models.Blob(models.TagCoverArt, pic.Data)
	}

	if raw := meta.Raw(); raw != nil {
		for _, name := range []string{models.TagRecordingID, models.TagAlbumID, models.TagArtistID, models.TagAcoustID} {
			if v, ok := raw[strings.ToUpper(name)]; ok {
				if s, ok := v.(string); ok {
					put(name, s)
				}
			}
		}
	}

	return tags, nil
}

// Export copies src to dest and writes the store's tags into the copy
// when the format supports writing. Unsupported formats keep their
// original tags; the copy itself still happens.
func Export(src, dest string, store *models.Store) error {
	if err := copyFile(src, dest); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(dest), ".flac") {
		return NewFlacWriter().Write(dest, store)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return out.Close()
}
