// package models defines the data model for the audio tagging pipeline
package models

import (
	"fmt"
	"sort"
	"strconv"
)

// Well-known tag names, following vorbis comment conventions.
const (
	TagTitle        = "title"
	TagArtist       = "artist"
	TagAlbum        = "album"
	TagAlbumArtist  = "albumartist"
	TagDate         = "date"
	TagYear         = "year"
	TagTrackNumber  = "tracknumber"
	TagDiscNumber   = "discnumber"
	TagGenre        = "genre"
	TagRecordingID  = "musicbrainz_recordingid"
	TagAlbumID      = "musicbrainz_albumid"
	TagArtistID     = "musicbrainz_artistid"
	TagAcoustID     = "acoustid_id"
	TagFingerprint  = "acoustid_fingerprint"
	TagMatchScore   = "acoustid_score"
	TagLyrics       = "lyrics"
	TagSyncedLyrics = "syncedlyrics"
	TagCoverArt     = "cover_art"
)

// Kind identifies the value type a Tag carries.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBlob
	KindList
)

// Tag is a single named attribute of a track: a metadata field, an
// identifier, lyrics text, or binary artwork.
type Tag struct {
	Name  string
	Kind  Kind
	text  string
	num   int
	float float64
	blob  []byte
	list  []string
}

// Text creates a text tag.
func Text(name, value string) Tag {
	return Tag{Name: name, Kind: KindText, text: value}
}

// Int creates an integer tag.
func Int(name string, value int) Tag {
	return Tag{Name: name, Kind: KindInt, num: value}
}

// Float creates a floating-point tag.
func Float(name string, value float64) Tag {
	return Tag{Name: name, Kind: KindFloat, float: value}
}

// Blob creates a binary tag, e.g. artwork bytes.
func Blob(name string, value []byte) Tag {
	return Tag{Name: name, Kind: KindBlob, blob: value}
}

// List creates a structured list tag, e.g. synced lyric lines.
func List(name string, value []string) Tag {
	return Tag{Name: name, Kind: KindList, list: value}
}

// String renders the tag value as text regardless of kind.
// Blob tags render as a byte-count placeholder so they stay loggable.
func (t Tag) String() string {
	switch t.Kind {
	case KindText:
		return t.text
	case KindInt:
		return strconv.Itoa(t.num)
	case KindFloat:
		return strconv.FormatFloat(t.float, 'f', -1, 64)
	case KindBlob:
		return fmt.Sprintf("<%d bytes>", len(t.blob))
	case KindList:
		return fmt.Sprintf("<%d entries>", len(t.list))
	default:
		return ""
	}
}

// IntValue returns the integer value; text tags are parsed, with values
// like "3/12" truncated to the leading number.
func (t Tag) IntValue() (int, bool) {
	switch t.Kind {
	case KindInt:
		return t.num, true
	case KindFloat:
		return int(t.float), true
	case KindText:
		s := t.text
		for i := 0; i < len(s); i++ {
			if s[i] == '/' {
				s = s[:i]
				break
			}
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// FloatValue returns the floating-point value if the tag is numeric.
func (t Tag) FloatValue() (float64, bool) {
	switch t.Kind {
	case KindFloat:
		return t.float, true
	case KindInt:
		return float64(t.num), true
	default:
		return 0, false
	}
}

// BlobValue returns the binary payload of a blob tag.
func (t Tag) BlobValue() []byte {
	return t.blob
}

// ListValue returns the entries of a list tag.
func (t Tag) ListValue() []string {
	return t.list
}

// Store accumulates the tags for one file as cogs run.
//
// A Store belongs to exactly one file task and is mutated sequentially by
// the pipeline, so it carries no locking. Writes are first-write-wins:
// once a cog has produced a tag, later writes are ignored unless forced.
type Store struct {
	tags map[string]Tag
}

// NewStore creates an empty tag store.
func NewStore() *Store {
	return &Store{tags: make(map[string]Tag)}
}

// Set stores the tag unless a tag with the same name already exists.
// Reports whether the tag was written.
func (s *Store) Set(t Tag) bool {
	if _, exists := s.tags[t.Name]; exists {
		return false
	}
	s.tags[t.Name] = t
	return true
}

// Force stores the tag, overwriting any existing value.
func (s *Store) Force(t Tag) {
	s.tags[t.Name] = t
}

// Get retrieves a tag by name.
func (s *Store) Get(name string) (Tag, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// Has reports whether a tag with the given name is present.
func (s *Store) Has(name string) bool {
	_, ok := s.tags[name]
	return ok
}

// HasAll reports whether every named tag is present.
func (s *Store) HasAll(names ...string) bool {
	for _, name := range names {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Text returns the tag's value rendered as text, or empty when absent.
func (s *Store) Text(name string) string {
	t, ok := s.tags[name]
	if !ok {
		return ""
	}
	return t.String()
}

// Int returns the tag's integer value.
func (s *Store) Int(name string) (int, bool) {
	t, ok := s.tags[name]
	if !ok {
		return 0, false
	}
	return t.IntValue()
}

// Len returns the number of tags in the store.
func (s *Store) Len() int {
	return len(s.tags)
}

// Names returns all tag names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the store's tags keyed by name.
func (s *Store) Snapshot() map[string]Tag {
	out := make(map[string]Tag, len(s.tags))
	for name, t := range s.tags {
		out[name] = t
	}
	return out
}
