package models

import "time"

// CachedRecording is a row in the recording metadata cache. Caching
// identified recordings lets repeat runs over the same library skip
// the AcoustID and MusicBrainz round trips.
type CachedRecording struct {
	ID          string
	Sequence    int
	AcoustID    string
	RecordingID string
	Title       string
	Artist      string
	ArtistID    string
	Album       string
	AlbumID     string
	ReleaseDate string
	TrackNumber int
	DiscNumber  int
	TrackCount  int
	Score       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CachedLyrics is a row in the lyrics cache.
type CachedLyrics struct {
	ID          string
	Sequence    int
	RecordingID string
	Source      string
	Plain       string
	Synced      string
	CreatedAt   time.Time
}
