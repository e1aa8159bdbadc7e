package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// RecordingRepository persists identified recordings so repeat runs
// can skip the lookup round trips.
type RecordingRepository struct {
	db *sql.DB
}

// NewRecordingRepository creates a RecordingRepository with the given
// database connection.
func NewRecordingRepository(db *sql.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create inserts a cached recording with a generated ID and sequence.
// Inserting an already-cached recording ID is not an error.
func (r *RecordingRepository) Create(rec *models.CachedRecording) error {
	sequence, err := NextSequence(r.db, "recordings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.ID = shared.GenerateID()
	rec.Sequence = sequence
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO recordings (id, sequence, acoust_id, recording_id, title, artist, artist_id, album, album_id, release_date, track_number, disc_number, track_count, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		rec.ID,
		rec.Sequence,
		rec.AcoustID,
		rec.RecordingID,
		rec.Title,
		rec.Artist,
		rec.ArtistID,
		rec.Album,
		rec.AlbumID,
		rec.ReleaseDate,
		rec.TrackNumber,
		rec.DiscNumber,
		rec.TrackCount,
		rec.Score,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to insert recording: %w", err)
	}

	return nil
}

// GetByRecordingID retrieves a cached recording by MusicBrainz ID.
// Returns nil without error on a cache miss.
func (r *RecordingRepository) GetByRecordingID(recordingID string) (*models.CachedRecording, error) {
	query := `
		SELECT id, sequence, acoust_id, recording_id, title, artist, artist_id, album, album_id, release_date, track_number, disc_number, track_count, score, created_at, updated_at
		FROM recordings
		WHERE recording_id = ?
	`

	return r.scanOne(r.db.QueryRow(query, recordingID))
}

func (r *RecordingRepository) scanOne(row *sql.Row) (*models.CachedRecording, error) {
	var rec models.CachedRecording

	err := row.Scan(
		&rec.ID,
		&rec.Sequence,
		&rec.AcoustID,
		&rec.RecordingID,
		&rec.Title,
		&rec.Artist,
		&rec.ArtistID,
		&rec.Album,
		&rec.AlbumID,
		&rec.ReleaseDate,
		&rec.TrackNumber,
		&rec.DiscNumber,
		&rec.TrackCount,
		&rec.Score,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recording: %w", err)
	}

	return &rec, nil
}

// LyricsRepository persists fetched lyrics per recording and source.
type LyricsRepository struct {
	db *sql.DB
}

// NewLyricsRepository creates a LyricsRepository with the given
// database connection.
func NewLyricsRepository(db *sql.DB) *LyricsRepository {
	return &LyricsRepository{db: db}
}

// Create inserts cached lyrics. Duplicate recording/source pairs are
// silently ignored.
func (r *LyricsRepository) Create(l *models.CachedLyrics) error {
	sequence, err := NextSequence(r.db, "lyrics")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	l.ID = shared.GenerateID()
	l.Sequence = sequence
	l.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO lyrics (id, sequence, recording_id, source, plain, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, l.ID, l.Sequence, l.RecordingID, l.Source, l.Plain, l.Synced, l.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to insert lyrics: %w", err)
	}

	return nil
}

// GetByRecordingID retrieves cached lyrics for a recording from any
// source, preferring rows that carry synced lyrics. Returns nil
// without error on a cache miss.
func (r *LyricsRepository) GetByRecordingID(recordingID string) (*models.CachedLyrics, error) {
	query := `
		SELECT id, sequence, recording_id, source, plain, synced, created_at
		FROM lyrics
		WHERE recording_id = ?
		ORDER BY (synced IS NOT NULL AND synced != '') DESC, sequence ASC
		LIMIT 1
	`

	var l models.CachedLyrics
	err := r.db.QueryRow(query, recordingID).Scan(&l.ID, &l.Sequence, &l.RecordingID, &l.Source, &l.Plain, &l.Synced, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lyrics: %w", err)
	}

	return &l, nil
}
