package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// CachedMetadataSource implements providers.MetadataSource with a
// sqlite read-through cache in front of the real source.
//
// Cache failures degrade to the upstream source rather than failing
// the lookup.
type CachedMetadataSource struct {
	upstream providers.MetadataSource
	repo     *RecordingRepository
}

// NewCachedMetadataSource wraps upstream with the recording cache.
func NewCachedMetadataSource(upstream providers.MetadataSource, repo *RecordingRepository) *CachedMetadataSource {
	return &CachedMetadataSource{upstream: upstream, repo: repo}
}

// Recording returns the cached recording when present, otherwise
// fetches from upstream and caches the result.
func (c *CachedMetadataSource) Recording(ctx context.Context, recordingID string) (*providers.Recording, error) {
	if cached, err := c.repo.GetByRecordingID(recordingID); err == nil && cached != nil {
		return fromCached(cached), nil
	}

	rec, err := c.upstream.Recording(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	if err := c.repo.Create(toCached(rec)); err != nil {
		return rec, fmt.Errorf("recording fetched but not cached: %w", err)
	}

	return rec, nil
}

// SearchRecording passes through to the upstream source. Text searches
// are not cached: the same title/artist pair rarely repeats within a
// library and stale search results are worse than slow ones.
func (c *CachedMetadataSource) SearchRecording(ctx context.Context, title, artist string) ([]providers.Recording, error) {
	return c.upstream.SearchRecording(ctx, title, artist)
}

func fromCached(cached *models.CachedRecording) *providers.Recording {
	rec := &providers.Recording{
		ID:       cached.RecordingID,
		Title:    cached.Title,
		Artist:   cached.Artist,
		ArtistID: cached.ArtistID,
	}

	if cached.AlbumID != "" || cached.Album != "" {
		rec.Release = &providers.Release{
			ID:          cached.AlbumID,
			Title:       cached.Album,
			Date:        cached.ReleaseDate,
			TrackNumber: cached.TrackNumber,
			DiscNumber:  cached.DiscNumber,
			TrackCount:  cached.TrackCount,
		}
	}

	return rec
}

func toCached(rec *providers.Recording) *models.CachedRecording {
	cached := &models.CachedRecording{
		RecordingID: rec.ID,
		Title:       rec.Title,
		Artist:      rec.Artist,
		ArtistID:    rec.ArtistID,
	}

	if rec.Release != nil {
		cached.Album = rec.Release.Title
		cached.AlbumID = rec.Release.ID
		cached.ReleaseDate = rec.Release.Date
		cached.TrackNumber = rec.Release.TrackNumber
		cached.DiscNumber = rec.Release.DiscNumber
		cached.TrackCount = rec.Release.TrackCount
	}

	return cached
}

// LyricsCacheAdapter exposes the lyrics repository to the pipeline as
// a simple get/put cache keyed by recording ID.
type LyricsCacheAdapter struct {
	repo *LyricsRepository
}

// NewLyricsCacheAdapter creates a LyricsCacheAdapter with the given
// repository.
func NewLyricsCacheAdapter(repo *LyricsRepository) *LyricsCacheAdapter {
	return &LyricsCacheAdapter{repo: repo}
}

// Get returns cached lyrics for the recording, or nil on a miss.
func (a *LyricsCacheAdapter) Get(recordingID string) (*providers.LyricsResult, error) {
	cached, err := a.repo.GetByRecordingID(recordingID)
	if err != nil || cached == nil {
		return nil, err
	}

	return &providers.LyricsResult{Plain: cached.Plain, Synced: cached.Synced, Source: cached.Source}, nil
}

// Put caches a lyrics result for the recording.
func (a *LyricsCacheAdapter) Put(recordingID string, res *providers.LyricsResult) error {
	return a.repo.Create(&models.CachedLyrics{
		RecordingID: recordingID,
		Source:      res.Source,
		Plain:       res.Plain,
		Synced:      res.Synced,
	})
}
