package cogs

import (
	"context"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// LyricsCache stores lyrics results keyed by recording ID. Get returns
// nil on a miss.
type LyricsCache interface {
	Get(recordingID string) (*providers.LyricsResult, error)
	Put(recordingID string, res *providers.LyricsResult) error
}

// LyricsCog fetches lyrics from one source. Register one per source in
// a fallback group so the sources are tried in order.
type LyricsCog struct {
	source providers.LyricsSource
	cache  LyricsCache
}

// NewLyricsCog creates a lyrics cog for the given source. cache may be
// nil to disable lyric caching.
func NewLyricsCog(source providers.LyricsSource, cache LyricsCache) *LyricsCog {
	return &LyricsCog{source: source, cache: cache}
}

func (c *LyricsCog) Name() string { return "lyrics/" + c.source.Name() }

func (c *LyricsCog) Needs() []string {
	return []string{models.TagTitle, models.TagArtist}
}

func (c *LyricsCog) Provides() []string {
	return []string{models.TagLyrics, models.TagSyncedLyrics}
}

func (c *LyricsCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	recordingID := task.Store.Text(models.TagRecordingID)

	if c.cache != nil && recordingID != "" {
		if cached, err := c.cache.Get(recordingID); err == nil && cached != nil {
			return lyricsTags(cached), nil
		}
	}

	result, err := c.source.Lyrics(ctx, providers.LyricsQuery{
		Title:  task.Store.Text(models.TagTitle),
		Artist: task.Store.Text(models.TagArtist),
		Album:  task.Store.Text(models.TagAlbum),
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && recordingID != "" {
		// cache failures never cost the file its lyrics
		_ = c.cache.Put(recordingID, result)
	}

	return lyricsTags(result), nil
}

func lyricsTags(res *providers.LyricsResult) []models.Tag {
	var tags []models.Tag
	if res.Plain != "" {
		tags = append(tags, models.Text(models.TagLyrics, res.Plain))
	}
	if res.Synced != "" {
		tags = append(tags, models.Text(models.TagSyncedLyrics, res.Synced))
	}
	return tags
}
