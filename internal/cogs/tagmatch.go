package cogs

import (
	"context"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// TagMatchCog identifies a file from its existing title and artist
// tags via a MusicBrainz text search. It backs up FingerprintCog for
// files fpcalc or AcoustID cannot place.
type TagMatchCog struct {
	metadata providers.MetadataSource
}

// NewTagMatchCog creates the text-search identification cog.
func NewTagMatchCog(metadata providers.MetadataSource) *TagMatchCog {
	return &TagMatchCog{metadata: metadata}
}

func (c *TagMatchCog) Name() string { return "tagmatch" }

func (c *TagMatchCog) Needs() []string { return []string{models.TagTitle} }

func (c *TagMatchCog) Provides() []string {
	return []string{models.TagRecordingID}
}

func (c *TagMatchCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	title := task.Store.Text(models.TagTitle)
	artist := task.Store.Text(models.TagArtist)

	recs, err := c.metadata.SearchRecording(ctx, title, artist)
	if err != nil {
		return nil, err
	}

	// results come back best match first
	best := recs[0]

	return []models.Tag{
		models.Text(models.TagRecordingID, best.ID),
	}, nil
}
