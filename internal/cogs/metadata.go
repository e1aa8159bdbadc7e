package cogs

import (
	"context"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// MetadataCog fills in canonical track metadata for an identified
// recording: title, artist, album, date, and track placement.
type MetadataCog struct {
	metadata providers.MetadataSource
}

// NewMetadataCog creates the metadata enrichment cog.
func NewMetadataCog(metadata providers.MetadataSource) *MetadataCog {
	return &MetadataCog{metadata: metadata}
}

func (c *MetadataCog) Name() string { return "metadata" }

func (c *MetadataCog) Needs() []string { return []string{models.TagRecordingID} }

func (c *MetadataCog) Provides() []string {
	return []string{
		models.TagTitle, models.TagArtist, models.TagAlbum, models.TagAlbumArtist,
		models.TagDate, models.TagYear, models.TagTrackNumber, models.TagDiscNumber,
		models.TagAlbumID, models.TagArtistID,
	}
}

func (c *MetadataCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	rec, err := c.metadata.Recording(ctx, task.Store.Text(models.TagRecordingID))
	if err != nil {
		return nil, err
	}

	var tags []models.Tag

	add := func(name, value string) {
		if value != "" {
			tags = append(tags, models.Text(name, value))
		}
	}

	add(models.TagTitle, rec.Title)
	add(models.TagArtist, rec.Artist)
	add(models.TagAlbumArtist, rec.Artist)
	add(models.TagArtistID, rec.ArtistID)

	if rel := rec.Release; rel != nil {
		add(models.TagAlbum, rel.Title)
		add(models.TagAlbumID, rel.ID)
		add(models.TagDate, rel.Date)

		if len(rel.Date) >= 4 {
			add(models.TagYear, rel.Date[:4])
		}
		if rel.TrackNumber > 0 {
			tags = append(tags, models.Int(models.TagTrackNumber, rel.TrackNumber))
		}
		if rel.DiscNumber > 0 {
			tags = append(tags, models.Int(models.TagDiscNumber, rel.DiscNumber))
		}
	}

	return tags, nil
}
