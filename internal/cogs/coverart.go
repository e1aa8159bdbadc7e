package cogs

import (
	"context"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// CoverArtCog fetches front cover artwork for the identified release.
type CoverArtCog struct {
	covers providers.CoverSource
}

// NewCoverArtCog creates the cover art cog.
func NewCoverArtCog(covers providers.CoverSource) *CoverArtCog {
	return &CoverArtCog{covers: covers}
}

func (c *CoverArtCog) Name() string { return "coverart" }

func (c *CoverArtCog) Needs() []string { return []string{models.TagAlbumID} }

func (c *CoverArtCog) Provides() []string { return []string{models.TagCoverArt} }

func (c *CoverArtCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	data, err := c.covers.FrontCover(ctx, task.Store.Text(models.TagAlbumID))
	if err != nil {
		return nil, err
	}

	return []models.Tag{models.Blob(models.TagCoverArt, data)}, nil
}
