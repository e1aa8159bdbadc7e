package cogs

import (
	"context"
	"fmt"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
	"github.com/desertthunder/audiotag/internal/shared"
)

// FingerprintCog identifies a file acoustically: chromaprint
// fingerprint via fpcalc, then an AcoustID lookup for the recording ID.
type FingerprintCog struct {
	fingerprinter providers.Fingerprinter
	identifier    providers.Identifier
	minScore      float64
}

// NewFingerprintCog creates the acoustic identification cog. Matches
// scoring below minScore are rejected.
func NewFingerprintCog(fp providers.Fingerprinter, id providers.Identifier, minScore float64) *FingerprintCog {
	return &FingerprintCog{fingerprinter: fp, identifier: id, minScore: minScore}
}

func (c *FingerprintCog) Name() string { return "fingerprint" }

// Needs is empty: fingerprinting works from the audio alone.
func (c *FingerprintCog) Needs() []string { return nil }

func (c *FingerprintCog) Provides() []string {
	return []string{models.TagRecordingID, models.TagAcoustID, models.TagFingerprint, models.TagMatchScore}
}

func (c *FingerprintCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	fp, err := c.fingerprinter.Fingerprint(ctx, task.Source)
	if err != nil {
		return nil, err
	}

	id, err := c.identifier.Identify(ctx, fp)
	if err != nil {
		return nil, err
	}

	if id.Score < c.minScore {
		return nil, fmt.Errorf("%w: best match scored %.2f, below %.2f",
			shared.ErrNoMatch, id.Score, c.minScore)
	}

	tags := []models.Tag{
		models.Text(models.TagRecordingID, id.RecordingID),
		models.Text(models.TagAcoustID, id.AcoustID),
		models.Text(models.TagFingerprint, fp.Value),
		models.Float(models.TagMatchScore, id.Score),
	}

	if id.Title != "" {
		tags = append(tags, models.Text(models.TagTitle, id.Title))
	}
	if id.Artist != "" {
		tags = append(tags, models.Text(models.TagArtist, id.Artist))
	}

	return tags, nil
}
