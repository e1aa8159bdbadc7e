// package cogs defines the pipeline's unit of work and the registry
// that assembles enabled cogs into a runnable order.
//
// A cog declares the tags it needs and the tags it provides. The
// registry orders cogs so every producer runs before its consumers,
// and collapses fallback groups into single pipeline steps whose
// members are tried in priority order.
package cogs

import (
	"context"

	"github.com/desertthunder/audiotag/internal/models"
)

// Cog is one enrichment step: fingerprinting, metadata lookup, cover
// art, lyrics. Cogs are stateless with respect to files; all per-file
// state lives in the task's tag store.
type Cog interface {
	// Name identifies the cog in pipeline configuration and outcomes.
	Name() string

	// Needs lists the tag names that must be present before the cog
	// can run. A file missing any of them skips the cog.
	Needs() []string

	// Provides lists the tag names the cog produces on success.
	Provides() []string

	// Run computes the cog's tags for the task's file. Returned tags
	// are written by the pipeline, honoring first-write-wins.
	Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error)
}
