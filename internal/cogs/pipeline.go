package cogs

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/models"
)

// Pipeline executes built entries against file tasks.
//
// Failures are isolated per step: a failing cog records its outcome
// and the pipeline moves on, so one bad provider does not cost the
// file the tags the other cogs can still produce.
type Pipeline struct {
	entries []Entry
	force   bool
	logger  *log.Logger
}

// NewPipeline creates a pipeline over built entries. force makes cogs
// run even when their products are already present and lets their
// output overwrite existing tags.
func NewPipeline(entries []Entry, force bool, logger *log.Logger) *Pipeline {
	return &Pipeline{entries: entries, force: force, logger: logger}
}

// Entries returns the pipeline's steps in execution order.
func (p *Pipeline) Entries() []Entry {
	return p.entries
}

// Run executes every entry against the task and settles its terminal
// status. Identification is the one hard requirement: a file that ends
// without a recording ID is failed, one with partial enrichment
// failures is partial, and a clean run succeeds.
func (p *Pipeline) Run(ctx context.Context, task *models.FileTask) {
	task.Status = models.FileRunning

	for _, entry := range p.entries {
		if err := ctx.Err(); err != nil {
			task.Status = models.FileFailed
			task.Err = err.Error()
			return
		}

		p.runEntry(ctx, entry, task)
	}

	switch {
	case !task.Store.Has(models.TagRecordingID):
		task.Status = models.FileFailed
		if task.Err == "" {
			task.Err = "file could not be identified"
		}
	case task.Failed():
		task.Status = models.FilePartial
	default:
		task.Status = models.FileSucceeded
	}
}

func (p *Pipeline) runEntry(ctx context.Context, entry Entry, task *models.FileTask) {
	if !p.force && task.Store.HasAll(entry.Provides()...) {
		task.Record(models.CogOutcome{
			Cog:    entry.Name,
			Status: models.OutcomeSkipped,
			Reason: models.SkipAlreadyPresent,
		})
		return
	}

	satisfied := false
	for _, cog := range entry.Cogs {
		if satisfied {
			task.Record(models.CogOutcome{
				Cog:    cog.Name(),
				Status: models.OutcomeSkipped,
				Reason: models.SkipFallbackSatisfied,
			})
			continue
		}

		if missing := missingNeeds(cog, task.Store); missing != "" {
			task.Record(models.CogOutcome{
				Cog:    cog.Name(),
				Status: models.OutcomeSkipped,
				Reason: models.SkipMissingDependency + ": " + missing,
			})
			continue
		}

		tags, err := cog.Run(ctx, task)
		if err != nil {
			p.logger.Warn("cog failed", "cog", cog.Name(), "file", task.Source, "error", err)
			task.Record(models.CogOutcome{
				Cog:    cog.Name(),
				Status: models.OutcomeFailed,
				Error:  err.Error(),
			})
			continue
		}

		for _, tag := range tags {
			if p.force {
				task.Store.Force(tag)
			} else {
				task.Store.Set(tag)
			}
		}

		task.Record(models.CogOutcome{Cog: cog.Name(), Status: models.OutcomeSuccess})
		satisfied = true
	}
}

func missingNeeds(c Cog, store *models.Store) string {
	for _, tag := range c.Needs() {
		if !store.Has(tag) {
			return tag
		}
	}
	return ""
}
