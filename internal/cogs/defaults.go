package cogs

import (
	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
)

// Step names for the default registry.
const (
	StepIdentify = "identify"
	StepMetadata = "metadata"
	StepCoverArt = "coverart"
	StepLyrics   = "lyrics"
)

// SeededTags are the tag names the file reader can populate before the
// pipeline runs, and so count as satisfiable when building it.
var SeededTags = []string{
	models.TagTitle, models.TagArtist, models.TagAlbum, models.TagAlbumArtist,
	models.TagGenre, models.TagYear, models.TagDate,
	models.TagTrackNumber, models.TagDiscNumber,
	models.TagLyrics, models.TagCoverArt, models.TagRecordingID,
}

// Deps carries the collaborators the default cogs are built from.
type Deps struct {
	Fingerprinter providers.Fingerprinter
	Identifier    providers.Identifier
	Metadata      providers.MetadataSource
	Covers        providers.CoverSource
	Lyrics        []providers.LyricsSource
	LyricsCache   LyricsCache
	MinScore      float64
	TagFallback   bool
}

// DefaultRegistry assembles the standard pipeline: an identify group
// (fingerprint first, text search fallback), metadata, cover art, and
// a lyrics group over the configured sources in order.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()

	r.RegisterFallback(StepIdentify, 0, NewFingerprintCog(deps.Fingerprinter, deps.Identifier, deps.MinScore))
	if deps.TagFallback {
		r.RegisterFallback(StepIdentify, 1, NewTagMatchCog(deps.Metadata))
	}

	r.Register(NewMetadataCog(deps.Metadata))
	r.Register(NewCoverArtCog(deps.Covers))

	for i, source := range deps.Lyrics {
		r.RegisterFallback(StepLyrics, i, NewLyricsCog(source, deps.LyricsCache))
	}

	return r
}
