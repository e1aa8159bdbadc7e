package cogs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// fakeCog is a minimal Cog for registry and pipeline tests.
type fakeCog struct {
	name     string
	needs    []string
	provides []string
	tags     []models.Tag
	err      error
	calls    int
}

func (f *fakeCog) Name() string       { return f.name }
func (f *fakeCog) Needs() []string    { return f.needs }
func (f *fakeCog) Provides() []string { return f.provides }

func (f *fakeCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	f.calls++
	return f.tags, f.err
}

func pipelineNames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestBuildOrdersByTagDependencies(t *testing.T) {
	r := NewRegistry()

	// registered out of dependency order on purpose
	r.Register(&fakeCog{name: "enrich", needs: []string{"id"}, provides: []string{"meta"}})
	r.Register(&fakeCog{name: "art", needs: []string{"meta"}, provides: []string{"art"}})
	r.Register(&fakeCog{name: "identify", provides: []string{"id"}})

	entries, err := r.Build(nil, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	got := strings.Join(pipelineNames(entries), ",")
	if want := "identify,enrich,art"; got != want {
		t.Errorf("pipeline order = %s, want %s", got, want)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "a", provides: []string{"ta"}})
	r.Register(&fakeCog{name: "b", provides: []string{"tb"}})
	r.Register(&fakeCog{name: "c", needs: []string{"ta", "tb"}, provides: []string{"tc"}})

	first, err := r.Build(nil, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := r.Build(nil, nil)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		if strings.Join(pipelineNames(first), ",") != strings.Join(pipelineNames(again), ",") {
			t.Fatalf("build order changed between runs: %v vs %v", pipelineNames(first), pipelineNames(again))
		}
	}

	// independent steps keep registration order
	if got := strings.Join(pipelineNames(first), ","); got != "a,b,c" {
		t.Errorf("pipeline order = %s, want a,b,c", got)
	}
}

func TestBuildUnsatisfiableNamesTagAndCog(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "orphan", needs: []string{"never_provided"}, provides: []string{"x"}})

	_, err := r.Build(nil, nil)
	if !errors.Is(err, shared.ErrPipelineUnsatisfiable) {
		t.Fatalf("expected ErrPipelineUnsatisfiable, got %v", err)
	}

	for _, want := range []string{"orphan", "never_provided"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should name %q: %v", want, err)
		}
	}
}

func TestBuildSeededTagsSatisfyNeeds(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "lyrics", needs: []string{"title"}, provides: []string{"lyrics"}})

	if _, err := r.Build(nil, []string{"title"}); err != nil {
		t.Errorf("seeded tag should satisfy the need: %v", err)
	}
}

func TestBuildUnknownCog(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "known", provides: []string{"x"}})

	if _, err := r.Build([]string{"known", "bogus"}, nil); !errors.Is(err, shared.ErrUnknownCog) {
		t.Errorf("expected ErrUnknownCog, got %v", err)
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "chicken", needs: []string{"egg"}, provides: []string{"chicken"}})
	r.Register(&fakeCog{name: "egg", needs: []string{"chicken"}, provides: []string{"egg"}})

	if _, err := r.Build(nil, nil); !errors.Is(err, shared.ErrPipelineUnsatisfiable) {
		t.Errorf("expected ErrPipelineUnsatisfiable for cycle, got %v", err)
	}
}

func TestBuildSubsetSelection(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeCog{name: "identify", provides: []string{"id"}})
	r.Register(&fakeCog{name: "enrich", needs: []string{"id"}, provides: []string{"meta"}})
	r.Register(&fakeCog{name: "art", needs: []string{"meta"}, provides: []string{"art"}})

	entries, err := r.Build([]string{"identify", "enrich"}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if got := strings.Join(pipelineNames(entries), ","); got != "identify,enrich" {
		t.Errorf("pipeline order = %s, want identify,enrich", got)
	}
}

func TestBuildFallbackGroupCollapses(t *testing.T) {
	r := NewRegistry()
	r.RegisterFallback("identify", 1, &fakeCog{name: "tagmatch", needs: []string{"title"}, provides: []string{"id"}})
	r.RegisterFallback("identify", 0, &fakeCog{name: "fingerprint", provides: []string{"id"}})
	r.Register(&fakeCog{name: "enrich", needs: []string{"id"}, provides: []string{"meta"}})

	entries, err := r.Build(nil, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	group := entries[0]
	if group.Name != "identify" || len(group.Cogs) != 2 {
		t.Fatalf("expected collapsed identify group, got %+v", group)
	}

	// priority 0 member first regardless of registration order
	if group.Cogs[0].Name() != "fingerprint" || group.Cogs[1].Name() != "tagmatch" {
		t.Errorf("members out of priority order: %s, %s", group.Cogs[0].Name(), group.Cogs[1].Name())
	}
}

func TestGroupNeedsAreSharedNeedsOnly(t *testing.T) {
	r := NewRegistry()
	r.RegisterFallback("identify", 0, &fakeCog{name: "fingerprint", provides: []string{"id"}})
	r.RegisterFallback("identify", 1, &fakeCog{name: "tagmatch", needs: []string{"title"}, provides: []string{"id"}})

	// nothing provides or seeds title, but fingerprint needs nothing,
	// so the group must still be buildable
	if _, err := r.Build(nil, nil); err != nil {
		t.Errorf("group with a needless member should build: %v", err)
	}
}
