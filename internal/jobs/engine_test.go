package jobs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/cogs"
	"github.com/desertthunder/audiotag/internal/models"
)

// stubIdentifyCog identifies every file except the ones named in fail.
type stubIdentifyCog struct {
	fail map[string]bool
}

func (s *stubIdentifyCog) Name() string       { return "identify" }
func (s *stubIdentifyCog) Needs() []string    { return nil }
func (s *stubIdentifyCog) Provides() []string { return []string{models.TagRecordingID} }

func (s *stubIdentifyCog) Run(ctx context.Context, task *models.FileTask) ([]models.Tag, error) {
	if s.fail[filepath.Base(task.Source)] {
		return nil, context.DeadlineExceeded
	}

	base := strings.TrimSuffix(filepath.Base(task.Source), filepath.Ext(task.Source))
	return []models.Tag{
		models.Text(models.TagRecordingID, "rec-"+base),
		models.Text(models.TagArtist, "Artist"),
		models.Text(models.TagAlbum, "Album"),
		models.Text(models.TagTitle, base),
	}, nil
}

// stubReader seeds nothing; the stub cog provides everything.
type stubReader struct{}

func (stubReader) Read(path string) (map[string]models.Tag, error) {
	return map[string]models.Tag{}, nil
}

func writeLibrary(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testEngine(fail map[string]bool) *Engine {
	r := cogs.NewRegistry()
	r.Register(&stubIdentifyCog{fail: fail})

	e := NewEngine(func(ProcessOpts) (*cogs.Registry, error) { return r, nil }, stubReader{}, log.New(io.Discard))
	e.export = func(src, dest string, store *models.Store) error { return nil }
	return e
}

func TestProcessIsolatesFileFailures(t *testing.T) {
	dir := writeLibrary(t, "a.flac", "b.flac", "c.mp3", "sub/d.flac", "e.m4a")

	engine := testEngine(map[string]bool{"c.mp3": true})

	result, err := engine.Process(context.Background(), nil, ProcessOpts{
		InputDir:  dir,
		OutputDir: t.TempDir(),
		Workers:   3,
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if result.Total != 5 || len(result.Files) != 5 {
		t.Fatalf("expected all 5 files processed, got total=%d files=%d", result.Total, len(result.Files))
	}

	if result.Succeeded != 4 || result.Failed != 1 {
		t.Errorf("expected 4 succeeded / 1 failed, got %d / %d", result.Succeeded, result.Failed)
	}

	for _, f := range result.Files {
		if filepath.Base(f.Source) == "c.mp3" {
			if f.Status != models.FileFailed {
				t.Errorf("expected c.mp3 to fail, got %s", f.Status)
			}
		} else if f.Status != models.FileSucceeded {
			t.Errorf("expected %s to succeed, got %s", f.Source, f.Status)
		}
	}
}

func TestProcessResolvesOutputPaths(t *testing.T) {
	dir := writeLibrary(t, "track.flac")
	out := t.TempDir()

	var exported string
	engine := testEngine(nil)
	engine.export = func(src, dest string, store *models.Store) error {
		exported = dest
		return nil
	}

	result, err := engine.Process(context.Background(), nil, ProcessOpts{
		InputDir:  dir,
		OutputDir: out,
		Pattern:   "{artist}/{title}",
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	want := filepath.Join(out, "Artist", "track.flac")
	if exported != want {
		t.Errorf("exported to %q, want %q", exported, want)
	}

	if result.Files[0].Output != want {
		t.Errorf("result output = %q, want %q", result.Files[0].Output, want)
	}
}

func TestProcessCollidingFilesGetSuffixes(t *testing.T) {
	// both files carry the same tags, so they resolve to the same path
	dir := writeLibrary(t, "one/track.flac", "two/track.flac")
	out := t.TempDir()

	var mu []string
	engine := testEngine(nil)
	engine.export = func(src, dest string, store *models.Store) error {
		mu = append(mu, dest)
		return nil
	}

	_, err := engine.Process(context.Background(), nil, ProcessOpts{
		InputDir:  dir,
		OutputDir: out,
		Pattern:   "{artist}/{title}",
		Workers:   1,
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(mu) != 2 || mu[0] == mu[1] {
		t.Errorf("expected distinct destinations, got %v", mu)
	}
}

func TestProcessSingleFile(t *testing.T) {
	dir := writeLibrary(t, "track.flac")
	out := t.TempDir()

	var exported string
	engine := testEngine(nil)
	engine.export = func(src, dest string, store *models.Store) error {
		exported = dest
		return nil
	}

	result, err := engine.Process(context.Background(), nil, ProcessOpts{
		InputDir:  filepath.Join(dir, "track.flac"),
		OutputDir: out,
		Pattern:   "{artist}/{title}",
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if result.Total != 1 || result.Succeeded != 1 {
		t.Fatalf("expected the single file to succeed, got total=%d succeeded=%d", result.Total, result.Succeeded)
	}

	want := filepath.Join(out, "Artist", "track.flac")
	if exported != want {
		t.Errorf("exported to %q, want %q", exported, want)
	}
}

func TestProcessForceOverwritesCollision(t *testing.T) {
	dir := writeLibrary(t, "track.flac")
	out := t.TempDir()

	// the destination already exists from an earlier run
	occupied := filepath.Join(out, "Artist", "track.flac")
	if err := os.MkdirAll(filepath.Dir(occupied), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(occupied, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	var exported string
	engine := testEngine(nil)
	engine.export = func(src, dest string, store *models.Store) error {
		exported = dest
		return nil
	}

	_, err := engine.Process(context.Background(), nil, ProcessOpts{
		InputDir:  dir,
		OutputDir: out,
		Pattern:   "{artist}/{title}",
		Force:     true,
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if exported != occupied {
		t.Errorf("force run exported to %q, want overwrite of %q", exported, occupied)
	}
}

func TestProcessRejectsBadPattern(t *testing.T) {
	dir := writeLibrary(t, "a.flac")

	_, err := testEngine(nil).Process(context.Background(), nil, ProcessOpts{
		InputDir:  dir,
		OutputDir: t.TempDir(),
		Pattern:   "{bogus}/{title}",
	})
	if err == nil {
		t.Fatal("expected bad pattern to fail the run")
	}
}

func TestProcessMissingDirectory(t *testing.T) {
	_, err := testEngine(nil).Process(context.Background(), nil, ProcessOpts{
		InputDir:  "/nonexistent/library",
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected missing input directory to fail the run")
	}
}

func TestScanDirectoryFiltersAndSorts(t *testing.T) {
	dir := writeLibrary(t, "b.flac", "a.mp3", "notes.txt", "cover.jpg", "sub/c.m4a")

	files, err := scanDirectory(dir, []string{".flac", ".mp3", ".m4a"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 audio files, got %d: %v", len(files), files)
	}

	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("files not sorted: %v", files)
		}
	}
}

func TestScanDirectorySingleFile(t *testing.T) {
	dir := writeLibrary(t, "track.flac", "notes.txt")

	t.Run("supported file", func(t *testing.T) {
		files, err := scanDirectory(filepath.Join(dir, "track.flac"), []string{".flac"})
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(files) != 1 || filepath.Base(files[0]) != "track.flac" {
			t.Errorf("expected the file itself, got %v", files)
		}
	})

	t.Run("unsupported file", func(t *testing.T) {
		if _, err := scanDirectory(filepath.Join(dir, "notes.txt"), []string{".flac"}); err == nil {
			t.Error("expected unsupported file to be rejected")
		}
	})
}

func TestProcessSendsProgress(t *testing.T) {
	dir := writeLibrary(t, "a.flac", "b.flac")

	prog := make(chan ProgressUpdate, 16)
	_, err := testEngine(nil).Process(context.Background(), prog, ProcessOpts{
		InputDir:  dir,
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	close(prog)

	var doneUpdates int
	for update := range prog {
		if update.Phase == FileDone {
			doneUpdates++
			if update.Total != 2 {
				t.Errorf("expected total 2, got %d", update.Total)
			}
		}
	}

	if doneUpdates != 2 {
		t.Errorf("expected 2 file-done updates, got %d", doneUpdates)
	}
}
