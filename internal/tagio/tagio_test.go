package tagio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

func TestExportCopiesUnsupportedFormats(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "in", "track.mp3")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("mp3 payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out", "Artist", "01 - Track.mp3")
	store := models.NewStore()
	store.Set(models.Text(models.TagTitle, "Track"))

	if err := Export(src, dest, store); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}

	if string(got) != "mp3 payload" {
		t.Errorf("destination content mismatch: %q", got)
	}
}

func TestExportMissingSource(t *testing.T) {
	dir := t.TempDir()

	err := Export(filepath.Join(dir, "missing.flac"), filepath.Join(dir, "out.flac"), models.NewStore())
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestReadRejectsNonAudio(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileReader().Read(path); !errors.Is(err, shared.ErrUnsupportedFile) {
		t.Errorf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestImageMIME(t *testing.T) {
	if got := imageMIME([]byte("\x89PNG\r\n")); got != "image/png" {
		t.Errorf("expected png, got %s", got)
	}

	if got := imageMIME([]byte{0xff, 0xd8, 0xff}); got != "image/jpeg" {
		t.Errorf("expected jpeg, got %s", got)
	}
}
