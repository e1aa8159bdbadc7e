package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/audiotag/internal/shared"
)

func TestLRCLibLyrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("track_name"); got != "Roygbiv" {
			t.Errorf("expected track_name param, got %q", got)
		}
		w.Write([]byte(`{
			"plainLyrics": "instrumental",
			"syncedLyrics": "[00:01.00] instrumental"
		}`))
	}))
	defer srv.Close()

	svc := NewLRCLibService(testConfig(), srv.Client())
	svc.baseURL = srv.URL

	got, err := svc.Lyrics(context.Background(), LyricsQuery{Title: "Roygbiv", Artist: "Boards of Canada", Duration: 150})
	if err != nil {
		t.Fatalf("lyrics failed: %v", err)
	}

	if got.Plain != "instrumental" || got.Synced == "" || got.Source != "lrclib" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestLRCLibNoLyrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"plainLyrics": "", "syncedLyrics": ""}`))
	}))
	defer srv.Close()

	svc := NewLRCLibService(testConfig(), srv.Client())
	svc.baseURL = srv.URL

	if _, err := svc.Lyrics(context.Background(), LyricsQuery{Title: "X"}); !errors.Is(err, shared.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestNetEaseLyrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/get"):
			w.Write([]byte(`{"result": {"songs": [{"id": 42, "name": "Roygbiv", "artists": [{"name": "Boards of Canada"}]}]}}`))
		case strings.HasPrefix(r.URL.Path, "/song/lyric"):
			if got := r.URL.Query().Get("id"); got != "42" {
				t.Errorf("expected song id 42, got %q", got)
			}
			w.Write([]byte(`{"lrc": {"lyric": "[00:01.00]first line\n[00:05.00]second line"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := NewNetEaseService(testConfig(), srv.Client())
	svc.baseURL = srv.URL

	got, err := svc.Lyrics(context.Background(), LyricsQuery{Title: "Roygbiv", Artist: "Boards of Canada"})
	if err != nil {
		t.Fatalf("lyrics failed: %v", err)
	}

	if got.Plain != "first line\nsecond line" {
		t.Errorf("unexpected plain lyrics: %q", got.Plain)
	}

	if !strings.Contains(got.Synced, "[00:01.00]") {
		t.Errorf("expected synced lyrics to keep timestamps: %q", got.Synced)
	}
}

func TestStripTimestamps(t *testing.T) {
	in := "[00:01.00][00:12.50]doubled tag\n[ti:title line]\nplain line\n"
	want := "doubled tag\nplain line"

	if got := stripTimestamps(in); got != want {
		t.Errorf("stripTimestamps() = %q, want %q", got, want)
	}
}

func TestExtractGeniusLyrics(t *testing.T) {
	page := `<html><body>
		<div class="header">junk</div>
		<div data-lyrics-container="true" class="Lyrics">
			[Verse 1]<br>First line<br><i>Second line</i>
		</div>
		<div data-lyrics-container="true">Third line &amp; more</div>
	</body></html>`

	got := extractGeniusLyrics(page)

	for _, want := range []string{"[Verse 1]", "First line", "Second line", "Third line & more"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in extracted lyrics:\n%s", want, got)
		}
	}

	if strings.Contains(got, "junk") || strings.Contains(got, "<") {
		t.Errorf("markup leaked into lyrics:\n%s", got)
	}
}

func TestGeniusWithoutToken(t *testing.T) {
	cfg := testConfig()
	cfg.GeniusAPIKey = ""

	svc := NewGeniusService(cfg)

	if _, err := svc.Lyrics(context.Background(), LyricsQuery{Title: "X"}); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}
