package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/shared"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output == nil {
				t.Error("expected default output to be set")
			}
			if runner.reader == nil {
				t.Error("expected default reader to be set")
			}
		})
	})

	t.Run("setup", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(os.Stderr)})
		defer runner.Close()

		if err := runner.setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if runner.manager == nil || runner.engine == nil {
			t.Fatal("expected engine and manager to be assembled")
		}
		if runner.db == nil {
			t.Fatal("expected metadata cache to be opened")
		}

		manager := runner.manager
		if err := runner.setup(); err != nil {
			t.Fatalf("second setup failed: %v", err)
		}
		if runner.manager != manager {
			t.Error("expected setup to be idempotent")
		}
	})

	t.Run("setup without database path skips cache", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = ""

		runner := NewRunner(RunnerOpts{Config: config})
		defer runner.Close()

		if err := runner.setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if runner.db != nil {
			t.Error("expected no database without a configured path")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing default path is not an error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		before := runner.config

		if err := runner.loadConfig(defaultConfigPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config != before {
			t.Error("expected config to be untouched")
		}
	})

	t.Run("missing explicit path errors", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		err := runner.loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Fatalf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("loads configuration from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[processing]\nworkers = 7\nlyrics_source = \"lrclib\"\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{})
		if err := runner.loadConfig(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config.Processing.Workers != 7 {
			t.Errorf("expected 7 workers, got %d", runner.config.Processing.Workers)
		}
		if runner.config.Processing.LyricsSource != "lrclib" {
			t.Errorf("expected lrclib, got %q", runner.config.Processing.LyricsSource)
		}
	})
}

func TestLyricsSources(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		geniusKey string
		want      []string
		wantErr   bool
	}{
		{name: "combined without genius key", source: "combined", want: []string{"lrclib", "netease"}},
		{name: "combined with genius key", source: "combined", geniusKey: "token", want: []string{"lrclib", "netease", "genius"}},
		{name: "empty defaults to combined", source: "", want: []string{"lrclib", "netease"}},
		{name: "lrclib only", source: "lrclib", want: []string{"lrclib"}},
		{name: "netease only", source: "netease", want: []string{"netease"}},
		{name: "genius only", source: "genius", want: []string{"genius"}},
		{name: "none", source: "none", want: nil},
		{name: "unknown source", source: "musixmatch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Providers.GeniusAPIKey = tt.geniusKey
			runner := NewRunner(RunnerOpts{Config: config})

			sources, err := runner.lyricsSources(tt.source)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var names []string
			for _, source := range sources {
				names = append(names, source.Name())
			}
			if !slices.Equal(names, tt.want) {
				t.Errorf("expected sources %v, got %v", tt.want, names)
			}
		})
	}
}

func TestRegistryFunc(t *testing.T) {
	t.Run("builds the standard steps", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		registry, err := runner.registryFunc()(jobs.ProcessOpts{LyricsSource: "none"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		names := registry.Names()
		for _, want := range []string{"identify", "metadata", "coverart"} {
			if !slices.Contains(names, want) {
				t.Errorf("expected step %q in %v", want, names)
			}
		}
		if slices.Contains(names, "lyrics") {
			t.Errorf("expected no lyrics step, got %v", names)
		}
	})

	t.Run("per-run lyrics source overrides config", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Processing.LyricsSource = "none"
		runner := NewRunner(RunnerOpts{Config: config})

		registry, err := runner.registryFunc()(jobs.ProcessOpts{LyricsSource: "lrclib"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Contains(registry.Names(), "lyrics") {
			t.Errorf("expected lyrics step, got %v", registry.Names())
		}
	})

	t.Run("unknown lyrics source fails the run", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		_, err := runner.registryFunc()(jobs.ProcessOpts{LyricsSource: "musixmatch"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWriteHelpers(t *testing.T) {
	t.Run("writeJSON appends a newline", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"total": 3}, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := output.String(); !strings.HasSuffix(got, "\n") || !strings.Contains(got, `"total":3`) {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writePlain formats", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%d files\n", 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.String() != "4 files\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}
