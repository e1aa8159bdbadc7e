// package jobs runs directory processing: scanning for audio files,
// executing the cog pipeline against each one with a bounded worker
// pool, and tracking the resulting jobs in memory.
package jobs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/cogs"
	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/paths"
	"github.com/desertthunder/audiotag/internal/shared"
	"github.com/desertthunder/audiotag/internal/tagio"
)

// ProcessOpts contains configuration for one directory processing run.
type ProcessOpts struct {
	InputDir     string   // Directory scanned for audio files
	OutputDir    string   // Root the organized copies are written under
	Pattern      string   // Output path pattern; empty uses the default
	Force        bool     // Re-run cogs and overwrite existing tags
	Steps        []string // Pipeline steps to run; empty runs all
	Workers      int      // Concurrent workers (default: NumCPU)
	Extensions   []string // Audio extensions to pick up (default: .flac, .mp3, .m4a)
	LyricsSource string   // Lyrics source selection: combined, lrclib, netease, genius, none
	TagFallback  bool     // Allow text-search identification when fingerprinting fails
	APIKey       string   // AcoustID key for this run; empty uses the configured key
}

// Result summarizes a finished processing run.
type Result struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Partial   int                 `json:"partial"`
	Failed    int                 `json:"failed"`
	OutputDir string              `json:"output_dir"`
	Files     []models.FileResult `json:"files"`
}

// Processor runs a directory through the pipeline. The engine is the
// real implementation; tests substitute their own.
type Processor interface {
	Process(ctx context.Context, prog chan<- ProgressUpdate, opts ProcessOpts) (*Result, error)
}

// RegistryFunc builds the cog registry for one run, honoring the
// run's lyrics source and tag fallback selections.
type RegistryFunc func(opts ProcessOpts) (*cogs.Registry, error)

// Engine wires the cog registry, tag reader, and exporter into a
// Processor.
type Engine struct {
	registry RegistryFunc
	reader   tagio.Reader
	export   func(src, dest string, store *models.Store) error
	logger   *log.Logger

	// reserved guards output paths claimed by in-flight workers so two
	// files resolving to the same destination get distinct suffixes.
	pathMu   sync.Mutex
	reserved map[string]bool
}

// NewEngine creates a processing engine. registry is consulted per run
// so request-level pipeline options take effect.
func NewEngine(registry RegistryFunc, reader tagio.Reader, logger *log.Logger) *Engine {
	return &Engine{
		registry: registry,
		reader:   reader,
		export:   tagio.Export,
		logger:   logger,
		reserved: map[string]bool{},
	}
}

// Process scans opts.InputDir and runs every audio file through the
// pipeline concurrently. Per-file failures land in the result; only
// run-level problems (bad pattern, unreadable directory, unsatisfiable
// pipeline) return an error.
func (e *Engine) Process(ctx context.Context, prog chan<- ProgressUpdate, opts ProcessOpts) (*Result, error) {
	if opts.Pattern == "" {
		opts.Pattern = paths.DefaultPattern
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".flac", ".mp3", ".m4a"}
	}

	pattern, err := paths.Parse(opts.Pattern)
	if err != nil {
		return nil, err
	}

	registry, err := e.registry(opts)
	if err != nil {
		return nil, err
	}

	entries, err := registry.Build(opts.Steps, cogs.SeededTags)
	if err != nil {
		return nil, err
	}

	files, err := scanDirectory(opts.InputDir, opts.Extensions)
	if err != nil {
		return nil, err
	}

	sendProgress(prog, ProgressUpdate{
		Phase:   ScanDirectory,
		Total:   len(files),
		Message: fmt.Sprintf("found %d audio files", len(files)),
	})

	// force permits overwriting an existing destination, so collision
	// checks only apply to normal runs.
	exists := e.pathTaken
	if opts.Force {
		exists = nil
	}
	resolver := paths.NewResolver(pattern, opts.OutputDir, exists)
	pipeline := cogs.NewPipeline(entries, opts.Force, e.logger)

	result := &Result{Total: len(files), OutputDir: opts.OutputDir}

	sources := make(chan string, len(files))
	outcomes := make(chan models.FileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range sources {
				outcomes <- e.processFile(ctx, pipeline, resolver, src, opts.Force)
			}
		}()
	}

	for _, src := range files {
		sources <- src
	}
	close(sources)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for res := range outcomes {
		completed++
		result.Files = append(result.Files, res)

		switch res.Status {
		case models.FileSucceeded:
			result.Succeeded++
		case models.FilePartial:
			result.Partial++
		default:
			result.Failed++
		}

		sendProgress(prog, ProgressUpdate{
			Phase:   FileDone,
			Step:    completed,
			Total:   len(files),
			Message: fmt.Sprintf("%s: %s", filepath.Base(res.Source), res.Status),
			File:    res.Source,
		})
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Source < result.Files[j].Source
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	return result, nil
}

func (e *Engine) processFile(ctx context.Context, pipeline *cogs.Pipeline, resolver *paths.Resolver, src string, force bool) models.FileResult {
	task := models.NewFileTask(shared.GenerateID(), src)

	seed, err := e.reader.Read(src)
	if err != nil {
		e.logger.Warn("could not read existing tags", "file", src, "error", err)
	}
	for _, tag := range seed {
		task.Store.Set(tag)
	}

	pipeline.Run(ctx, task)

	if task.Status == models.FileFailed {
		return task.Summary()
	}

	dest, err := resolver.Resolve(task.Store, strings.ToLower(filepath.Ext(src)))
	if err != nil {
		task.Status = models.FilePartial
		task.Err = err.Error()
		return task.Summary()
	}

	if err := e.export(src, dest, task.Store); err != nil {
		e.releasePath(dest)
		task.Status = models.FilePartial
		task.Err = err.Error()
		return task.Summary()
	}

	task.Output = dest
	return task.Summary()
}

// pathTaken reports whether a destination exists on disk or has been
// claimed by another in-flight file. Unclaimed paths are reserved.
func (e *Engine) pathTaken(path string) bool {
	e.pathMu.Lock()
	defer e.pathMu.Unlock()

	if e.reserved[path] {
		return true
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}

	e.reserved[path] = true
	return false
}

func (e *Engine) releasePath(path string) {
	e.pathMu.Lock()
	defer e.pathMu.Unlock()
	delete(e.reserved, path)
}

// scanDirectory walks root and returns the audio files under it in
// sorted order. A regular file with a supported extension is a valid
// one-element selection.
func scanDirectory(root string, extensions []string) ([]string, error) {
	wanted := map[string]bool{}
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = true
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read input: %v", shared.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		if wanted[strings.ToLower(filepath.Ext(root))] {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("%w: %s is not a supported audio file", shared.ErrInvalidInput, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if wanted[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
