package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/audiotag/internal/formatter"
	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/shared"
	"github.com/desertthunder/audiotag/internal/ui"
	"github.com/urfave/cli/v3"
)

// ProcessRun identifies and organizes a directory of audio files.
func (r *Runner) ProcessRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return err
	}

	input := cmd.StringArg("input")
	if input == "" {
		return fmt.Errorf("%w: input directory", shared.ErrMissingArgument)
	}

	opts := r.processOpts(input, cmd)

	if err := r.setup(); err != nil {
		return err
	}

	var result *jobs.Result
	var err error
	if cmd.Bool("plain") {
		result, err = r.processPlain(ctx, opts)
	} else {
		result, err = r.processTUI(ctx, opts)
	}
	if err != nil {
		return err
	}
	if result == nil {
		// Quit before the run finished.
		return nil
	}

	if path, err := formatter.WriteManifest(result); err != nil {
		r.logger.Warnf("failed to write manifest: %v", err)
	} else {
		r.logger.Infof("manifest written to %s", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s", formatter.ResultToText(result))
}

// processOpts maps flags onto run options, falling back to the config
// for anything not set on the command line.
func (r *Runner) processOpts(input string, cmd *cli.Command) jobs.ProcessOpts {
	processing := r.config.Processing

	opts := jobs.ProcessOpts{
		InputDir:     input,
		OutputDir:    cmd.String("output"),
		Pattern:      cmd.String("pattern"),
		Force:        cmd.Bool("force"),
		Workers:      cmd.Int("workers"),
		LyricsSource: cmd.String("lyrics-source"),
		TagFallback:  cmd.Bool("tag-fallback"),
		Extensions:   processing.Extensions,
	}

	if opts.OutputDir == "" {
		opts.OutputDir = input
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			opts.OutputDir = filepath.Dir(input)
		}
	}
	if opts.Pattern == "" {
		opts.Pattern = processing.OutputPattern
	}
	if opts.Workers == 0 {
		opts.Workers = processing.Workers
	}
	if !cmd.IsSet("tag-fallback") {
		opts.TagFallback = processing.TagFallback
	}
	if steps := cmd.String("steps"); steps != "" {
		for _, step := range strings.Split(steps, ",") {
			if step = strings.TrimSpace(step); step != "" {
				opts.Steps = append(opts.Steps, step)
			}
		}
	}

	return opts
}

// processPlain runs the engine directly, logging progress as it goes.
func (r *Runner) processPlain(ctx context.Context, opts jobs.ProcessOpts) (*jobs.Result, error) {
	prog := make(chan jobs.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			if update.Phase == jobs.FileDone {
				r.logger.Infof("processed %s (%d/%d)", update.File, update.Step, update.Total)
			}
		}
	}()

	result, err := r.engine.Process(ctx, prog, opts)
	close(prog)
	<-done
	return result, err
}

// processTUI runs the engine behind the interactive progress view.
func (r *Runner) processTUI(ctx context.Context, opts jobs.ProcessOpts) (*jobs.Result, error) {
	// Silence log output so it does not interfere with rendering.
	shared.SetLogLevel(r.logger, log.ErrorLevel)

	model := ui.NewModel(ctx, func(prog chan<- jobs.ProgressUpdate) (*jobs.Result, error) {
		return r.engine.Process(ctx, prog, opts)
	})

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running progress view: %w", err)
	}

	return model.Result()
}
