package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/audiotag/internal/providers"
	"github.com/desertthunder/audiotag/internal/shared"
	"github.com/urfave/cli/v3"
)

// ValidateRun checks the external tooling and credentials the pipeline
// depends on and reports each result.
func (r *Runner) ValidateRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return err
	}

	checks := providers.ValidateSetup(r.config)
	healthy := providers.Healthy(checks)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"healthy": healthy,
			"checks":  checks,
		}, true)
	}

	for _, check := range checks {
		marker := "✓"
		switch check.Status {
		case providers.CheckMissing:
			marker = "−"
		case providers.CheckError:
			marker = "✗"
		}
		if err := r.writePlain("%s %s: %s\n", marker, check.Name, check.Detail); err != nil {
			return err
		}
	}

	if !healthy {
		return fmt.Errorf("setup incomplete: identification cannot run")
	}
	return r.writePlain("setup looks good\n")
}

// ConfigShow prints the effective configuration. API keys are reported
// as present or absent, never echoed.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return err
	}

	return r.writeJSON(map[string]any{
		"providers": map[string]any{
			"acoustid_api_key": r.config.Providers.AcoustIDAPIKey != "",
			"genius_api_key":   r.config.Providers.GeniusAPIKey != "",
			"fpcalc_path":      r.config.Providers.FpcalcPath,
			"timeout_seconds":  r.config.Providers.TimeoutSeconds,
			"max_attempts":     r.config.Providers.MaxAttempts,
			"rate_limit":       r.config.Providers.RateLimit,
		},
		"processing": map[string]any{
			"workers":        r.config.Processing.Workers,
			"output_pattern": r.config.Processing.OutputPattern,
			"lyrics_source":  r.config.Processing.LyricsSource,
			"tag_fallback":   r.config.Processing.TagFallback,
			"min_score":      r.config.Processing.MinScore,
			"extensions":     r.config.Processing.Extensions,
		},
		"database": map[string]any{
			"path":           r.config.Database.Path,
			"max_open_conns": r.config.Database.MaxOpenConns,
			"max_idle_conns": r.config.Database.MaxIdleConns,
		},
		"server": map[string]any{
			"host": r.config.Server.Host,
			"port": r.config.Server.Port,
		},
	}, true)
}

// ConfigCreate writes a starter config file.
func (r *Runner) ConfigCreate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("wrote %s\n", path)
}
