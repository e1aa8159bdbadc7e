package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/audiotag/internal/cogs"
	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/providers"
	"github.com/desertthunder/audiotag/internal/repositories"
	"github.com/desertthunder/audiotag/internal/shared"
	"github.com/desertthunder/audiotag/internal/tagio"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	reader     tagio.Reader

	db      *sql.DB
	engine  *jobs.Engine
	manager *jobs.Manager
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Reader     tagio.Reader
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Reader == nil {
		opts.Reader = tagio.NewFileReader()
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		reader:     opts.Reader,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		processCommand, serveCommand, validateCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig replaces the runner's config with the file at path when it
// exists. A missing default config file is not an error.
func (r *Runner) loadConfig(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if path == defaultConfigPath {
			return nil
		}
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// setup opens the metadata cache database and assembles the processing
// engine and job manager. It is safe to call more than once.
func (r *Runner) setup() error {
	if r.manager != nil {
		return nil
	}

	if r.db == nil && r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open metadata cache: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to migrate metadata cache: %w", err)
		}
		r.db = db
	}

	r.engine = jobs.NewEngine(r.registryFunc(), r.reader, r.logger)
	r.manager = jobs.NewManager(r.engine, r.logger)
	return nil
}

// registryFunc builds the per-run cog registry, honoring the run's
// lyrics source and tag fallback selections over the config defaults.
func (r *Runner) registryFunc() jobs.RegistryFunc {
	return func(opts jobs.ProcessOpts) (*cogs.Registry, error) {
		pcfg := r.config.Providers
		if opts.APIKey != "" {
			pcfg.AcoustIDAPIKey = opts.APIKey
		}
		minScore := r.config.Processing.MinScore
		musicbrainz := providers.NewMusicBrainzService(pcfg, minScore, r.httpClient)

		var metadata providers.MetadataSource = musicbrainz
		var lyricsCache cogs.LyricsCache
		if r.db != nil {
			metadata = repositories.NewCachedMetadataSource(musicbrainz, repositories.NewRecordingRepository(r.db))
			lyricsCache = repositories.NewLyricsCacheAdapter(repositories.NewLyricsRepository(r.db))
		}

		source := opts.LyricsSource
		if source == "" {
			source = r.config.Processing.LyricsSource
		}
		lyrics, err := r.lyricsSources(source)
		if err != nil {
			return nil, err
		}

		return cogs.DefaultRegistry(cogs.Deps{
			Fingerprinter: providers.NewFpcalc(pcfg.FpcalcPath),
			Identifier:    providers.NewAcoustIDService(pcfg, r.httpClient),
			Metadata:      metadata,
			Covers:        providers.NewCoverArtService(pcfg, r.httpClient),
			Lyrics:        lyrics,
			LyricsCache:   lyricsCache,
			MinScore:      minScore,
			TagFallback:   opts.TagFallback,
		}), nil
	}
}

// lyricsSources maps a source name to the ordered provider list.
// "combined" tries every configured source, cheapest first; Genius only
// joins the combined list when an API key is configured.
func (r *Runner) lyricsSources(name string) ([]providers.LyricsSource, error) {
	pcfg := r.config.Providers

	switch name {
	case "", "combined":
		sources := []providers.LyricsSource{
			providers.NewLRCLibService(pcfg, r.httpClient),
			providers.NewNetEaseService(pcfg, r.httpClient),
		}
		if pcfg.GeniusAPIKey != "" {
			sources = append(sources, providers.NewGeniusService(pcfg))
		}
		return sources, nil
	case "lrclib":
		return []providers.LyricsSource{providers.NewLRCLibService(pcfg, r.httpClient)}, nil
	case "netease":
		return []providers.LyricsSource{providers.NewNetEaseService(pcfg, r.httpClient)}, nil
	case "genius":
		return []providers.LyricsSource{providers.NewGeniusService(pcfg)}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown lyrics source %q", shared.ErrInvalidInput, name)
	}
}

// Close releases the runner's database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
