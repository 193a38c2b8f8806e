package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lrcx/internal/cache"
	"github.com/desertthunder/lrcx/internal/repositories"
	"github.com/desertthunder/lrcx/internal/services"
	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/desertthunder/lrcx/internal/tasks"
	"github.com/desertthunder/lrcx/internal/ttplayer"
	"github.com/desertthunder/lrcx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, cache and resolution engine are built on first use so commands that
// only touch the config (or nothing at all) never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette

	db      *sql.DB
	lyrics  *repositories.LyricsRepository
	history *repositories.ResolutionRepository
	cache   *cache.Store
	fetcher *services.HTTPFetcher
	engine  *tasks.LyricsEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // Loaded from ConfigPath in [Runner.Before] when nil
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Palette    *ui.Palette
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Palette == nil {
		opts.Palette = ui.Default
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    opts.Palette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		fetchCommand, batchCommand, lyricsCommand, historyCommand, serveCommand, setupCommand, cacheCommand, debugCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads and validates the configuration and applies the log level flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case err == nil:
			r.config = config
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			r.config = shared.DefaultConfig()
		default:
			return ctx, err
		}
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	if cmd.Bool("verbose") {
		level = "debug"
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	shared.SetLogLevel(r.logger, ll)

	return ctx, nil
}

// After releases anything opened by [Runner.services].
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close waits for in-flight mirror requests and closes the database.
func (r *Runner) Close() error {
	if r.fetcher != nil {
		r.fetcher.Wait()
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.engine = nil
	return err
}

func (r *Runner) conf() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens the configured database and its repositories.
func (r *Runner) database() error {
	if r.db != nil {
		return nil
	}
	db, err := shared.OpenDatabase(r.conf().Database)
	if err != nil {
		return err
	}
	r.db = db
	r.lyrics = repositories.NewLyricsRepository(db)
	r.history = repositories.NewResolutionRepository(db)
	return nil
}

// lyricCache returns the configured cache store, or nil when caching is disabled.
func (r *Runner) lyricCache() (*cache.Store, error) {
	if r.cache != nil || !r.conf().Cache.Enabled {
		return r.cache, nil
	}
	store, err := cache.New(r.conf().Cache.Dir)
	if err != nil {
		return nil, err
	}
	r.cache = store
	return store, nil
}

// services wires the full resolution stack:
// HTTP fetcher -> session manager -> TTPlayer downloader -> collector -> repository.
func (r *Runner) services() (*tasks.LyricsEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	config := r.conf()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := r.database(); err != nil {
		return nil, err
	}
	store, err := r.lyricCache()
	if err != nil {
		return nil, err
	}

	var headers *shared.RequestHeaders
	if path := config.Provider.HeadersFile; path != "" {
		if headers, err = shared.LoadRequestHeaders(path); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded request headers", "path", path, "headers", headers)
	}

	r.fetcher = services.NewHTTPFetcher(services.FetcherOpts{
		Client:    r.httpClient,
		UserAgent: config.Provider.UserAgent,
		Timeout:   config.Provider.Timeout(),
		RateLimit: config.Provider.RateLimit,
		Burst:     config.Provider.Burst,
		MaxBody:   config.Provider.MaxBodyBytes,
		Headers:   headers,
		Logger:    r.logger,
	})

	collector := tasks.NewCollector(repositories.NewLyricsStoreAdapter(r.lyrics))
	downloader := ttplayer.NewDownloader(ttplayer.DownloaderOpts{
		Mirrors:   config.Provider.Mirrors,
		Persister: collector,
		Logger:    r.logger,
	})

	manager, err := session.NewManager(session.ManagerOpts{
		Fetcher:   r.fetcher,
		Processor: downloader,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}

	opts := tasks.EngineOpts{
		Resolver:  manager,
		Collector: collector,
		History:   r.history,
		Logger:    r.logger,
	}
	// a nil *cache.Store must not become a non-nil interface
	if store != nil {
		opts.Cache = store
	}

	engine, err := tasks.NewLyricsEngine(opts)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return engine, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
