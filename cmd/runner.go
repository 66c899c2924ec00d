package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzx/internal/audit"
	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/repositories"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/desertthunder/dzx/internal/tasks"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Catalogs, the plan store and the audit recorder are built on first use from the loaded configuration, unless
// they were injected through [RunnerOpts].
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	recorder    audit.Recorder
	auditFile   io.Closer
	source      catalog.Source
	destination catalog.Destination
	store       *repositories.PlanRepository
	db          *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Source      catalog.Source
	Destination catalog.Destination
	Store       *repositories.PlanRepository
	Recorder    audit.Recorder
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		recorder:    opts.Recorder,
		source:      opts.Source,
		destination: opts.Destination,
		store:       opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playlistsCommand, exportCommand, importCommand, transferCommand, searchCommand, plansCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config. A missing file falls back to defaults.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		path := cmd.String("config")
		config, err := shared.LoadConfig(path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			if cmd.IsSet("config") {
				r.logger.Warn("config file not found, using defaults", "path", path)
			}
			config = shared.DefaultConfig()
		default:
			return ctx, err
		}
		r.config = config
		r.configPath = path
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// after releases the database and audit file.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
		r.store = nil
	}
	if r.auditFile != nil {
		errs = append(errs, r.auditFile.Close())
		r.auditFile = nil
		r.recorder = nil
	}
	return errors.Join(errs...)
}

func (r *Runner) auditRecorder() audit.Recorder {
	if r.recorder != nil {
		return r.recorder
	}

	logger := shared.WithLogger(r.logger, "component", "audit")
	rec, err := audit.OpenLogRecorder(logger, r.config.Log.File)
	if err != nil {
		r.logger.Warn("audit file unavailable, logging only", "path", r.config.Log.File, "error", err)
		rec = audit.NewLogRecorder(logger)
	}
	r.recorder = rec
	r.auditFile = rec
	return rec
}

func (r *Runner) sourceCatalog() (catalog.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	src, err := catalog.NewSource(r.config)
	if err != nil {
		return nil, err
	}
	r.source = src
	return src, nil
}

func (r *Runner) destinationCatalog(ctx context.Context) (catalog.Destination, error) {
	if r.destination != nil {
		return r.destination, nil
	}
	dst, err := catalog.NewDestination(ctx, r.config, func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	r.destination = dst
	return dst, nil
}

func (r *Runner) planStore() (*repositories.PlanRepository, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.store = repositories.NewPlanRepository(db)
	return r.store, nil
}

// saveTokens stores a refreshed Spotify token in memory and, when a config path is known, on disk.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Destination.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// withCommitLock runs fn while holding the commit lock next to the plan database.
//
// A second process trying to commit at the same time gets [shared.ErrLocked].
func (r *Runner) withCommitLock(fn func() error) error {
	path := r.lockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire commit lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrLocked, path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release commit lock", "path", path, "error", err)
		}
	}()

	return fn()
}

func (r *Runner) lockPath() string {
	if r.config.Database.Path == ":memory:" {
		return filepath.Join(os.TempDir(), "dzx-commit.lock")
	}
	return filepath.Join(filepath.Dir(r.config.Database.Path), "commit.lock")
}

// progressPrinter prints progress updates until the returned stop function is called.
func (r *Runner) progressPrinter() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchPlaylists, tasks.ImportPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks:
				r.logger.Debug(update.Message)
			case tasks.CreatePlaylist, tasks.AddTracks:
				r.writePlain("📝 %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
