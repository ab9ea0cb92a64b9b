package app

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"faarc/internal/archive"
	"faarc/internal/config"
	"faarc/internal/database"
	"faarc/internal/faclient"
)

// App wires config, logging, the state store and the site client together
// for one CLI invocation. The caller must call Close when done.
type App struct {
	cfg     *config.Config
	logger  archive.Logger
	logFile *os.File
}

// NewApp reads the config (falling back to defaults when no config file
// exists) and sets up the run-scoped logger.
func NewApp() (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.LoadOrDefault(defaults["config_path"], defaults["log_dir"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	runID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:     cfg,
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
	}, nil
}

func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// Archive archives one artist's content into dir. It blocks until the run
// completes, fails, or the cancel flag is honored at a checkpoint.
func (a *App) Archive(artist, dir string, cancel *archive.CancelFlag) (archive.Outcome, error) {
	creds, err := ResolveCredentials()
	if err != nil {
		return archive.OutcomeCompleted, err
	}

	layout := archive.NewLayout(dir)
	if err := layout.Ensure(); err != nil {
		return archive.OutcomeCompleted, err
	}

	store, err := database.Open(layout.DBPath())
	if err != nil {
		return archive.OutcomeCompleted, err
	}
	defer store.Close()

	client := faclient.New(faclient.Options{
		BaseURL:     a.cfg.BaseURL,
		UserAgent:   a.cfg.UserAgent,
		MinDelay:    time.Duration(a.cfg.MinDelaySeconds) * time.Second,
		Credentials: creds,
	})

	archiver := archive.NewArchiver(artist, layout, store, client, cancel, a.logger)
	return archiver.Archive()
}

// Chunk splits a completed archive in dir into batches of size items.
func (a *App) Chunk(dir string, size int) error {
	if err := archive.ValidateChunkSize(size); err != nil {
		return err
	}

	store, layout, err := a.openExisting(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	return archive.NewChunker(layout, store, a.logger).Chunk(size)
}

// Status describes the archive state of a directory.
type Status struct {
	Artist    string
	Collected map[archive.Category]bool
	Open      int
	Total     int
}

// Status reports the bound artist, per-category collection state and queue
// counts for an existing archive.
func (a *App) Status(dir string) (*Status, error) {
	store, _, err := a.openExisting(dir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	artist, _, err := archive.BoundArtist(store)
	if err != nil {
		return nil, err
	}

	collected := make(map[archive.Category]bool)
	for _, c := range archive.Categories() {
		done, err := store.GetFlag(archive.CollectionFlag(c))
		if err != nil {
			return nil, err
		}
		collected[c] = done
	}

	open, err := store.CountOpen()
	if err != nil {
		return nil, err
	}
	total, err := store.CountTotal()
	if err != nil {
		return nil, err
	}

	return &Status{Artist: artist, Collected: collected, Open: open, Total: total}, nil
}

// openExisting opens the state store of an archive that must already exist.
func (a *App) openExisting(dir string) (*database.SQLiteStore, archive.Layout, error) {
	layout := archive.NewLayout(dir)
	if _, err := os.Stat(layout.DBPath()); err != nil {
		return nil, layout, fmt.Errorf(
			"state store %s does not exist, either you picked the wrong directory or you didn't archive anything yet: %w",
			layout.DBPath(), archive.ErrNoArchive)
	}
	store, err := database.Open(layout.DBPath())
	if err != nil {
		return nil, layout, err
	}
	return store, layout, nil
}
