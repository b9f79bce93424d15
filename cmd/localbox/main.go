// Package main provides the localbox server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/localbox/internal/api/httpapi"
	"github.com/osa030/localbox/internal/app/filter"
	"github.com/osa030/localbox/internal/app/grouping"
	"github.com/osa030/localbox/internal/app/indexer"
	"github.com/osa030/localbox/internal/app/session"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/infra/config"
	"github.com/osa030/localbox/internal/infra/engine"
	"github.com/osa030/localbox/internal/infra/fsource"
	"github.com/osa030/localbox/internal/infra/logger"
	"github.com/osa030/localbox/internal/infra/prefs"
	"github.com/osa030/localbox/internal/infra/tagreader"
	"github.com/osa030/localbox/internal/infra/watch"
)

const defaultConfigPath = "config/localbox.yaml"

var (
	app        = kingpin.New("localbox", "Local audio playback controller")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// scan command
	scanCmd     = app.Command("scan", "Scan folders and print the grouped library")
	scanFolders = scanCmd.Arg("folders", "Folders to scan").Required().Strings()
	scanSort    = scanCmd.Flag("sort", "Sort key (TITLE, ARTIST, ALBUM)").Default("TITLE").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	switch command {
	case scanCmd.FullCommand():
		err = scan(cfg, *scanFolders, *scanSort)
	default:
		err = run(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("localbox: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// loadConfig loads the config file. A missing file at the default path
// falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		zlog.Warn().Msgf("Config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	store, err := prefs.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return err
	}

	sessionMgr, err := session.NewManager(cfg, session.Deps{
		Source:      fsource.New(),
		Extractor:   tagreader.New(),
		Preferences: store,
		Engine:      eng,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	if cfg.Library.Watch {
		watcher, err := startWatcher(cfg, sessionMgr)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	if err := sessionMgr.Start(); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(httpapi.NewRouter(sessionMgr, cfg.Server), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so event streams end and the engine is released.
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// startWatcher rescans on folder changes and follows the folder list.
func startWatcher(cfg *config.Config, sessionMgr *session.Manager) (*watch.Watcher, error) {
	watcher, err := watch.New(cfg.WatchDebounce(), func() {
		if err := sessionMgr.Rescan(); err != nil {
			zlog.Warn().Msgf("watch: rescan rejected: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	folders := sessionMgr.Hub().MusicFolders.Subscribe()
	go func() {
		// Ends when the hub closes the subscription.
		for list := range folders.C {
			watcher.SetFolders(list)
		}
	}()
	return watcher, nil
}

// scan indexes folders once and prints the grouped library.
func scan(cfg *config.Config, folders []string, sortName string) error {
	key, err := library.ParseSortKey(sortName)
	if err != nil {
		return err
	}

	chain, err := session.BuildFilterChain(cfg)
	if err != nil {
		return err
	}

	idx := indexer.New(fsource.New(), tagreader.New(), chain)
	tracks := idx.Scan(context.Background(), folders)

	for _, e := range grouping.Group(tracks, key) {
		if e.IsHeader() {
			fmt.Printf("\n[%s]\n", e.Label)
			continue
		}
		fmt.Printf("  %s - %s (%s)\n", e.Track.Title, e.Track.Artist, e.Track.Album)
	}
	fmt.Printf("\n%d tracks\n", len(tracks))
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
