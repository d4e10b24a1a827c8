package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danieljhkim/atelier/internal/alias"
	"github.com/danieljhkim/atelier/internal/bundle"
	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/config"
	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/fsops"
	"github.com/danieljhkim/atelier/internal/hash"
	"github.com/danieljhkim/atelier/internal/ids"
	"github.com/danieljhkim/atelier/internal/replay"
	"github.com/danieljhkim/atelier/internal/storage/sqlite"
	"github.com/danieljhkim/atelier/internal/templates"
)

// Forest backends selectable through forestManager.path.
const (
	forestBackendSQLite = "sqlite"
	forestBackendMemory = "memory"
)

// app bundles an engine with the resources that must be released.
type app struct {
	engine  *engine.Engine
	env     *config.Env
	logger  *slog.Logger
	closers []func() error
}

// Close releases every resource opened for the app.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newEngine creates an engine for build commands; no runtime is attached.
func newEngine() (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	if toolDir != "" {
		env.ToolDir = toolDir
	}
	logger, err := newLogger(env)
	if err != nil {
		return nil, err
	}

	// Get default paths
	paths, err := config.DefaultPaths(env)
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Create real implementations
	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}
	bundler := bundle.NewManifestBundler(fs, hasher, clk)

	return &app{
		engine: engine.New(fs, clk, *paths, bundler, logger),
		env:    env,
		logger: logger,
	}, nil
}

// newRuntimeApp creates an engine with the forest runtime attached: the
// journal is opened and replayed, and the alias resolver is selected
// (redis when ATELIER_REDIS_URL is set, otherwise the journal database).
func newRuntimeApp(ctx context.Context) (*app, error) {
	a, err := newEngine()
	if err != nil {
		return nil, err
	}
	eng := a.engine
	paths := eng.Paths()

	cfg, err := eng.LoadToolConfig()
	if err != nil {
		return nil, err
	}

	// Ensure directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	var (
		journal forest.Journal
		counter alias.Counter
	)
	switch cfg.ForestManager.Path {
	case "", forestBackendSQLite:
		dbPath := paths.DBPath
		if dir := cfg.ForestManager.Options.ForestDir; dir != "" && a.env.DBPath == "" {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(paths.ToolDir, dir)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create forest dir: %w", err)
			}
			dbPath = filepath.Join(dir, filepath.Base(paths.DBPath))
		}
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		journal, counter = store, store
	case forestBackendMemory:
		journal, counter = forest.NewMemoryJournal(), alias.NewMemoryCounter()
	default:
		return nil, fmt.Errorf("%w: unknown forest manager %q", engine.ErrValidation, cfg.ForestManager.Path)
	}

	aliases := alias.NewCounterResolver(counter)
	if a.env.RedisURL != "" {
		client, err := alias.Connect(ctx, a.env.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		aliases = alias.NewRedisResolver(client)
	}

	clk := &clock.RealClock{}
	manager := forest.NewManager(cfg.ForestTrees(), journal, clk, a.logger)
	if _, err := manager.Replay(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	repo := templates.NewMultiTemplateRepo(
		templates.NewFileTemplateRepo(fsops.NewRealFS(), paths.Templates),
		templates.NewReadOnlyTemplateRepo(fsops.NewRealFS(), paths.SharedTemplates),
	)
	gen := ids.NewUUIDGenerator()
	instantiator := replay.NewEngine(gen, aliases, manager,
		replay.WithAliasTimeout(a.env.AliasTimeout),
		replay.WithLogger(a.logger))

	eng.WithRuntime(&engine.Runtime{
		Forests:   manager,
		Templates: repo,
		Dropper:   replay.NewDropper(instantiator, repo, manager, replay.BoxGeometry{}, gen, a.logger),
		Aliases:   aliases,
	})
	return a, nil
}

// newLogger builds the process logger; logs go to stderr so --json output
// on stdout stays parseable.
func newLogger(env *config.Env) (*slog.Logger, error) {
	logger, err := config.NewLogger(os.Stderr, env.LogLevel, env.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
