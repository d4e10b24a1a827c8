package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

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

// testEnv is a tool directory on disk plus the engine wired over it.
type testEnv struct {
	toolDir string
	paths   config.Paths
	clock   *clock.FakeClock
	engine  *engine.Engine
	store   *sqlite.Store
}

// writeFiles writes files relative to root, creating parents.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// newToolDir creates a tool directory from files and returns its paths.
func newToolDir(t *testing.T, files map[string]string) (string, config.Paths) {
	t.Helper()
	toolDir := t.TempDir()
	writeFiles(t, toolDir, files)
	paths, err := config.DefaultPaths(&config.Env{ToolDir: toolDir})
	if err != nil {
		t.Fatalf("DefaultPaths failed: %v", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	return toolDir, *paths
}

// openEngine wires an engine with the forest runtime over the sqlite
// journal at paths.DBPath and replays it. The store is closed on cleanup.
func openEngine(t *testing.T, toolDir string, paths config.Paths) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := fsops.NewRealFS()
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	store, err := sqlite.Open(paths.DBPath)
	if err != nil {
		t.Fatalf("sqlite.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg, err := config.LoadToolConfig(fs, paths.ToolConfig)
	if err != nil {
		t.Fatalf("LoadToolConfig failed: %v", err)
	}
	manager := forest.NewManager(cfg.ForestTrees(), store, clk, logger)
	if _, err := manager.Replay(context.Background()); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	repo := templates.NewMultiTemplateRepo(
		templates.NewFileTemplateRepo(fs, paths.Templates),
		templates.NewReadOnlyTemplateRepo(fs, paths.SharedTemplates),
	)
	aliases := alias.NewCounterResolver(store)
	gen := ids.NewUUIDGenerator()
	re := replay.NewEngine(gen, aliases, manager, replay.WithLogger(logger))

	eng := engine.New(fs, clk, paths, bundle.NewManifestBundler(fs, hash.NewSHA256Hasher(), clk), logger).
		WithRuntime(&engine.Runtime{
			Forests:   manager,
			Templates: repo,
			Dropper:   replay.NewDropper(re, repo, manager, replay.BoxGeometry{}, gen, logger),
			Aliases:   aliases,
		})
	return &testEnv{toolDir: toolDir, paths: paths, clock: clk, engine: eng, store: store}
}
