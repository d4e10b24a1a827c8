// Package engine provides the core operations of atelier.
//
// The engine package is the orchestration layer between the CLI and HTTP
// server on one side and the lower-level packages on the other. It reads
// the tool configuration, drives the layer resolver and build planner,
// executes the plan, and fronts the forest runtime.
//
// Key components:
//   - Engine: main orchestrator that coordinates all operations
//   - Build/Layers: compose layer packages and produce the bundle input
//   - Drop/PostEvent/Tree: template instantiation and forest access
//   - Templates/NewAlias: template store and alias minting
package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/danieljhkim/atelier/internal/alias"
	"github.com/danieljhkim/atelier/internal/bundle"
	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/config"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/fsops"
	"github.com/danieljhkim/atelier/internal/layers"
	"github.com/danieljhkim/atelier/internal/planner"
	"github.com/danieljhkim/atelier/internal/replay"
	"github.com/danieljhkim/atelier/internal/templates"
)

// Engine orchestrates all atelier operations.
// It is the main API surface called by the CLI and the event server.
type Engine struct {
	fs          fsops.FS
	clock       clock.Clock
	configPaths config.Paths
	bundler     bundle.Bundler
	logger      *slog.Logger

	runtime *Runtime
}

// Runtime holds the services behind the forest operations. Build and
// Layers work without one.
type Runtime struct {
	Forests   *forest.Manager
	Templates templates.TemplateRepo
	Dropper   *replay.Dropper
	Aliases   alias.Resolver
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	clk clock.Clock,
	paths config.Paths,
	bundler bundle.Bundler,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fs:          fs,
		clock:       clk,
		configPaths: paths,
		bundler:     bundler,
		logger:      logger,
	}
}

// WithRuntime attaches the forest runtime and returns e.
func (e *Engine) WithRuntime(rt *Runtime) *Engine {
	e.runtime = rt
	return e
}

// Paths returns the paths the engine was configured with.
func (e *Engine) Paths() config.Paths {
	return e.configPaths
}

func (e *Engine) requireRuntime() (*Runtime, error) {
	if e.runtime == nil {
		return nil, ErrNoRuntime
	}
	return e.runtime, nil
}

// LoadToolConfig reads the tool configuration file.
func (e *Engine) LoadToolConfig() (*config.ToolConfig, error) {
	return config.LoadToolConfig(e.fs, e.configPaths.ToolConfig)
}

// declarations converts the configured layer list into resolver input.
func declarations(cfg *config.ToolConfig) ([]layers.Declaration, error) {
	decls := make([]layers.Declaration, 0, len(cfg.Layers))
	for i, l := range cfg.Layers {
		d := layers.Declaration{Package: l.Pkg}
		if l.Remap != nil {
			requires, err := layers.ParseCapabilityMap(l.Remap.Requires)
			if err != nil {
				return nil, fmt.Errorf("%w: layers[%d].remap.requires: %v", ErrValidation, i, err)
			}
			exposes, err := layers.ParseCapabilityMap(l.Remap.Exposes)
			if err != nil {
				return nil, fmt.Errorf("%w: layers[%d].remap.exposes: %v", ErrValidation, i, err)
			}
			d.Remap = &layers.Remap{Requires: requires, Exposes: exposes}
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// executeOperation executes a single operation.
func (e *Engine) executeOperation(op planner.Operation) error {
	switch op.Type {
	case planner.OpWipeCache:
		return e.executeWipeCache(op)
	case planner.OpWriteMarker:
		return e.executeWriteMarker(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// executeWipeCache empties the build cache.
func (e *Engine) executeWipeCache(op planner.Operation) error {
	if err := e.fs.ResetDir(op.DestPath); err != nil {
		return fmt.Errorf("failed to wipe cache: %w", err)
	}
	return nil
}

// executeWriteMarker writes a currentLayer marker module.
func (e *Engine) executeWriteMarker(op planner.Operation) error {
	if err := e.fs.MkdirAll(filepath.Dir(op.DestPath), 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	if err := e.fs.AtomicWrite(op.DestPath, []byte(op.Content), 0644); err != nil {
		return fmt.Errorf("failed to write marker for %s: %w", op.Layer, err)
	}
	return nil
}
