package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/atelier/internal/bundle"
	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/config"
	"github.com/danieljhkim/atelier/internal/layers"
	"github.com/danieljhkim/atelier/internal/planner"
)

// Algorithm steps:
// 1. Read the tool configuration
// 2. Resolve the declared layers into a composition
// 3. Preflight checks (generate plan, check for conflicts)
// 4. Execute operations in order (if not DryRun); the cache wipe is first
// 5. Hand the composition to the bundler
// 6. Return result
func (e *Engine) Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	started := e.clock.Now()

	cfg, err := e.loadToolConfig()
	if err != nil {
		return nil, err
	}

	comp, err := e.resolve(ctx, cfg)
	if err != nil && !errors.Is(err, layers.ErrOverlappingLayers) {
		return nil, fmt.Errorf("failed to resolve layers: %w", err)
	}

	outputDir := e.configPaths.Output(cfg.Output)
	plan := planner.BuildLayerPlan(comp, e.configPaths.CacheDir, outputDir)
	result := &BuildResult{
		Plan:        plan,
		Applied:     []planner.Operation{},
		Composition: comp,
		StartedAt:   started,
	}

	if plan.HasConflicts() {
		return result, fmt.Errorf("%w: %d conflicts detected", ErrConflict, len(plan.Conflicts))
	}

	if req.DryRun {
		return result, nil
	}

	for _, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if op.Type == planner.OpBundle {
			res, err := e.executeBundle(ctx, op, comp)
			if err != nil {
				return result, err
			}
			result.Bundle = res
		} else if err := e.executeOperation(op); err != nil {
			return result, fmt.Errorf("failed to execute operation: %w", err)
		}
		result.Applied = append(result.Applied, op)
	}

	result.Duration = clock.Since(e.clock, started)
	e.logger.Info("build complete",
		"layers", len(comp.Entries),
		"skipped", len(comp.Errors),
		"output", result.Bundle.OutputPath,
		"duration", result.Duration)
	return result, nil
}

// Layers resolves the configured layers without touching the cache.
func (e *Engine) Layers(ctx context.Context) (*LayersResult, error) {
	cfg, err := e.loadToolConfig()
	if err != nil {
		return nil, err
	}

	comp, err := e.resolve(ctx, cfg)
	if err != nil && !errors.Is(err, layers.ErrOverlappingLayers) {
		return nil, fmt.Errorf("failed to resolve layers: %w", err)
	}

	plan := planner.BuildLayerPlan(comp, e.configPaths.CacheDir, e.configPaths.Output(cfg.Output))
	result := &LayersResult{
		Composition: comp,
		Unsatisfied: comp.Unsatisfied(),
		Warnings:    plan.Warnings,
	}
	if plan.HasConflicts() {
		return result, fmt.Errorf("%w: %d conflicts detected", ErrConflict, len(plan.Conflicts))
	}
	return result, nil
}

func (e *Engine) loadToolConfig() (*config.ToolConfig, error) {
	cfg, err := e.LoadToolConfig()
	if err != nil {
		if errors.Is(err, config.ErrToolConfigNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return cfg, nil
}

func (e *Engine) resolve(ctx context.Context, cfg *config.ToolConfig) (*layers.Composition, error) {
	decls, err := declarations(cfg)
	if err != nil {
		return nil, err
	}
	resolver := layers.NewResolver(e.fs, e.configPaths.PackageRoots, e.configPaths.CacheDir, e.logger)
	return resolver.Resolve(ctx, decls)
}

// executeBundle runs the bundler. Files written by earlier operations are
// left in place when it fails.
func (e *Engine) executeBundle(ctx context.Context, op planner.Operation, comp *layers.Composition) (*bundle.Result, error) {
	res, err := e.bundler.Bundle(ctx, bundle.Input{
		Composition: comp,
		CacheDir:    e.configPaths.CacheDir,
		OutputDir:   op.DestPath,
		ToolConfig:  e.configPaths.ToolConfig,
	})
	if err != nil {
		e.logger.Error("bundler failed", "output", op.DestPath, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrBundle, err)
	}
	return res, nil
}
