package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/replay"
	"github.com/danieljhkim/atelier/internal/templates"
)

// Drop instantiates a template at the drop location and posts the
// rewritten events to the destination forest.
func (e *Engine) Drop(ctx context.Context, req *DropRequest) (*DropResult, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return nil, err
	}
	if req.Dir == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: template dir and name are required", ErrValidation)
	}
	if req.ForestPkgID == "" || req.ForestID == "" {
		return nil, fmt.Errorf("%w: forest package and forest id are required", ErrValidation)
	}
	if req.Index != nil && *req.Index < 0 {
		return nil, fmt.Errorf("%w: index must not be negative", ErrValidation)
	}

	res, err := rt.Dropper.Drop(ctx, replay.DropRequest{
		Dir:         req.Dir,
		Name:        req.Name,
		NewRootID:   req.NewRootID,
		CaughtBy:    req.CaughtBy,
		Point:       replay.Point{X: req.X, Y: req.Y},
		Boxes:       req.Boxes,
		Index:       req.Index,
		ForestPkgID: req.ForestPkgID,
		ForestID:    req.ForestID,
		TreeID:      req.TreeID,
	})
	if res == nil {
		return nil, err
	}

	out := &DropResult{
		RootID:  res.RootID,
		Events:  event.List(res.Events),
		Emitted: res.Emitted,
		Aliases: res.Aliases,
	}
	return out, err
}

// PostEvent applies a single event to a forest.
func (e *Engine) PostEvent(ctx context.Context, req *PostEventRequest) error {
	rt, err := e.requireRuntime()
	if err != nil {
		return err
	}
	if req.Event == nil {
		return fmt.Errorf("%w: event is required", ErrValidation)
	}
	return rt.Forests.PostEvent(ctx, req.ForestPkgID, req.ForestID, req.Event)
}

// Tree returns a snapshot of one tree.
func (e *Engine) Tree(ctx context.Context, req *TreeRequest) (*forest.Tree, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rt.Forests.ReadTree(req.ForestPkgID, req.ForestID, req.TreeID)
}

// TemplateDirs returns every template directory.
func (e *Engine) TemplateDirs() ([]string, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return nil, err
	}
	return rt.Templates.Dirs()
}

// Templates lists the templates of dir.
func (e *Engine) Templates(dir string) (*TemplateListResult, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return nil, err
	}
	list, err := rt.Templates.List(dir)
	if err != nil {
		return nil, err
	}
	return &TemplateListResult{Dir: dir, Templates: list}, nil
}

// TemplateEvents loads the recorded events of one template.
func (e *Engine) TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return nil, err
	}
	return rt.Templates.TemplateEvents(ctx, dir, name)
}

// SaveTemplate records events as a template.
func (e *Engine) SaveTemplate(dir, name string, events []event.Event) error {
	rt, err := e.requireRuntime()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("%w: template %s/%s has no events", ErrValidation, dir, name)
	}
	return rt.Templates.Save(dir, name, events)
}

// NewAlias mints an alias unique within the package namespace.
func (e *Engine) NewAlias(ctx context.Context, req *AliasRequest) (string, error) {
	rt, err := e.requireRuntime()
	if err != nil {
		return "", err
	}
	if req.PackageID == "" {
		return "", fmt.Errorf("%w: packageId is required", ErrValidation)
	}
	return rt.Aliases.NewAlias(ctx, req.PackageID, req.Key)
}

// IsNotFound reports whether err means a missing resource of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, templates.ErrNotFound) ||
		errors.Is(err, forest.ErrUnknownForest) ||
		errors.Is(err, forest.ErrUnknownTree)
}
