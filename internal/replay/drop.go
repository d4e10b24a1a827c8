package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
	"github.com/danieljhkim/atelier/internal/ids"
)

// DefaultComponentTree is the tree drop targets are looked up in.
const DefaultComponentTree = "componentTree"

// TemplateSource loads recorded templates.
type TemplateSource interface {
	TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error)
}

// LiveForests gives read access to the destination forests.
type LiveForests interface {
	Forest(pkgID, forestID string) (*forest.Forest, error)
}

// DropRequest is a template dropped onto the canvas.
type DropRequest struct {
	// Dir and Name locate the template.
	Dir  string `json:"dir"`
	Name string `json:"name"`

	// NewRootID is the id of the instantiated root; minted when empty.
	NewRootID string `json:"newTemplateRootId,omitempty"`

	// CaughtBy is the component that caught the drop, or "body".
	CaughtBy string `json:"caughtBy"`

	// Point is where the drop happened; Boxes are the bounding boxes of
	// the catching component's children.
	Point Point           `json:"loc"`
	Boxes map[string]Rect `json:"boxes,omitempty"`

	// Index, when set, overrides the geometry.
	Index *int `json:"index,omitempty"`

	ForestPkgID string `json:"forestPkgId"`
	ForestID    string `json:"forestId"`

	// TreeID is the component tree; defaults to DefaultComponentTree.
	TreeID string `json:"treeId,omitempty"`
}

// Dropper resolves drop targets and instantiates templates there.
type Dropper struct {
	engine    *Engine
	templates TemplateSource
	forests   LiveForests
	geometry  Geometry
	ids       ids.Generator
	logger    *slog.Logger
}

// NewDropper creates a Dropper.
func NewDropper(engine *Engine, templates TemplateSource, forests LiveForests, geometry Geometry, gen ids.Generator, logger *slog.Logger) *Dropper {
	if geometry == nil {
		geometry = BoxGeometry{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dropper{
		engine:    engine,
		templates: templates,
		forests:   forests,
		geometry:  geometry,
		ids:       gen,
		logger:    logger,
	}
}

// Drop instantiates the requested template at the drop location. A drop
// caught by a component missing from the live tree emits nothing and
// returns ErrUnknownDropTarget.
func (d *Dropper) Drop(ctx context.Context, req DropRequest) (*Result, error) {
	treeID := req.TreeID
	if treeID == "" {
		treeID = DefaultComponentTree
	}
	caughtBy := req.CaughtBy
	if caughtBy == "" {
		caughtBy = event.BodyID
	}

	f, err := d.forests.Forest(req.ForestPkgID, req.ForestID)
	if err != nil {
		return nil, err
	}
	tree, err := f.Tree(treeID)
	if err != nil {
		return nil, err
	}
	if caughtBy != event.BodyID && !tree.Has(caughtBy) {
		d.logger.Warn("drop caught by unknown component, ignoring",
			"caught_by", caughtBy, "forest_pkg", req.ForestPkgID, "forest", req.ForestID,
			"template", req.Dir+"/"+req.Name)
		return nil, fmt.Errorf("%w: %s", ErrUnknownDropTarget, caughtBy)
	}

	var index int
	if req.Index != nil {
		index = *req.Index
	} else {
		index = d.geometry.Index(tree.Children(caughtBy), req.Boxes, req.Point)
	}

	events, err := d.templates.TemplateEvents(ctx, req.Dir, req.Name)
	if err != nil {
		return nil, err
	}

	rootID := req.NewRootID
	if rootID == "" {
		rootID = d.ids.NewID()
	}
	return d.engine.Instantiate(ctx, events, Target{
		Parent:    event.Parent{ID: caughtBy, Index: index},
		NewRootID: rootID,
		PackageID: req.ForestPkgID,
		ForestID:  req.ForestID,
		Exists:    f.Has,
	})
}
