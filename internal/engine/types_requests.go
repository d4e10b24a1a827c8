package engine

import (
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/replay"
)

// BuildRequest represents a request to build the layer composition.
type BuildRequest struct {
	// DryRun performs planning only without touching the cache or output
	DryRun bool
}

// DropRequest represents a template dropped onto the canvas.
type DropRequest struct {
	// Dir and Name locate the template in the template store
	Dir  string `json:"dir"`
	Name string `json:"name"`

	// NewRootID is the id given to the template root; minted when empty
	NewRootID string `json:"newTemplateRootId,omitempty"`

	// CaughtBy is the component that caught the drop ("body" when empty)
	CaughtBy string `json:"caughtBy,omitempty"`

	// X and Y are the drop location
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Boxes are the bounding boxes of CaughtBy's children, keyed by id
	Boxes map[string]replay.Rect `json:"boxes,omitempty"`

	// Index places the root at an explicit child index instead of
	// deriving it from the drop location
	Index *int `json:"index,omitempty"`

	// ForestPkgID and ForestID select the destination forest
	ForestPkgID string `json:"forestPkgId"`
	ForestID    string `json:"forestId"`

	// TreeID is the component tree (default "componentTree")
	TreeID string `json:"treeId,omitempty"`
}

// TreeRequest represents a request for a tree snapshot.
type TreeRequest struct {
	ForestPkgID string
	ForestID    string
	TreeID      string
}

// PostEventRequest represents one event applied to a forest.
type PostEventRequest struct {
	ForestPkgID string
	ForestID    string
	Event       event.Event
}

// AliasRequest represents a request for a fresh alias.
type AliasRequest struct {
	PackageID string `json:"packageId"`
	Key       string `json:"key"`
}
