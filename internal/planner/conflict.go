package planner

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/atelier/internal/fsops"
	"github.com/danieljhkim/atelier/internal/layers"
)

// ConflictChecker checks for conflicts when planning a build.
type ConflictChecker struct {
	cacheDir string
	claimed  map[string]string
}

// NewConflictChecker creates a new ConflictChecker for a build writing
// into cacheDir.
func NewConflictChecker(cacheDir string) *ConflictChecker {
	return &ConflictChecker{
		cacheDir: filepath.Clean(cacheDir),
		claimed:  make(map[string]string),
	}
}

// CheckOverlaps converts overlapping layer roots into conflicts.
func (c *ConflictChecker) CheckOverlaps(overlaps []layers.Overlap) []Conflict {
	out := make([]Conflict, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, Conflict{
			Path:     o.Path,
			Reason:   fmt.Sprintf("Layer %s is nested inside layer %s", o.Inner, o.Outer),
			Existing: o.Outer,
			Incoming: o.Inner,
		})
	}
	return out
}

// CheckLayer checks that wiping the cache cannot touch the layer's sources.
// Returns a Conflict if one is detected, or nil if the layer is safe.
func (c *ConflictChecker) CheckLayer(e *layers.Entry) *Conflict {
	src := filepath.Clean(e.SourcePath)
	if fsops.IsWithin(src, c.cacheDir) || fsops.IsWithin(c.cacheDir, src) {
		return &Conflict{
			Path:     c.cacheDir,
			Reason:   fmt.Sprintf("Build cache overlaps the sources of layer %s", e.PackageName),
			Existing: e.PackageName,
			Incoming: "cache",
		}
	}
	return nil
}

// ClaimMarker records that layer writes the marker at path. Returns a
// Conflict when another layer already claimed it or the path escapes the
// cache directory.
func (c *ConflictChecker) ClaimMarker(path, layer string) *Conflict {
	path = filepath.Clean(path)
	if !fsops.IsWithin(c.cacheDir, path) {
		return &Conflict{
			Path:     path,
			Reason:   "Marker path escapes the build cache",
			Existing: "cache",
			Incoming: layer,
		}
	}
	if prev, ok := c.claimed[path]; ok {
		return &Conflict{
			Path:     path,
			Reason:   fmt.Sprintf("Marker already written by layer %s", prev),
			Existing: prev,
			Incoming: layer,
		}
	}
	c.claimed[path] = layer
	return nil
}
