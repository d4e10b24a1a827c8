package planner

import (
	"fmt"

	"github.com/danieljhkim/atelier/internal/layers"
)

// BuildLayerPlan generates a deterministic plan for one build of comp.
//
// The cache wipe is always the first operation. Marker writes follow in
// layer order and the bundle step comes last.
func BuildLayerPlan(comp *layers.Composition, cacheDir, outputDir string) *BuildPlan {
	names := make([]string, 0, len(comp.Entries))
	for _, e := range comp.Entries {
		names = append(names, e.PackageName)
	}
	plan := NewBuildPlan(names)
	checker := NewConflictChecker(cacheDir)

	for _, c := range checker.CheckOverlaps(comp.Overlaps) {
		plan.AddConflict(c)
	}

	plan.AddOperation(Operation{Type: OpWipeCache, DestPath: cacheDir})

	for _, e := range comp.Entries {
		if conflict := checker.CheckLayer(e); conflict != nil {
			plan.AddConflict(*conflict)
			continue
		}
		if conflict := checker.ClaimMarker(e.MarkerPath, e.PackageName); conflict != nil {
			plan.AddConflict(*conflict)
			continue
		}
		plan.AddOperation(Operation{
			Type:     OpWriteMarker,
			DestPath: e.MarkerPath,
			Content:  layers.MarkerSource(e.IsRoot),
			Layer:    e.PackageName,
		})
	}

	plan.AddOperation(Operation{Type: OpBundle, DestPath: outputDir})

	for _, le := range comp.Errors {
		plan.AddWarning(fmt.Sprintf("layer %s skipped: %v", le.Package, le.Err))
	}
	if _, ok := comp.Root(); !ok && len(comp.Entries) > 0 {
		plan.AddWarning("no root layer resolved; every layer builds as a child")
	}
	for _, r := range comp.Unsatisfied() {
		plan.AddWarning(fmt.Sprintf("layer %s requires %s %q (as %q) but no layer exposes it", r.Package, r.Capability, r.Global, r.Local))
	}

	return plan
}
