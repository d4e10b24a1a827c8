// Package planner handles the planning phase of a build.
//
// The planner turns a resolved layer composition into a deterministic list
// of filesystem operations: wipe the build cache, write one currentLayer
// marker module per layer, then hand the composition to the bundler. It
// detects conflicts that would make the build unsafe before anything is
// touched on disk.
//
// Key responsibilities:
//   - Generate BuildPlan with ordered operations
//   - Detect conflicts (overlapping layer roots, cache inside a layer, claimed marker paths)
//   - Surface skipped layers and unsatisfied requirements as warnings
package planner
