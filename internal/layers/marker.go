package layers

import (
	"fmt"
	"path/filepath"
)

// Values of the generated currentLayer constant.
const (
	LayerRoot  = "root"
	LayerChild = "child"
)

// MarkerExport is the name exported by every marker module.
const MarkerExport = "currentLayer"

// MarkerPath returns where the marker module of pkg lives under cacheDir.
func MarkerPath(cacheDir, pkg string) string {
	return filepath.Join(cacheDir, filepath.FromSlash(pkg), "index.js")
}

// MarkerSource returns the marker module for a root or child layer.
func MarkerSource(isRoot bool) string {
	value := LayerChild
	if isRoot {
		value = LayerRoot
	}
	return fmt.Sprintf("export const %s = %q\n", MarkerExport, value)
}
