// Package bundle hands a resolved layer composition to the bundler.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/danieljhkim/atelier/internal/clock"
	"github.com/danieljhkim/atelier/internal/fsops"
	"github.com/danieljhkim/atelier/internal/hash"
	"github.com/danieljhkim/atelier/internal/layers"
)

// ManifestFile is the name of the manifest written into the output dir.
const ManifestFile = "layers.manifest.json"

// ErrNoLayers is returned when there is nothing to bundle.
var ErrNoLayers = errors.New("no layers to bundle")

// Input is everything a bundler needs for one build.
type Input struct {
	Composition *layers.Composition
	CacheDir    string
	OutputDir   string

	// ToolConfig is folded into the fingerprint when set.
	ToolConfig string
}

// Result describes the bundler output.
type Result struct {
	OutputPath  string
	Fingerprint string
}

// Bundler produces the editor bundle from a composition.
type Bundler interface {
	Bundle(ctx context.Context, in Input) (*Result, error)
}

// Manifest is the document written by ManifestBundler. External bundlers
// read it to learn entry order, sockets and the per-file rewrite tables.
type Manifest struct {
	Version     int             `json:"version"`
	BuiltAt     time.Time       `json:"builtAt"`
	Fingerprint string          `json:"fingerprint"`
	Entries     []ManifestEntry `json:"entries"`
	Sockets     layers.Sockets  `json:"sockets"`
}

// ManifestEntry is one layer in the manifest.
type ManifestEntry struct {
	Index       int                  `json:"index"`
	PackageName string               `json:"packageName"`
	IsRoot      bool                 `json:"isRoot"`
	EntryFile   string               `json:"entryFile"`
	SourcePath  string               `json:"sourcePath"`
	Imports     []layers.Import      `json:"imports"`
	NameMap     layers.CapabilityMap `json:"nameMap"`
}

// ManifestBundler writes a JSON manifest instead of running a JS bundler.
type ManifestBundler struct {
	fs     fsops.FS
	hasher hash.Hasher
	clock  clock.Clock
}

// NewManifestBundler creates a ManifestBundler.
func NewManifestBundler(fs fsops.FS, hasher hash.Hasher, clk clock.Clock) *ManifestBundler {
	return &ManifestBundler{fs: fs, hasher: hasher, clock: clk}
}

// Bundle writes <OutputDir>/layers.manifest.json.
func (b *ManifestBundler) Bundle(ctx context.Context, in Input) (*Result, error) {
	if in.Composition == nil || len(in.Composition.Entries) == 0 {
		return nil, ErrNoLayers
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comp := in.Composition
	fingerprintPaths := append(comp.EntryFiles(), comp.ConfigPaths()...)
	if in.ToolConfig != "" {
		fingerprintPaths = append(fingerprintPaths, in.ToolConfig)
	}
	fingerprint, err := hash.Fingerprint(b.hasher, fingerprintPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint layers: %w", err)
	}

	m := Manifest{
		Version:     1,
		BuiltAt:     b.clock.Now(),
		Fingerprint: fingerprint,
		Entries:     make([]ManifestEntry, 0, len(comp.Entries)),
		Sockets:     comp.Sockets,
	}
	for _, e := range comp.Entries {
		m.Entries = append(m.Entries, ManifestEntry{
			Index:       e.Index,
			PackageName: e.PackageName,
			IsRoot:      e.IsRoot,
			EntryFile:   e.EntryFile,
			SourcePath:  e.SourcePath,
			Imports:     comp.Imports(e.EntryFile),
			NameMap:     e.NameMap,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := b.fs.MkdirAll(in.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	out := filepath.Join(in.OutputDir, ManifestFile)
	if err := b.fs.AtomicWrite(out, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return &Result{OutputPath: out, Fingerprint: fingerprint}, nil
}

// ReadManifest loads a manifest written by ManifestBundler.
func ReadManifest(fs fsops.FS, path string) (*Manifest, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Manifest
		Sockets map[layers.Capability][]string `json:"sockets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m := raw.Manifest
	m.Sockets = layers.NewSockets()
	for c, names := range raw.Sockets {
		nm := make(layers.NameMap, len(names))
		for _, n := range names {
			nm[n] = n
		}
		m.Sockets.Add(c, nm)
	}
	return &m, nil
}
