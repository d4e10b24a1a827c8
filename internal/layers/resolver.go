// Package layers resolves the layer packages listed in the tool
// configuration into an ordered, validated composition.
//
// Each declared layer contributes a descriptor (lib/layer.config.yaml) that
// names its entry module and the capability names it exposes and requires.
// The resolver reads them in declared order, skips layers whose descriptor
// or entry module is missing, accumulates the exposed sockets, merges each
// layer's name map and sorts the result by declared index. The composition
// then answers the two per-file questions the code rewrite pass asks: which
// marker import to inject, and which name map applies.
package layers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/danieljhkim/atelier/internal/fsops"
)

// Phase is the resolver's progress through one build.
type Phase string

// Resolver phases, in order.
const (
	PhaseIdle        Phase = "Idle"
	PhaseDiscovering Phase = "DiscoveringLayers"
	PhaseMerging     Phase = "NameMapMerging"
	PhaseSorting     Phase = "Sorting"
	PhaseReady       Phase = "Ready"
)

// Composition is the resolved set of layers for one build.
type Composition struct {
	Phase Phase

	// Entries are sorted by declared index.
	Entries []*Entry

	Sockets Sockets

	// Errors lists the layers that were skipped and why.
	Errors []*LayerError

	// Overlaps lists layers whose source roots nest.
	Overlaps []Overlap

	index *ownershipIndex
}

// Resolver builds compositions.
type Resolver struct {
	fs       fsops.FS
	locator  *PackageLocator
	cacheDir string
	logger   *slog.Logger
}

// NewResolver creates a resolver that finds packages under roots and
// places marker modules under cacheDir.
func NewResolver(fs fsops.FS, roots []string, cacheDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fs:       fs,
		locator:  NewPackageLocator(fs, roots),
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// Resolve discovers, merges and sorts the declared layers.
//
// Per-layer failures are logged and recorded in Composition.Errors; the
// remaining layers are still resolved. The returned error is non-nil only
// when ctx is done or when layer source roots overlap, in which case the
// composition is returned as well so callers can report the overlaps.
func (r *Resolver) Resolve(ctx context.Context, decls []Declaration) (*Composition, error) {
	c := &Composition{Phase: PhaseIdle, Sockets: NewSockets()}

	r.enter(c, PhaseDiscovering)
	for i, decl := range decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := r.discover(i, decl)
		if err != nil {
			layerErr := &LayerError{Index: i, Package: decl.Package, Err: err}
			c.Errors = append(c.Errors, layerErr)
			r.logger.Error("skipping layer", "index", i, "package", decl.Package, "error", err)
			continue
		}
		c.Entries = append(c.Entries, entry)
	}

	r.enter(c, PhaseMerging)
	for _, e := range c.Entries {
		for _, capability := range Capabilities {
			c.Sockets.Add(capability, e.Exposes[capability])
		}
		e.NameMap = MergeNameMap(e.Exposes, e.Requires, e.Remap)
	}

	r.enter(c, PhaseSorting)
	sort.SliceStable(c.Entries, func(i, j int) bool {
		return c.Entries[i].Index < c.Entries[j].Index
	})
	c.index, c.Overlaps = newOwnershipIndex(c.Entries)

	r.enter(c, PhaseReady)
	if len(c.Overlaps) > 0 {
		o := c.Overlaps[0]
		return c, fmt.Errorf("%w: %s contains %s (%d overlaps)", ErrOverlappingLayers, o.Outer, o.Inner, len(c.Overlaps))
	}
	return c, nil
}

func (r *Resolver) enter(c *Composition, p Phase) {
	r.logger.Debug("layer resolution phase", "from", c.Phase, "to", p)
	c.Phase = p
}

func (r *Resolver) discover(index int, decl Declaration) (*Entry, error) {
	pkgDir, configPath, err := r.locator.Locate(decl.Package)
	if err != nil {
		return nil, err
	}
	desc, err := LoadDescriptor(r.fs, configPath)
	if err != nil {
		return nil, err
	}
	module, file, err := resolveEntry(r.fs, configPath, desc.ModulePath)
	if err != nil {
		return nil, err
	}
	if decl.Remap != nil {
		if err := decl.Remap.Exposes.validate(); err != nil {
			return nil, fmt.Errorf("%w: remap.exposes: %v", ErrInvalidDescriptor, err)
		}
		if err := decl.Remap.Requires.validate(); err != nil {
			return nil, fmt.Errorf("%w: remap.requires: %v", ErrInvalidDescriptor, err)
		}
	}

	return &Entry{
		Index:           index,
		PackageName:     decl.Package,
		SourcePath:      pkgDir,
		ConfigPath:      configPath,
		EntryModulePath: module,
		EntryFile:       file,
		MarkerPath:      MarkerPath(r.cacheDir, decl.Package),
		IsRoot:          index == 0,
		Exposes:         desc.Exposes.Clone(),
		Requires:        desc.Requires.Clone(),
		Remap:           decl.Remap,
	}, nil
}

// Owner returns the layer whose source tree contains filename.
func (c *Composition) Owner(filename string) (*Entry, bool) {
	if c.index == nil {
		return nil, false
	}
	return c.index.lookup(filename)
}

// Imports returns the marker import to inject into filename, or nil when
// the file belongs to no layer.
func (c *Composition) Imports(filename string) []Import {
	e, ok := c.Owner(filename)
	if !ok {
		return nil
	}
	return []Import{{NamedImports: []string{MarkerExport}, Path: e.MarkerPath}}
}

// NameMap returns the name map of the layer owning filename.
func (c *Composition) NameMap(filename string) (CapabilityMap, bool) {
	e, ok := c.Owner(filename)
	if !ok {
		return nil, false
	}
	return e.NameMap, true
}

// Root returns the root layer, if it was resolved.
func (c *Composition) Root() (*Entry, bool) {
	for _, e := range c.Entries {
		if e.IsRoot {
			return e, true
		}
	}
	return nil, false
}

// EntryFiles returns the entry module files in evaluation order.
func (c *Composition) EntryFiles() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.EntryFile
	}
	return out
}

// ConfigPaths returns the descriptor paths that were read.
func (c *Composition) ConfigPaths() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.ConfigPath
	}
	return out
}

// Unsatisfied lists required names that no resolved layer exposes. A
// required global is satisfied by a socket or by the name an exposing
// layer's own remap gives one of its exposed locals.
func (c *Composition) Unsatisfied() []Requirement {
	remapped := NewSockets()
	for _, e := range c.Entries {
		for capability, names := range e.Exposes {
			globals := make(NameMap, len(names))
			for local := range names {
				if global, ok := e.NameMap.Lookup(capability, local); ok {
					globals[local] = global
				}
			}
			remapped.Add(capability, globals)
		}
	}

	var out []Requirement
	for _, e := range c.Entries {
		for _, capability := range Capabilities {
			locals := make([]string, 0, len(e.Requires[capability]))
			for local := range e.Requires[capability] {
				locals = append(locals, local)
			}
			sort.Strings(locals)
			for _, local := range locals {
				global, _ := e.NameMap.Lookup(capability, local)
				if !c.Sockets.Has(capability, global) && !remapped.Has(capability, global) {
					out = append(out, Requirement{
						Package:    e.PackageName,
						Capability: capability,
						Local:      local,
						Global:     global,
					})
				}
			}
		}
	}
	return out
}

// Skipped reports whether any declared layer failed with target.
func (c *Composition) Skipped(target error) bool {
	for _, e := range c.Errors {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}
