package layers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danieljhkim/atelier/internal/fsops"
)

const (
	testRoot  = "/tool/node_modules"
	testCache = "/tool/.atelier/cache/build"
)

// writeLayer creates a layer package with a descriptor and, when ext is
// non-empty, an entry module lib/index.<ext>.
func writeLayer(fs *fsops.MemFS, pkg, descriptor, ext string) {
	dir := filepath.Join(testRoot, pkg)
	fs.WriteFile(filepath.Join(dir, "lib", "layer.config.yaml"), []byte(descriptor))
	if ext != "" {
		fs.WriteFile(filepath.Join(dir, "lib", "index."+ext), []byte("export default {}"))
	}
}

func newTestResolver(fs *fsops.MemFS) (*Resolver, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewResolver(fs, []string{testRoot}, testCache, logger), &logs
}

const baseDescriptor = `
modulePath: ./index
exposes:
  menu:
    AppMenu: AppMenu
  containers:
    Canvas: Canvas
  tabs:
    PropertiesTab: PropertiesTab
`

const pageDescriptor = `
modulePath: ./index
requires:
  menu:
    Menu: AppMenu
exposes:
  tabs:
    Pages: PageTab
`

func TestResolve_DeterministicOrderAndRoot(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "@atrilabs/base-layer", baseDescriptor, "js")
	writeLayer(fs, "@atrilabs/app-design-layer", "modulePath: ./index\n", "jsx")
	writeLayer(fs, "@atrilabs/app-page-layer", pageDescriptor, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{
		{Package: "@atrilabs/base-layer"},
		{Package: "@atrilabs/app-design-layer"},
		{Package: "@atrilabs/app-page-layer"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if comp.Phase != PhaseReady {
		t.Errorf("Phase = %s, want %s", comp.Phase, PhaseReady)
	}

	wantOrder := []string{"@atrilabs/base-layer", "@atrilabs/app-design-layer", "@atrilabs/app-page-layer"}
	if len(comp.Entries) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(comp.Entries))
	}
	for i, e := range comp.Entries {
		if e.PackageName != wantOrder[i] || e.Index != i {
			t.Errorf("entry %d = %s (index %d), want %s", i, e.PackageName, e.Index, wantOrder[i])
		}
		if e.IsRoot != (i == 0) {
			t.Errorf("entry %d IsRoot = %v", i, e.IsRoot)
		}
	}

	if got := comp.Entries[1].EntryFile; got != filepath.Join(testRoot, "@atrilabs/app-design-layer", "lib", "index.jsx") {
		t.Errorf("jsx entry file = %s", got)
	}
	if got := comp.Entries[0].EntryModulePath; got != filepath.Join(testRoot, "@atrilabs/base-layer", "lib", "index") {
		t.Errorf("entry module path = %s", got)
	}
	if got := comp.Entries[2].MarkerPath; got != filepath.Join(testCache, "@atrilabs", "app-page-layer", "index.js") {
		t.Errorf("marker path = %s", got)
	}
}

func TestResolve_SocketsUnion(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	writeLayer(fs, "page", pageDescriptor, "js")
	writeLayer(fs, "dup", "modulePath: ./index\nexposes:\n  menu:\n    Other: AppMenu\n", "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{{Package: "base"}, {Package: "page"}, {Package: "dup"}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got := comp.Sockets.List(CapMenu); len(got) != 1 || got[0] != "AppMenu" {
		t.Errorf("menu sockets = %v, want [AppMenu]", got)
	}
	if got := comp.Sockets.List(CapTabs); len(got) != 2 || got[0] != "PageTab" || got[1] != "PropertiesTab" {
		t.Errorf("tab sockets = %v", got)
	}
	if !comp.Sockets.Has(CapContainers, "Canvas") {
		t.Error("expected Canvas container socket")
	}
}

func TestResolve_ConfigNotFoundSkipsLayer(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	writeLayer(fs, "page", pageDescriptor, "js")

	r, logs := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{
		{Package: "base"},
		{Package: "missing-layer"},
		{Package: "page"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(comp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(comp.Entries))
	}
	if comp.Entries[1].PackageName != "page" || comp.Entries[1].Index != 2 {
		t.Errorf("surviving entry keeps declared index: %+v", comp.Entries[1])
	}
	if len(comp.Errors) != 1 || comp.Errors[0].Index != 1 {
		t.Fatalf("errors = %v", comp.Errors)
	}
	if !errors.Is(comp.Errors[0], ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", comp.Errors[0])
	}
	if !comp.Skipped(ErrConfigNotFound) {
		t.Error("Skipped(ErrConfigNotFound) = false")
	}
	if !strings.Contains(logs.String(), "missing-layer") {
		t.Errorf("expected skip to be logged, logs: %s", logs.String())
	}
}

func TestResolve_EntryNotFoundSkipsLayer(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	writeLayer(fs, "no-entry", "modulePath: ./index\n", "")
	writeLayer(fs, "ts-only", "modulePath: ./index\n", "tsx")
	// A directory named like the entry is not an entry module.
	if err := fs.MkdirAll(filepath.Join(testRoot, "dir-entry", "lib", "index.js"), 0755); err != nil {
		t.Fatal(err)
	}
	fs.WriteFile(filepath.Join(testRoot, "dir-entry", "lib", "layer.config.yaml"), []byte("modulePath: ./index\n"))

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{
		{Package: "base"}, {Package: "no-entry"}, {Package: "ts-only"}, {Package: "dir-entry"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(comp.Entries) != 1 {
		t.Fatalf("expected only base to survive, got %d entries", len(comp.Entries))
	}
	if len(comp.Errors) != 3 {
		t.Fatalf("expected 3 layer errors, got %d", len(comp.Errors))
	}
	for _, e := range comp.Errors {
		if !errors.Is(e, ErrEntryNotFound) {
			t.Errorf("layer %s: expected ErrEntryNotFound, got %v", e.Package, e.Err)
		}
	}
}

func TestResolve_SkippedFirstLayerLeavesNoRoot(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "page", pageDescriptor, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{{Package: "gone"}, {Package: "page"}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := comp.Root(); ok {
		t.Error("expected no root layer when the first declared layer is skipped")
	}
}

func TestResolve_InvalidDescriptor(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
	}{
		{name: "no module path", descriptor: "exposes: {}\n"},
		{name: "unknown capability", descriptor: "modulePath: ./index\nexposes:\n  toolbar:\n    A: B\n"},
		{name: "not yaml", descriptor: "modulePath: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsops.NewMemFS()
			writeLayer(fs, "bad", tt.descriptor, "js")
			r, _ := newTestResolver(fs)
			comp, err := r.Resolve(context.Background(), []Declaration{{Package: "bad"}})
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if len(comp.Errors) != 1 || !errors.Is(comp.Errors[0], ErrInvalidDescriptor) {
				t.Errorf("expected ErrInvalidDescriptor, got %v", comp.Errors)
			}
		})
	}
}

func TestResolve_OverlappingRoots(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "outer", baseDescriptor, "js")
	writeLayer(fs, "outer/nested", pageDescriptor, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{{Package: "outer"}, {Package: "outer/nested"}})
	if !errors.Is(err, ErrOverlappingLayers) {
		t.Fatalf("expected ErrOverlappingLayers, got %v", err)
	}
	if comp == nil || len(comp.Overlaps) != 1 {
		t.Fatalf("expected one overlap, got %+v", comp)
	}
	if comp.Overlaps[0].Outer != "outer" || comp.Overlaps[0].Inner != "outer/nested" {
		t.Errorf("overlap = %+v", comp.Overlaps[0])
	}
}

func TestResolve_ContextCancelled(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	r, _ := newTestResolver(fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx, []Declaration{{Package: "base"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestComposition_ImportsAndNameMapLookup(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "@atrilabs/base-layer", baseDescriptor, "js")
	writeLayer(fs, "@atrilabs/base-layer-extra", pageDescriptor, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{
		{Package: "@atrilabs/base-layer"},
		{Package: "@atrilabs/base-layer-extra", Remap: &Remap{Requires: CapabilityMap{CapMenu: {"Menu": "OtherMenu"}}}},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	extraFile := filepath.Join(testRoot, "@atrilabs/base-layer-extra", "src", "Page.jsx")
	imports := comp.Imports(extraFile)
	if len(imports) != 1 {
		t.Fatalf("expected one import, got %v", imports)
	}
	if imports[0].Path != MarkerPath(testCache, "@atrilabs/base-layer-extra") {
		t.Errorf("import path = %s", imports[0].Path)
	}
	if len(imports[0].NamedImports) != 1 || imports[0].NamedImports[0] != MarkerExport {
		t.Errorf("named imports = %v", imports[0].NamedImports)
	}

	nm, ok := comp.NameMap(extraFile)
	if !ok {
		t.Fatal("expected a name map for a file inside the extra layer")
	}
	if got, _ := nm.Lookup(CapMenu, "Menu"); got != "OtherMenu" {
		t.Errorf("Menu -> %q, want OtherMenu (remap wins)", got)
	}

	if got := comp.Imports("/elsewhere/file.js"); got != nil {
		t.Errorf("expected no imports outside layers, got %v", got)
	}
	if _, ok := comp.NameMap("/elsewhere/file.js"); ok {
		t.Error("expected no name map outside layers")
	}
}

func TestComposition_Unsatisfied(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	writeLayer(fs, "page", `
modulePath: ./index
requires:
  menu:
    Menu: AppMenu
  containers:
    Drawer: SideDrawer
`, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{{Package: "base"}, {Package: "page"}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	missing := comp.Unsatisfied()
	if len(missing) != 1 {
		t.Fatalf("expected one unsatisfied requirement, got %v", missing)
	}
	want := Requirement{Package: "page", Capability: CapContainers, Local: "Drawer", Global: "SideDrawer"}
	if missing[0] != want {
		t.Errorf("unsatisfied = %+v, want %+v", missing[0], want)
	}
}

func TestComposition_UnsatisfiedHonoursExposeRemap(t *testing.T) {
	fs := fsops.NewMemFS()
	writeLayer(fs, "base", baseDescriptor, "js")
	writeLayer(fs, "page", `
modulePath: ./index
requires:
  menu:
    Menu: AppMenu
`, "js")

	r, _ := newTestResolver(fs)
	comp, err := r.Resolve(context.Background(), []Declaration{
		{Package: "base", Remap: &Remap{Exposes: CapabilityMap{CapMenu: {"AppMenu": "MainMenu"}}}},
		{Package: "page", Remap: &Remap{Requires: CapabilityMap{CapMenu: {"Menu": "MainMenu"}}}},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := comp.Sockets.List(CapMenu); len(got) != 1 || got[0] != "AppMenu" {
		t.Errorf("sockets keep the descriptor names, got %v", got)
	}
	if missing := comp.Unsatisfied(); len(missing) != 0 {
		t.Errorf("remapped expose should satisfy the remapped requirement, got %v", missing)
	}
}
