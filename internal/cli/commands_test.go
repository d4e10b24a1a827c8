package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/atelier/internal/bundle"
	"github.com/danieljhkim/atelier/internal/layers"
	"github.com/danieljhkim/atelier/internal/storage/sqlite"
)

const testToolConfig = `
forests:
  page:
    - pkg: "@atrilabs/component-tree"
      modulePath: ./lib/index.js
      name: componentTree
    - pkg: "@atrilabs/css-tree"
      modulePath: ./lib/index.js
      name: cssTree
layers:
  - pkg: "@atrilabs/base-layer"
output: lib
`

const cardTemplate = `[
  {"id":"t1","type":"CREATE$$componentTree","meta":{"key":"Flex"},"state":{"parent":{"id":"templateRoot","index":0}}},
  {"id":"t2","type":"CREATE$$componentTree","meta":{"key":"Button"},"state":{"parent":{"id":"t1","index":0}}}
]`

// setupToolDir creates a tool directory with one layer and one shared
// template, and points ATELIER_TOOL_DIR at it.
func setupToolDir(t *testing.T) string {
	t.Helper()
	toolDir := t.TempDir()
	files := map[string]string{
		"src/tool.config.yaml": testToolConfig,
		"node_modules/@atrilabs/base-layer/lib/layer.config.yaml": "modulePath: ./index\nexposes:\n  menu:\n    AppMenu: AppMenu\n",
		"node_modules/@atrilabs/base-layer/lib/index.js":          "export default {}\n",
		"templates/basics/card.json":                              cardTemplate,
	}
	for rel, content := range files {
		path := filepath.Join(toolDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv("ATELIER_TOOL_DIR", toolDir)
	t.Setenv("ATELIER_CACHE_DIR", "")
	t.Setenv("ATELIER_DB_PATH", "")
	t.Setenv("ATELIER_REDIS_URL", "")
	t.Setenv("ATELIER_LOG_LEVEL", "error")
	return toolDir
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between Execute calls on the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	var bufOut, bufErr bytes.Buffer
	rootCmd.SetOut(&bufOut)
	rootCmd.SetErr(&bufErr)
	err := rootCmd.Execute()
	return bufOut.String(), err
}

func TestBuildCommand_WritesManifest(t *testing.T) {
	toolDir := setupToolDir(t)

	if _, err := execute(t, "build"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	manifest := filepath.Join(toolDir, "lib", bundle.ManifestFile)
	if _, err := os.Stat(manifest); err != nil {
		t.Errorf("expected manifest at %s: %v", manifest, err)
	}
	marker := layers.MarkerPath(filepath.Join(toolDir, ".atelier", "cache", "build"), "@atrilabs/base-layer")
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("expected marker module: %v", err)
	}
	if string(data) != layers.MarkerSource(true) {
		t.Errorf("marker = %q", data)
	}
}

func TestBuildCommand_DryRun(t *testing.T) {
	toolDir := setupToolDir(t)

	out, err := execute(t, "build", "--dry-run")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Would run 3 operations") {
		t.Errorf("dry run output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(toolDir, "lib")); !os.IsNotExist(err) {
		t.Errorf("dry run should not create the output dir, stat err = %v", err)
	}
}

func TestBuildCommand_MissingConfig(t *testing.T) {
	toolDir := setupToolDir(t)
	if err := os.Remove(filepath.Join(toolDir, "src", "tool.config.yaml")); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "build")
	if err == nil {
		t.Fatal("expected error for missing tool config")
	}
	if !strings.Contains(err.Error(), "tool.config.yaml") {
		t.Errorf("error should name the config path: %v", err)
	}
}

func TestLayersCommand(t *testing.T) {
	setupToolDir(t)
	out, err := execute(t, "layers")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"@atrilabs/base-layer", "root", "AppMenu"} {
		if !strings.Contains(out, want) {
			t.Errorf("layers output missing %q:\n%s", want, out)
		}
	}
}

func TestLayersCommand_JSON(t *testing.T) {
	setupToolDir(t)
	out, err := execute(t, "layers", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var result struct {
		Composition struct {
			Entries []struct {
				PackageName string `json:"packageName"`
				IsRoot      bool   `json:"isRoot"`
			}
		}
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(result.Composition.Entries) != 1 || !result.Composition.Entries[0].IsRoot {
		t.Errorf("entries = %+v", result.Composition.Entries)
	}
}

func TestToolDirFlag(t *testing.T) {
	toolDir := setupToolDir(t)
	t.Setenv("ATELIER_TOOL_DIR", t.TempDir())

	if _, err := execute(t, "layers"); err == nil {
		t.Error("expected missing config error for the empty env tool dir")
	}
	if _, err := execute(t, "layers", "--tool-dir", toolDir); err != nil {
		t.Errorf("--tool-dir should override the environment: %v", err)
	}
}

func TestDropAndTreeCommands(t *testing.T) {
	toolDir := setupToolDir(t)

	out, err := execute(t, "drop", "basics", "card", "--forest", "home", "--root-id", "n1", "--into", "body")
	if err != nil {
		t.Fatalf("drop error = %v", err)
	}
	if !strings.Contains(out, "Dropped basics/card as n1") || !strings.Contains(out, "Flex1") {
		t.Errorf("drop output:\n%s", out)
	}

	// A second process sees the journaled drop.
	out, err = execute(t, "tree", "page", "home", "componentTree")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	if !strings.Contains(out, "Flex1 (n1)") || !strings.Contains(out, "Button1") {
		t.Errorf("tree output:\n%s", out)
	}

	store, err := sqlite.Open(filepath.Join(toolDir, ".atelier", "data", "forest.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("journal has %d records, want 2", len(records))
	}

	// Same root id again collides with the journaled node.
	if _, err := execute(t, "drop", "basics", "card", "--forest", "home", "--root-id", "n1"); err == nil {
		t.Error("expected error when reusing a root id")
	}
}

func TestDropCommand_InvalidArgs(t *testing.T) {
	setupToolDir(t)
	if _, err := execute(t, "drop", "basics"); err == nil {
		t.Error("expected error for missing template name")
	}
	if _, err := execute(t, "drop", "basics", "card"); err == nil {
		t.Error("expected error for missing --forest")
	}
	if _, err := execute(t, "drop", "basics", "card", "--forest", "home", "--into", "ghost"); err == nil {
		t.Error("expected error for an unknown drop target")
	}
}

func TestTemplatesLsCommand(t *testing.T) {
	setupToolDir(t)
	out, err := execute(t, "templates", "ls")
	if err != nil {
		t.Fatalf("templates ls error = %v", err)
	}
	if !strings.Contains(out, "basics") {
		t.Errorf("templates ls output:\n%s", out)
	}
	out, err = execute(t, "templates", "ls", "basics")
	if err != nil {
		t.Fatalf("templates ls basics error = %v", err)
	}
	if !strings.Contains(out, "card") || !strings.Contains(out, "Flex") {
		t.Errorf("templates ls basics output:\n%s", out)
	}
	if _, err := execute(t, "templates", "ls", ".."); err == nil {
		t.Error("expected error for invalid template dir")
	}
}

func TestCommandHelp(t *testing.T) {
	for _, args := range [][]string{{"build", "--help"}, {"drop", "--help"}, {"serve", "--help"}} {
		if _, err := execute(t, args...); err != nil {
			t.Errorf("%v: Execute() error = %v", args, err)
		}
	}
}

func TestDropCommand_HelpDescribesIndexFallback(t *testing.T) {
	out, err := execute(t, "drop", "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "derived from\nthe drop location --x/--y") {
		t.Errorf("drop help should say a negative --index uses the drop location:\n%s", out)
	}
	if strings.Contains(out, "at the end when --index is negative") {
		t.Error("drop help still claims a negative --index appends")
	}
}
