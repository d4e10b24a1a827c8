// Package config manages atelier configuration and filesystem paths.
//
// The tool directory holds the editor project: src/tool.config.yaml, the
// node_modules tree that layer packages are resolved from, and the .atelier
// directory for the build cache and runtime data. Every location can be
// overridden through ATELIER_* environment variables (see Env).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by atelier.
type Paths struct {
	// ToolDir is the editor tool directory (default: working directory)
	ToolDir string

	// Src is <ToolDir>/src
	Src string

	// ToolConfig is the tool configuration file read at build start
	ToolConfig string

	// CacheDir is wiped at the start of every build
	CacheDir string

	// PackageRoots are searched in order when locating layer packages
	PackageRoots []string

	// DataDir holds runtime state (journal, templates)
	DataDir string

	// Templates is the writable template store root
	Templates string

	// SharedTemplates holds templates checked into the tool directory;
	// read-only, consulted after Templates
	SharedTemplates string

	// DBPath is the sqlite journal file
	DBPath string
}

// DefaultPaths returns the paths for the tool directory selected by e.
func DefaultPaths(e *Env) (*Paths, error) {
	toolDir := e.ToolDir
	if toolDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		toolDir = cwd
	}
	toolDir, err := filepath.Abs(toolDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tool directory: %w", err)
	}

	src := filepath.Join(toolDir, "src")
	dataDir := filepath.Join(toolDir, ".atelier", "data")
	p := &Paths{
		ToolDir:         toolDir,
		Src:             src,
		ToolConfig:      filepath.Join(src, "tool.config.yaml"),
		CacheDir:        filepath.Join(toolDir, ".atelier", "cache", "build"),
		PackageRoots:    []string{filepath.Join(toolDir, "node_modules")},
		DataDir:         dataDir,
		Templates:       filepath.Join(dataDir, "templates"),
		SharedTemplates: filepath.Join(toolDir, "templates"),
		DBPath:          filepath.Join(dataDir, "forest.db"),
	}
	if e.CacheDir != "" {
		p.CacheDir = e.CacheDir
	}
	if e.DBPath != "" {
		p.DBPath = e.DBPath
	}
	return p, nil
}

// Output resolves the tool config's output directory against ToolDir.
func (p *Paths) Output(output string) string {
	if output == "" {
		output = DefaultOutput
	}
	if filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(p.ToolDir, output)
}

// EnsureDirectories creates the runtime data directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.Templates,
		filepath.Dir(p.DBPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
