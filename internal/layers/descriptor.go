package layers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/atelier/internal/fsops"
)

// DescriptorFile is the descriptor location inside a layer package.
const DescriptorFile = "lib/layer.config.yaml"

// EntryExtensions are tried in order when locating a layer's entry module.
var EntryExtensions = []string{"js", "jsx"}

// Descriptor is the content of a layer's lib/layer.config.yaml.
type Descriptor struct {
	// ModulePath is the entry module, relative to the descriptor's
	// directory unless absolute, and without extension.
	ModulePath string        `yaml:"modulePath"`
	Requires   CapabilityMap `yaml:"requires"`
	Exposes    CapabilityMap `yaml:"exposes"`
}

// PackageLocator finds layer packages under a list of package roots.
type PackageLocator struct {
	fs    fsops.FS
	roots []string
}

// NewPackageLocator creates a locator searching roots in order.
func NewPackageLocator(fs fsops.FS, roots []string) *PackageLocator {
	return &PackageLocator{fs: fs, roots: roots}
}

// ConfigCandidates returns every descriptor path that is tried for pkg.
func (l *PackageLocator) ConfigCandidates(pkg string) []string {
	out := make([]string, 0, len(l.roots))
	for _, root := range l.roots {
		out = append(out, filepath.Join(root, filepath.FromSlash(pkg), filepath.FromSlash(DescriptorFile)))
	}
	return out
}

// Locate returns the package directory and descriptor path of pkg, taken
// from the first root that has a descriptor.
func (l *PackageLocator) Locate(pkg string) (pkgDir, configPath string, err error) {
	candidates := l.ConfigCandidates(pkg)
	for _, candidate := range candidates {
		ok, err := l.fs.IsFile(candidate)
		if err != nil {
			return "", "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if ok {
			dir := filepath.Dir(filepath.Dir(candidate))
			return dir, candidate, nil
		}
	}
	return "", "", fmt.Errorf("%w at following locations: %v", ErrConfigNotFound, candidates)
}

// LoadDescriptor reads and validates a descriptor.
func LoadDescriptor(fs fsops.FS, path string) (*Descriptor, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read layer config: %w", err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, path, err)
	}
	if d.ModulePath == "" {
		return nil, fmt.Errorf("%w: %s: modulePath is required", ErrInvalidDescriptor, path)
	}
	if err := d.Exposes.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: exposes: %v", ErrInvalidDescriptor, path, err)
	}
	if err := d.Requires.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: requires: %v", ErrInvalidDescriptor, path, err)
	}
	return &d, nil
}

// resolveEntry returns the entry module path (no extension) and the file
// that exists for it.
func resolveEntry(fs fsops.FS, configPath, modulePath string) (module, file string, err error) {
	module = filepath.FromSlash(modulePath)
	if !filepath.IsAbs(module) {
		module = filepath.Join(filepath.Dir(configPath), module)
	}
	for _, ext := range EntryExtensions {
		candidate := module + "." + ext
		ok, err := fs.IsFile(candidate)
		if err != nil {
			return "", "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if ok {
			return module, candidate, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrEntryNotFound, module)
}
