package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/atelier/internal/fsops"
)

// DefaultOutput is used when the tool configuration names no output dir.
const DefaultOutput = "lib"

// ErrToolConfigNotFound is returned when the tool configuration file is absent.
var ErrToolConfigNotFound = errors.New("tool config not found")

// ToolConfig mirrors src/tool.config.yaml.
type ToolConfig struct {
	Forests       ForestsConfig     `yaml:"forests"`
	ForestManager ForestManager     `yaml:"forestManager"`
	Layers        []LayerDecl       `yaml:"layers"`
	Output        string            `yaml:"output"`
	Services      Services          `yaml:"services"`
	Env           map[string]string `yaml:"env,omitempty"`
}

// ForestsConfig maps a forest package name to the trees it holds.
type ForestsConfig map[string][]TreeDef

// TreeDef declares one tree of a forest package.
type TreeDef struct {
	Pkg        string `yaml:"pkg"`
	ModulePath string `yaml:"modulePath"`
	Name       string `yaml:"name"`
}

// ForestManager selects and configures the forest backend.
type ForestManager struct {
	// Path names the backend implementation ("sqlite" or "memory").
	Path    string               `yaml:"path"`
	Options ForestManagerOptions `yaml:"options"`
}

// ForestManagerOptions configures the forest backend.
type ForestManagerOptions struct {
	// ForestDir is the directory of the journal, relative to the tool dir.
	ForestDir string `yaml:"forestDir"`
}

// LayerDecl is one entry of the ordered layer list.
type LayerDecl struct {
	Pkg   string       `yaml:"pkg"`
	Remap *RemapConfig `yaml:"remap,omitempty"`
}

// RemapConfig overrides a layer's own name maps, per capability.
type RemapConfig struct {
	Requires map[string]map[string]string `yaml:"requires,omitempty"`
	Exposes  map[string]map[string]string `yaml:"exposes,omitempty"`
}

// Services configures the runtime services.
type Services struct {
	FileServer     FileServer  `yaml:"fileServer"`
	EventServer    EventServer `yaml:"eventServer"`
	CodeGenerators []string    `yaml:"codeGenerators,omitempty"`
}

// FileServer serves the built editor.
type FileServer struct {
	Dir string `yaml:"dir"`
}

// EventServer serves the forest over HTTP.
type EventServer struct {
	Addr string `yaml:"addr"`
}

// LoadToolConfig reads and validates the tool configuration at path.
func LoadToolConfig(fs fsops.FS, path string) (*ToolConfig, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: Module Not Found: %s", ErrToolConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read tool config: %w", err)
	}
	return ParseToolConfig(data)
}

// ParseToolConfig decodes and validates tool configuration YAML.
func ParseToolConfig(data []byte) (*ToolConfig, error) {
	var cfg ToolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tool config: %w", err)
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.Services.EventServer.Addr == "" {
		cfg.Services.EventServer.Addr = "127.0.0.1:4001"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural requirements of the configuration.
func (c *ToolConfig) Validate() error {
	seen := make(map[string]int, len(c.Layers))
	for i, l := range c.Layers {
		pkg := strings.TrimSpace(l.Pkg)
		if pkg == "" {
			return fmt.Errorf("invalid tool config: layers[%d].pkg is required", i)
		}
		if j, dup := seen[pkg]; dup {
			return fmt.Errorf("invalid tool config: layer %s declared at %d and %d", pkg, j, i)
		}
		seen[pkg] = i
	}
	for name, trees := range c.Forests {
		names := make(map[string]bool, len(trees))
		for _, t := range trees {
			if t.Name == "" {
				return fmt.Errorf("invalid tool config: forest %s has a tree without name", name)
			}
			if names[t.Name] {
				return fmt.Errorf("invalid tool config: forest %s declares tree %s twice", name, t.Name)
			}
			names[t.Name] = true
		}
	}
	return nil
}

// TreeNames returns the tree names of a forest package in declared order.
func (c *ToolConfig) TreeNames(forestPkg string) ([]string, bool) {
	trees, ok := c.Forests[forestPkg]
	if !ok {
		return nil, false
	}
	names := make([]string, len(trees))
	for i, t := range trees {
		names[i] = t.Name
	}
	return names, true
}

// ForestTrees returns the tree names of every forest package.
func (c *ToolConfig) ForestTrees() map[string][]string {
	out := make(map[string][]string, len(c.Forests))
	for pkg, trees := range c.Forests {
		names := make([]string, len(trees))
		for i, t := range trees {
			names[i] = t.Name
		}
		out[pkg] = names
	}
	return out
}
