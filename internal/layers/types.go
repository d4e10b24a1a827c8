package layers

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Capability names an extension socket kind.
type Capability string

// Capabilities a layer can expose or require.
const (
	CapMenu       Capability = "menu"
	CapContainers Capability = "containers"
	CapTabs       Capability = "tabs"
)

// Capabilities lists every capability in a fixed order.
var Capabilities = []Capability{CapMenu, CapContainers, CapTabs}

func (c Capability) valid() bool {
	switch c {
	case CapMenu, CapContainers, CapTabs:
		return true
	}
	return false
}

// NameMap maps a name local to one layer to its global name.
type NameMap map[string]string

// CapabilityMap holds one NameMap per capability.
type CapabilityMap map[Capability]NameMap

// Lookup returns the global name of local under capability c.
func (m CapabilityMap) Lookup(c Capability, local string) (string, bool) {
	names, ok := m[c]
	if !ok {
		return "", false
	}
	global, ok := names[local]
	return global, ok
}

// Clone returns a deep copy.
func (m CapabilityMap) Clone() CapabilityMap {
	if m == nil {
		return nil
	}
	out := make(CapabilityMap, len(m))
	for c, names := range m {
		cp := make(NameMap, len(names))
		for k, v := range names {
			cp[k] = v
		}
		out[c] = cp
	}
	return out
}

// ParseCapabilityMap converts a plain nested map, as found in the tool
// configuration, and validates it.
func ParseCapabilityMap(raw map[string]map[string]string) (CapabilityMap, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(CapabilityMap, len(raw))
	for c, names := range raw {
		nm := make(NameMap, len(names))
		for k, v := range names {
			nm[k] = v
		}
		out[Capability(c)] = nm
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m CapabilityMap) validate() error {
	for c, names := range m {
		if !c.valid() {
			return fmt.Errorf("unknown capability %q", c)
		}
		for local, global := range names {
			if local == "" || global == "" {
				return fmt.Errorf("%s: empty name in %q -> %q", c, local, global)
			}
		}
	}
	return nil
}

// Remap overrides a layer's own name maps. Remap entries win over the
// layer's exposes and requires on key collision.
type Remap struct {
	Requires CapabilityMap `json:"requires,omitempty"`
	Exposes  CapabilityMap `json:"exposes,omitempty"`
}

// Declaration is one layer as listed in the tool configuration.
type Declaration struct {
	Package string
	Remap   *Remap
}

// Entry is a resolved layer. Entries are built once per build and not
// modified afterwards.
type Entry struct {
	// Index is the layer's position in the declared order.
	Index int `json:"index"`

	PackageName string `json:"packageName"`

	// SourcePath is the package directory; files below it belong to the layer.
	SourcePath string `json:"sourcePath"`

	// ConfigPath is the layer descriptor that was read.
	ConfigPath string `json:"configPath"`

	// EntryModulePath is the layer's entry module without extension.
	EntryModulePath string `json:"entryModulePath"`

	// EntryFile is EntryModulePath with the extension that was found.
	EntryFile string `json:"entryFile"`

	// MarkerPath is where the currentLayer marker module is written.
	MarkerPath string `json:"markerPath"`

	IsRoot bool `json:"isRoot"`

	Exposes  CapabilityMap `json:"exposes,omitempty"`
	Requires CapabilityMap `json:"requires,omitempty"`
	Remap    *Remap        `json:"remap,omitempty"`

	// NameMap is the merged local-to-global translation table.
	NameMap CapabilityMap `json:"nameMap"`
}

// Import is an import statement to inject into a layer's source file.
type Import struct {
	NamedImports []string `json:"namedImports"`
	Path         string   `json:"path"`
}

// Sockets accumulates the global names exposed by all layers.
type Sockets struct {
	sets map[Capability]map[string]bool
}

// NewSockets creates an empty socket set.
func NewSockets() Sockets {
	s := Sockets{sets: make(map[Capability]map[string]bool, len(Capabilities))}
	for _, c := range Capabilities {
		s.sets[c] = make(map[string]bool)
	}
	return s
}

// Add records every global name of names under c. Duplicates collapse.
func (s Sockets) Add(c Capability, names NameMap) {
	set, ok := s.sets[c]
	if !ok {
		return
	}
	for _, global := range names {
		set[global] = true
	}
}

// Has reports whether global is exposed under c.
func (s Sockets) Has(c Capability, global string) bool {
	return s.sets[c][global]
}

// List returns the exposed names under c, sorted.
func (s Sockets) List(c Capability) []string {
	out := make([]string, 0, len(s.sets[c]))
	for name := range s.sets[c] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes each capability as a sorted list.
func (s Sockets) MarshalJSON() ([]byte, error) {
	out := make(map[Capability][]string, len(Capabilities))
	for _, c := range Capabilities {
		out[c] = s.List(c)
	}
	return json.Marshal(out)
}

// Requirement is a required global name that no layer exposes.
type Requirement struct {
	Package    string     `json:"package"`
	Capability Capability `json:"capability"`
	Local      string     `json:"local"`
	Global     string     `json:"global"`
}
