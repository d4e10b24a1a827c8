package planner

// BuildPlan represents a plan to produce the layer build inputs.
type BuildPlan struct {
	// Layers is the ordered list of layer packages in the build
	Layers []string

	// Operations is the ordered list of operations to execute
	Operations []Operation

	// Conflicts is a list of detected conflicts (empty if no conflicts)
	Conflicts []Conflict

	// Warnings are non-fatal findings (skipped layers, unsatisfied names)
	Warnings []string
}

// Operation represents a single build step.
type Operation struct {
	// Type is the operation type: "wipe_cache", "write_marker", "bundle"
	Type string `json:"type"`

	// DestPath is the path the operation writes or removes (absolute)
	DestPath string `json:"destPath"`

	// Content is the file content for write operations
	Content string `json:"content,omitempty"`

	// Layer is the package contributing this operation, if any
	Layer string `json:"layer,omitempty"`
}

// Conflict represents a conflict detected during planning.
type Conflict struct {
	// Path is where the conflict was detected
	Path string `json:"path"`

	// Reason is a human-readable explanation of the conflict
	Reason string `json:"reason"`

	// Existing describes what already claims the path
	Existing string `json:"existing"`

	// Incoming describes what the plan wants to place there
	Incoming string `json:"incoming"`
}

// Operation type constants
const (
	OpWipeCache   = "wipe_cache"
	OpWriteMarker = "write_marker"
	OpBundle      = "bundle"
)

// NewBuildPlan creates a new empty BuildPlan.
func NewBuildPlan(layers []string) *BuildPlan {
	return &BuildPlan{
		Layers:     layers,
		Operations: []Operation{},
		Conflicts:  []Conflict{},
	}
}

// HasConflicts returns true if the plan has any conflicts.
func (p *BuildPlan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// AddOperation adds an operation to the plan.
func (p *BuildPlan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddConflict adds a conflict to the plan.
func (p *BuildPlan) AddConflict(conflict Conflict) {
	p.Conflicts = append(p.Conflicts, conflict)
}

// AddWarning adds a warning to the plan.
func (p *BuildPlan) AddWarning(w string) {
	p.Warnings = append(p.Warnings, w)
}

// Markers returns the write_marker operations in plan order.
func (p *BuildPlan) Markers() []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Type == OpWriteMarker {
			out = append(out, op)
		}
	}
	return out
}
