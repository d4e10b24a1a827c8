package engine

import (
	"time"

	"github.com/danieljhkim/atelier/internal/bundle"
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/layers"
	"github.com/danieljhkim/atelier/internal/planner"
	"github.com/danieljhkim/atelier/internal/templates"
)

// BuildResult represents the result of a build.
type BuildResult struct {
	// Plan is the generated plan
	Plan *planner.BuildPlan

	// Applied is the list of operations that were executed (empty if DryRun)
	Applied []planner.Operation

	// Composition is the resolved layer composition
	Composition *layers.Composition

	// Bundle is the bundler output (nil if DryRun or the bundler failed)
	Bundle *bundle.Result

	// StartedAt and Duration time the build
	StartedAt time.Time
	Duration  time.Duration
}

// LayersResult describes the resolved composition without building it.
type LayersResult struct {
	Composition *layers.Composition

	// Unsatisfied lists required names no layer exposes
	Unsatisfied []layers.Requirement

	// Warnings are the plan warnings a build would print
	Warnings []string
}

// DropResult represents the result of a template drop.
type DropResult struct {
	// RootID is the id the template root received
	RootID string `json:"rootId"`

	// Events is the rewritten batch in emission order
	Events event.List `json:"events"`

	// Emitted is how many events the forest accepted
	Emitted int `json:"emitted"`

	// Aliases maps new ids to their aliases
	Aliases map[string]string `json:"aliases"`
}

// TemplateListResult lists the templates of one directory.
type TemplateListResult struct {
	Dir       string              `json:"dir"`
	Templates []templates.Summary `json:"templates"`
}
