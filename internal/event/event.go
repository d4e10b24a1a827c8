// Package event defines the tree-mutation events replayed into a forest.
//
// Only two kinds of event exist: CREATE adds a node under a parent at an
// index, LINK ties a node of one tree to a node of another by reference.
// Event type strings follow the "<KIND>$$<treeId>" convention so a single
// event log can address every tree of a forest.
package event

import (
	"errors"
	"maps"
	"strings"
)

// Reserved node identifiers.
const (
	// TemplateRootID is the symbolic parent of a template's top-level node.
	TemplateRootID = "templateRoot"

	// BodyID is the page body, the implicit parent of top-level components.
	BodyID = "body"
)

// Kind prefixes.
const (
	KindCreate = "CREATE"
	KindLink   = "LINK"
)

const treeSeparator = "$$"

// ErrUnknownEventType is returned when an event's type has no known kind.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is the closed union of CreateEvent and LinkEvent.
type Event interface {
	// EventType returns the full type string, e.g. "CREATE$$componentTree".
	EventType() string

	// Clone returns a deep copy of the event.
	Clone() Event

	sealed()
}

// Parent locates a node under its parent.
type Parent struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// CreateState is the state carried by a CREATE event.
type CreateState struct {
	Parent Parent

	// Alias is the human readable name of the node, if any.
	Alias string

	// Props holds every other state field untouched.
	Props map[string]any
}

// CreateEvent adds a node to a tree.
type CreateEvent struct {
	ID    string
	Type  string
	Meta  map[string]any
	State CreateState
}

// LinkEvent links ChildID to RefID.
type LinkEvent struct {
	Type    string
	ChildID string
	RefID   string
}

// EventType returns the event's type string.
func (e *CreateEvent) EventType() string { return e.Type }

// EventType returns the event's type string.
func (e *LinkEvent) EventType() string { return e.Type }

func (*CreateEvent) sealed() {}
func (*LinkEvent) sealed()   {}

// Key returns the string value of meta["key"], used for alias lookups.
func (e *CreateEvent) Key() string {
	if e.Meta == nil {
		return ""
	}
	key, _ := e.Meta["key"].(string)
	return key
}

// Clone returns a deep copy of the event.
func (e *CreateEvent) Clone() Event {
	return &CreateEvent{
		ID:   e.ID,
		Type: e.Type,
		Meta: cloneMap(e.Meta),
		State: CreateState{
			Parent: e.State.Parent,
			Alias:  e.State.Alias,
			Props:  cloneMap(e.State.Props),
		},
	}
}

// Clone returns a copy of the event.
func (e *LinkEvent) Clone() Event {
	c := *e
	return &c
}

// NewCreate builds a CREATE event for treeID.
func NewCreate(treeID, id string, parent Parent) *CreateEvent {
	return &CreateEvent{
		ID:    id,
		Type:  TypeFor(KindCreate, treeID),
		Meta:  map[string]any{},
		State: CreateState{Parent: parent},
	}
}

// NewLink builds a LINK event for treeID.
func NewLink(treeID, childID, refID string) *LinkEvent {
	return &LinkEvent{
		Type:    TypeFor(KindLink, treeID),
		ChildID: childID,
		RefID:   refID,
	}
}

// TypeFor composes a type string from a kind and a tree id.
func TypeFor(kind, treeID string) string {
	if treeID == "" {
		return kind
	}
	return kind + treeSeparator + treeID
}

// KindOf returns the kind prefix of a type string.
func KindOf(eventType string) string {
	kind, _, _ := strings.Cut(eventType, treeSeparator)
	return kind
}

// TreeID returns the tree an event is addressed to, or "" if the type has
// no tree suffix.
func TreeID(ev Event) string {
	_, tree, _ := strings.Cut(ev.EventType(), treeSeparator)
	return tree
}

// CloneMap deep-copies nested maps and slices of a decoded JSON object.
func CloneMap(m map[string]any) map[string]any {
	return cloneMap(m)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
