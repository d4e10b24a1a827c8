// Package forest holds the live trees an editor mutates through events.
//
// A forest package (for example "page") declares a fixed set of trees
// (componentTree, cssTree, ...). Each forest of that package, one per page,
// owns one instance of every declared tree. CREATE events add nodes, LINK
// events tie a node of one tree to a node of another.
package forest

import (
	"sort"

	"github.com/danieljhkim/atelier/internal/event"
)

// Node is one node of a tree.
type Node struct {
	ID     string         `json:"id"`
	Parent event.Parent   `json:"parent"`
	Alias  string         `json:"alias,omitempty"`
	Meta   map[string]any `json:"meta"`
	Props  map[string]any `json:"props,omitempty"`

	// seq orders siblings that share an index.
	seq int
}

// Link ties ChildID in the owning tree to RefID in another tree.
type Link struct {
	ChildID string `json:"childId"`
	RefID   string `json:"refId"`
}

// Tree is a single tree of a forest.
type Tree struct {
	ID    string           `json:"id"`
	Nodes map[string]*Node `json:"nodes"`
	Links []Link           `json:"links"`

	next int
}

// NewTree creates an empty tree.
func NewTree(id string) *Tree {
	return &Tree{ID: id, Nodes: make(map[string]*Node), Links: []Link{}}
}

// Has reports whether id is a node of the tree.
func (t *Tree) Has(id string) bool {
	_, ok := t.Nodes[id]
	return ok
}

// Children returns the children of parentID ordered by index, then by
// creation order.
func (t *Tree) Children(parentID string) []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.Parent.ID == parentID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent.Index != out[j].Parent.Index {
			return out[i].Parent.Index < out[j].Parent.Index
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Ancestors returns the parent chain of id, nearest first. The chain ends
// at the first id that is not a node of the tree (usually body).
func (t *Tree) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	n, ok := t.Nodes[id]
	for ok {
		parent := n.Parent.ID
		if seen[parent] {
			break
		}
		seen[parent] = true
		out = append(out, parent)
		n, ok = t.Nodes[parent]
	}
	return out
}

// LinksTo returns the links whose RefID is refID.
func (t *Tree) LinksTo(refID string) []Link {
	var out []Link
	for _, l := range t.Links {
		if l.RefID == refID {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	out := &Tree{
		ID:    t.ID,
		Nodes: make(map[string]*Node, len(t.Nodes)),
		Links: append([]Link{}, t.Links...),
		next:  t.next,
	}
	for id, n := range t.Nodes {
		out.Nodes[id] = &Node{
			ID:     n.ID,
			Parent: n.Parent,
			Alias:  n.Alias,
			Meta:   event.CloneMap(n.Meta),
			Props:  event.CloneMap(n.Props),
			seq:    n.seq,
		}
	}
	return out
}

func (t *Tree) add(ev *event.CreateEvent) {
	t.next++
	meta := ev.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	t.Nodes[ev.ID] = &Node{
		ID:     ev.ID,
		Parent: ev.State.Parent,
		Alias:  ev.State.Alias,
		Meta:   meta,
		Props:  ev.State.Props,
		seq:    t.next,
	}
}
