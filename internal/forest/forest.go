package forest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danieljhkim/atelier/internal/event"
)

// Forest is one instance of a forest package's trees.
type Forest struct {
	PkgID string
	ID    string

	mu    sync.RWMutex
	trees map[string]*Tree
}

// NewForest creates a forest with one empty tree per name.
func NewForest(pkgID, id string, treeNames []string) *Forest {
	f := &Forest{PkgID: pkgID, ID: id, trees: make(map[string]*Tree, len(treeNames))}
	for _, name := range treeNames {
		f.trees[name] = NewTree(name)
	}
	return f
}

// Apply validates ev and applies it.
func (f *Forest) Apply(ev event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ev); err != nil {
		return err
	}
	f.apply(ev)
	return nil
}

// Check reports whether ev would apply cleanly without applying it.
func (f *Forest) Check(ev event.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.check(ev)
}

// Tree returns a deep copy of the named tree.
func (f *Forest) Tree(treeID string) (*Tree, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.trees[treeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTree, treeID)
	}
	return t.Clone(), nil
}

// TreeIDs returns the forest's tree names, sorted.
func (f *Forest) TreeIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.trees))
	for id := range f.trees {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Has reports whether id is a node of any tree.
func (f *Forest) Has(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hasAnywhere(id)
}

// HasNode reports whether id is a node of treeID.
func (f *Forest) HasNode(treeID, id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.trees[treeID]
	return ok && t.Has(id)
}

func (f *Forest) hasAnywhere(id string) bool {
	for _, t := range f.trees {
		if t.Has(id) {
			return true
		}
	}
	return false
}

func (f *Forest) check(ev event.Event) error {
	treeID := event.TreeID(ev)
	t, ok := f.trees[treeID]
	if !ok {
		return fmt.Errorf("%w: %q in forest %s/%s", ErrUnknownTree, treeID, f.PkgID, f.ID)
	}

	switch e := ev.(type) {
	case *event.CreateEvent:
		if e.ID == "" {
			return fmt.Errorf("%w: empty id", ErrDuplicateNode)
		}
		if t.Has(e.ID) {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateNode, e.ID, treeID)
		}
		parent := e.State.Parent.ID
		if parent != event.BodyID && !t.Has(parent) {
			return fmt.Errorf("%w: %s for %s in %s", ErrUnknownParent, parent, e.ID, treeID)
		}
	case *event.LinkEvent:
		if !t.Has(e.ChildID) {
			return fmt.Errorf("%w: child %s not in %s", ErrDanglingLink, e.ChildID, treeID)
		}
		if !f.hasAnywhere(e.RefID) {
			return fmt.Errorf("%w: ref %s not in forest %s/%s", ErrDanglingLink, e.RefID, f.PkgID, f.ID)
		}
	default:
		return fmt.Errorf("%w: %T", event.ErrUnknownEventType, ev)
	}
	return nil
}

func (f *Forest) apply(ev event.Event) {
	t := f.trees[event.TreeID(ev)]
	switch e := ev.(type) {
	case *event.CreateEvent:
		t.add(e.Clone().(*event.CreateEvent))
	case *event.LinkEvent:
		t.Links = append(t.Links, Link{ChildID: e.ChildID, RefID: e.RefID})
	}
}
