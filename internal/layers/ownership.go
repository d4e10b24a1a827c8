package layers

import (
	"path/filepath"
	"sort"

	"github.com/danieljhkim/atelier/internal/fsops"
)

type owner struct {
	root  string
	entry *Entry
}

// ownershipIndex maps normalized source roots to the layer that owns them.
type ownershipIndex struct {
	owners []owner
}

// newOwnershipIndex indexes entries by source root and reports every pair
// of roots where one contains the other.
func newOwnershipIndex(entries []*Entry) (*ownershipIndex, []Overlap) {
	idx := &ownershipIndex{owners: make([]owner, 0, len(entries))}
	for _, e := range entries {
		idx.owners = append(idx.owners, owner{root: filepath.Clean(e.SourcePath), entry: e})
	}
	// Longest root first so lookups find the most specific owner.
	sort.SliceStable(idx.owners, func(i, j int) bool {
		return len(idx.owners[i].root) > len(idx.owners[j].root)
	})

	var overlaps []Overlap
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := filepath.Clean(entries[i].SourcePath), filepath.Clean(entries[j].SourcePath)
			switch {
			case fsops.IsWithin(a, b):
				overlaps = append(overlaps, Overlap{Outer: entries[i].PackageName, Inner: entries[j].PackageName, Path: b})
			case fsops.IsWithin(b, a):
				overlaps = append(overlaps, Overlap{Outer: entries[j].PackageName, Inner: entries[i].PackageName, Path: a})
			}
		}
	}
	return idx, overlaps
}

func (idx *ownershipIndex) lookup(filename string) (*Entry, bool) {
	for _, o := range idx.owners {
		if fsops.IsWithin(o.root, filename) {
			return o.entry, true
		}
	}
	return nil, false
}
