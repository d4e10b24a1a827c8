package replay

import (
	"fmt"

	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/ids"
)

// maxMintAttempts bounds re-minting when fresh ids collide.
const maxMintAttempts = 8

// reserved ids name fixed nodes of every tree and are never remapped.
func reserved(id string) bool {
	return id == event.BodyID
}

// replacements is the old-id to new-id map of one instantiation.
type replacements struct {
	gen    ids.Generator
	exists func(string) bool
	m      map[string]string
	used   map[string]bool
}

func newReplacements(gen ids.Generator, exists func(string) bool) *replacements {
	return &replacements{
		gen:    gen,
		exists: exists,
		m:      make(map[string]string),
		used:   make(map[string]bool),
	}
}

// bind records a fixed replacement.
func (r *replacements) bind(oldID, newID string) {
	r.m[oldID] = newID
	r.used[newID] = true
}

// get returns the replacement of oldID, minting one on first use.
func (r *replacements) get(oldID string) (string, error) {
	if reserved(oldID) {
		return oldID, nil
	}
	if newID, ok := r.m[oldID]; ok {
		return newID, nil
	}
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		newID := r.gen.NewID()
		if r.used[newID] || (r.exists != nil && r.exists(newID)) {
			continue
		}
		r.bind(oldID, newID)
		return newID, nil
	}
	return "", fmt.Errorf("%w: could not mint a fresh id for %s after %d attempts", ErrIDCollision, oldID, maxMintAttempts)
}
