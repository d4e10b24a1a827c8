// Package ids issues identifiers for new tree nodes.
//
// A Generator is created once per process and shared by every drop
// operation, so implementations must be safe for concurrent use and never
// hand out the same identifier twice.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator issues unique identifiers.
type Generator interface {
	// NewID returns an identifier that has never been returned before.
	NewID() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh UUID string.
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator issues "<prefix><n>" identifiers from a counter.
// Useful in tests where emitted ids must be predictable.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a SequenceGenerator starting at 1.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix, next: 1}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s%d", g.prefix, g.next)
	g.next++
	return id
}
