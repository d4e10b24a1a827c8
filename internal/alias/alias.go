// Package alias hands out human readable node names.
//
// An alias is the component key followed by a counter that is unique per
// (package, key) pair, so the first Button dropped into a page is Button1,
// the next Button2, regardless of which editor session asked.
package alias

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrEmptyKey is returned when an alias is requested without a key.
var ErrEmptyKey = errors.New("alias key is required")

// Resolver mints aliases.
type Resolver interface {
	NewAlias(ctx context.Context, packageID, key string) (string, error)
}

// Counter increments the counter of (packageID, key) and returns the new
// value. The first call for a pair returns 1.
type Counter interface {
	NextAlias(ctx context.Context, packageID, key string) (int64, error)
}

// CounterResolver formats aliases from a Counter.
type CounterResolver struct {
	counter Counter
}

// NewCounterResolver creates a resolver backed by counter.
func NewCounterResolver(counter Counter) *CounterResolver {
	return &CounterResolver{counter: counter}
}

// NewAlias implements Resolver.
func (r *CounterResolver) NewAlias(ctx context.Context, packageID, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	n, err := r.counter.NextAlias(ctx, packageID, key)
	if err != nil {
		return "", fmt.Errorf("next alias for %s/%s: %w", packageID, key, err)
	}
	return Format(key, n), nil
}

// Format joins a key and counter value into an alias.
func Format(key string, n int64) string {
	return key + strconv.FormatInt(n, 10)
}

// MemoryCounter keeps counters in process memory.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]map[string]int64
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]map[string]int64)}
}

// NextAlias implements Counter.
func (c *MemoryCounter) NextAlias(ctx context.Context, packageID, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pkg, ok := c.counts[packageID]
	if !ok {
		pkg = make(map[string]int64)
		c.counts[packageID] = pkg
	}
	pkg[key]++
	return pkg[key], nil
}

// NewMemoryResolver creates a resolver with in-memory counters.
func NewMemoryResolver() *CounterResolver {
	return NewCounterResolver(NewMemoryCounter())
}
