package layers

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates a layer's descriptor file is missing.
	ErrConfigNotFound = errors.New("layer config not found")

	// ErrEntryNotFound indicates no entry module exists for any known extension.
	ErrEntryNotFound = errors.New("layer entry not found")

	// ErrInvalidDescriptor indicates a descriptor that cannot be used.
	ErrInvalidDescriptor = errors.New("invalid layer descriptor")

	// ErrOverlappingLayers indicates two layers whose source roots nest.
	ErrOverlappingLayers = errors.New("overlapping layer sources")
)

// LayerError records why a declared layer was skipped.
type LayerError struct {
	Index   int
	Package string
	Err     error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d (%s): %v", e.Index, e.Package, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// Overlap is a pair of layers whose source roots nest or coincide.
type Overlap struct {
	Outer string `json:"outer"`
	Inner string `json:"inner"`
	Path  string `json:"path"`
}
