package engine

import "errors"

var (
	// ErrConflict indicates the build plan has ownership conflicts.
	ErrConflict = errors.New("conflict detected")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrBundle indicates the bundler failed. Cache and marker files
	// written before the failure are left in place.
	ErrBundle = errors.New("bundle failed")

	// ErrNoRuntime indicates a forest operation on an engine built
	// without a runtime.
	ErrNoRuntime = errors.New("forest runtime not configured")
)
