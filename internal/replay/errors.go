package replay

import "errors"

var (
	// ErrMalformedTemplate indicates a template that cannot be instantiated:
	// no root, several roots, duplicate ids, references to ids the template
	// never creates, or a CREATE that comes before the CREATE of its parent.
	// Templates are recorded in application order, and the forest applies
	// emitted events in that order, so a parent must be created first.
	ErrMalformedTemplate = errors.New("malformed template")

	// ErrUnknownDropTarget indicates a drop caught by a component that is
	// not in the live component tree.
	ErrUnknownDropTarget = errors.New("unknown drop target")

	// ErrAliasTimeout indicates the alias phase did not finish in time.
	ErrAliasTimeout = errors.New("alias resolution timed out")

	// ErrIDCollision indicates an instance id already used in the
	// destination forest.
	ErrIDCollision = errors.New("identifier collision")
)
