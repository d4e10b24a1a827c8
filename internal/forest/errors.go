package forest

import "errors"

var (
	// ErrUnknownForest indicates a forest package missing from the tool config.
	ErrUnknownForest = errors.New("unknown forest package")

	// ErrUnknownTree indicates an event addressed to a tree the forest lacks.
	ErrUnknownTree = errors.New("unknown tree")

	// ErrDuplicateNode indicates a CREATE for an id already in the tree.
	ErrDuplicateNode = errors.New("node already exists")

	// ErrUnknownParent indicates a CREATE under a parent that does not exist.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrDanglingLink indicates a LINK whose child or ref does not exist.
	ErrDanglingLink = errors.New("dangling link")
)
