package ops

import "errors"

var (
	// ErrDirNotEmpty is returned by Delete when the target directory
	// still has at least one entry in use.
	ErrDirNotEmpty = errors.New("ops: directory not empty")

	// ErrInvalidMove is returned by Move when dst names a path inside
	// the subtree rooted at src, which would disconnect src from the
	// tree entirely.
	ErrInvalidMove = errors.New("ops: destination is inside source subtree")

	// ErrInvalidCommand is returned when a parsed wire command can't be
	// mapped onto an operation, e.g. an unsupported Op byte.
	ErrInvalidCommand = errors.New("ops: invalid command")
)
