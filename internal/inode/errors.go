package inode

import "errors"

var (
	// ErrTableFull is returned by Alloc when every slot is InUse.
	ErrTableFull = errors.New("inode: table full")

	// ErrNotFound covers both "no such inumber" and "no such name in
	// this directory", matching the original single FAIL return of the
	// C lookup functions this package replaces.
	ErrNotFound = errors.New("inode: not found")

	// ErrNotADir is returned when a directory-only operation targets a
	// File slot.
	ErrNotADir = errors.New("inode: not a directory")

	// ErrAlreadyExists is returned by SetDirEntry when name already names
	// an InUse entry in the parent.
	ErrAlreadyExists = errors.New("inode: entry already exists")

	// ErrDirFull is returned by SetDirEntry when a directory has no free
	// entry slot left (MaxDirEntries exhausted).
	ErrDirFull = errors.New("inode: directory has no free entry slots")

	// ErrNameTooLong is returned when a child name exceeds the table's
	// configured MaxFileName.
	ErrNameTooLong = errors.New("inode: name exceeds maximum length")
)
