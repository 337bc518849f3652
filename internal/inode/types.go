// Package inode implements the fixed-capacity inode table: the single
// piece of shared mutable state in TecnicoFS. Every other package
// reaches the tree only through a *Table; nobody else holds a
// reference into a slot's payload.
package inode

// Kind is the type of a filesystem node.
type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "d"
	}
	return "f"
}

// Inumber is the index of an inode in the table. It is stable for the
// lifetime of the node it names; once Free'd it may be handed out
// again by a later Alloc.
type Inumber int

// Root is the inumber of the filesystem root, created by Init and
// never recycled.
const Root Inumber = 0

// DirEntry is one (name -> child) mapping inside a directory's
// payload. Used is false for a free slot in the fixed-width array.
type DirEntry struct {
	Used  bool
	Name  string
	Child Inumber
}

// Payload is a read-guarded snapshot of a slot's content, copied out
// under the slot's lock so callers never retain a live reference into
// the table.
type Payload struct {
	// Entries is populated when the slot's Kind is Directory; nil for File.
	Entries []DirEntry
}
