// Package ops implements the five TecnicoFS filesystem operations on
// top of an inode table and the path resolver: Create, Delete, Move,
// Lookup and Print. Create, Delete, Move and Lookup resolve their
// path(s) into a resolve.LockSet, do their mutation or read under the
// locks that set holds, and release it before returning; Print takes
// each node's reader lock in turn through inode.Table.WriteTree.
package ops

import (
	"bytes"
	"errors"

	"github.com/tecnicofs/tecnicofs/internal/inode"
	"github.com/tecnicofs/tecnicofs/internal/metrics"
	"github.com/tecnicofs/tecnicofs/internal/resolve"
	"github.com/tecnicofs/tecnicofs/internal/wire"
)

// FileSystem binds an inode table to the operations layer. It has no
// state of its own beyond the table and an optional metrics recorder:
// every call is safely usable from any number of goroutines at once.
type FileSystem struct {
	table   *inode.Table
	metrics *metrics.Recorder
}

// New returns a FileSystem over table with metrics disabled.
func New(table *inode.Table) *FileSystem {
	return &FileSystem{table: table}
}

// NewWithMetrics returns a FileSystem over table that reports every
// call's outcome to rec.
func NewWithMetrics(table *inode.Table, rec *metrics.Recorder) *FileSystem {
	return &FileSystem{table: table, metrics: rec}
}

func (fs *FileSystem) observe(op string, err error) {
	if fs.metrics != nil {
		fs.metrics.Observe(op, err)
	}
}

// Create adds a new node named path, of the given kind, as a child of
// path's parent directory. The parent must already exist and must not
// already contain an entry with that name.
func (fs *FileSystem) Create(path string, kind inode.Kind) (err error) {
	defer func() { fs.observe("create", err) }()

	parentPath, name := resolve.SplitParentChild(path)
	if name == "" {
		return inode.ErrAlreadyExists
	}

	ls := resolve.NewLockSet(fs.table)
	defer ls.Release()

	parent, _, err := resolve.Resolve(fs.table, parentPath, resolve.Create, ls)
	if err != nil {
		return err
	}

	// Check the name against the parent's current entries before
	// allocating a node for it, so a colliding name is reported as
	// ErrAlreadyExists even when the table itself is nearly full,
	// rather than as ErrTableFull. The parent is held write-locked for
	// the rest of this call, so nothing can add or remove entries
	// between this check and SetDirEntry below.
	parentKind, payload, err := fs.table.Get(parent)
	if err != nil {
		return err
	}
	if parentKind != inode.Directory {
		return inode.ErrNotADir
	}
	if _, exists := inode.LookupSubNode(name, payload.Entries); exists {
		return inode.ErrAlreadyExists
	}

	child, err := fs.table.Alloc(kind)
	if err != nil {
		return err
	}
	if err := fs.table.SetDirEntry(parent, name, child); err != nil {
		// Roll back the allocation: the parent still rejected the entry
		// (directory full or name too long), so the new node must not be
		// left dangling with no path to it.
		fs.table.Lock(child)
		_ = fs.table.Free(child)
		fs.table.Unlock(child)
		return err
	}
	return nil
}

// Delete removes the entry named path from its parent directory. If
// path names a directory, it must be empty.
func (fs *FileSystem) Delete(path string) (err error) {
	defer func() { fs.observe("delete", err) }()

	parentPath, name := resolve.SplitParentChild(path)
	if name == "" {
		return inode.ErrNotFound
	}

	ls := resolve.NewLockSet(fs.table)
	defer ls.Release()

	parent, _, err := resolve.Resolve(fs.table, parentPath, resolve.Delete, ls)
	if err != nil {
		return err
	}
	parentKind, payload, err := fs.table.Get(parent)
	if err != nil {
		return err
	}
	if parentKind != inode.Directory {
		return inode.ErrNotADir
	}
	child, ok := inode.LookupSubNode(name, payload.Entries)
	if !ok {
		return inode.ErrNotFound
	}

	ls.AcquireWrite(child)
	kind, childPayload, err := fs.table.Get(child)
	if err != nil {
		return err
	}
	if kind == inode.Directory && !inode.IsEmpty(childPayload.Entries) {
		return ErrDirNotEmpty
	}

	if err := fs.table.ClearDirEntry(parent, child); err != nil {
		return err
	}
	return fs.table.Free(child)
}

// Move relocates the node named src to the path dst, atomically with
// respect to every other operation: dst's parent gains an entry for
// src's inumber and src's parent loses its entry, with never a window
// in which neither or both appear.
func (fs *FileSystem) Move(src, dst string) (err error) {
	defer func() { fs.observe("move", err) }()

	srcParentPath, srcName := resolve.SplitParentChild(src)
	dstParentPath, dstName := resolve.SplitParentChild(dst)
	if srcName == "" || dstName == "" {
		return inode.ErrNotFound
	}

	ls := resolve.NewLockSet(fs.table)
	defer ls.Release()

	// Resolve both parents read-locked first, in a fixed textual order,
	// so two concurrent Moves crossing the same two directories never
	// wait on each other in opposite orders.
	first, second := srcParentPath, dstParentPath
	firstIsSrc := true
	if second < first {
		first, second = second, first
		firstIsSrc = false
	}

	firstInum, firstChain, err := resolve.Resolve(fs.table, first, resolve.Move, ls)
	if err != nil {
		return err
	}
	secondInum, secondChain, err := resolve.Resolve(fs.table, second, resolve.Move, ls)
	if err != nil {
		return err
	}

	srcParent, dstParent := firstInum, secondInum
	dstChain := secondChain
	if !firstIsSrc {
		srcParent, dstParent = dstParent, srcParent
		dstChain = firstChain
	}

	srcParentKind, srcParentPayload, err := fs.table.Get(srcParent)
	if err != nil {
		return err
	}
	if srcParentKind != inode.Directory {
		return inode.ErrNotADir
	}
	child, ok := inode.LookupSubNode(srcName, srcParentPayload.Entries)
	if !ok {
		return inode.ErrNotFound
	}

	// dst must not be src's own subtree: walking into it would orphan
	// src from the tree rather than relocate it. dstChain already holds
	// every inumber visited to reach dstParent; if child shows up there,
	// dst lies inside src.
	if containsInumber(dstChain, child) {
		return ErrInvalidMove
	}

	first2, second2 := orderForUpgrade(srcParent, dstParent)
	ls.AcquireWrite(first2)
	ls.AcquireWrite(second2)

	// Re-validate under the writer locks: another Move could have
	// removed srcName from srcParent, or filled dstParent, between the
	// read-resolution above and this upgrade.
	_, srcParentPayload, err = fs.table.Get(srcParent)
	if err != nil {
		return err
	}
	child, ok = inode.LookupSubNode(srcName, srcParentPayload.Entries)
	if !ok {
		return inode.ErrNotFound
	}

	// Clear the source entry before adding the destination one: when
	// srcParent and dstParent are the same directory both entries name
	// child, and ClearDirEntry removes the first entry it finds for it.
	if err := fs.table.ClearDirEntry(srcParent, child); err != nil {
		return err
	}
	if err := fs.table.SetDirEntry(dstParent, dstName, child); err != nil {
		// Put the source entry back so a failed Move leaves the tree as
		// it was.
		_ = fs.table.SetDirEntry(srcParent, srcName, child)
		return err
	}
	return nil
}

// orderForUpgrade returns a and b in the fixed order every Move
// acquires writer locks in: lower inumber first. Both parents were
// already read-locked by Resolve in textual-path order above; this
// second, numeric order is what actually prevents deadlock between two
// Moves, since a directory's inumber — unlike its path — never changes
// while the node is locked.
func orderForUpgrade(a, b inode.Inumber) (first, second inode.Inumber) {
	if a <= b {
		return a, b
	}
	return b, a
}

func containsInumber(chain []inode.Inumber, i inode.Inumber) bool {
	for _, c := range chain {
		if c == i {
			return true
		}
	}
	return false
}

// Lookup resolves path and returns the inumber of the node it names.
func (fs *FileSystem) Lookup(path string) (inum inode.Inumber, err error) {
	defer func() { fs.observe("lookup", err) }()

	ls := resolve.NewLockSet(fs.table)
	defer ls.Release()

	inum, _, err = resolve.Resolve(fs.table, path, resolve.Lookup, ls)
	return inum, err
}

// Print renders a depth-first dump of the whole tree starting at root.
func (fs *FileSystem) Print() (tree string, err error) {
	defer func() { fs.observe("print", err) }()

	var buf bytes.Buffer
	if err := fs.table.WriteTree(&buf, inode.Root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToStatus maps an error returned by a FileSystem method (or nil) onto
// the wire status the server sends back to the client.
func ToStatus(err error) wire.Status {
	switch {
	case err == nil:
		return wire.OK
	case errors.Is(err, inode.ErrNotFound):
		return wire.ErrNotFound
	case errors.Is(err, inode.ErrAlreadyExists):
		return wire.ErrAlreadyExists
	case errors.Is(err, inode.ErrNotADir):
		return wire.ErrNotADir
	case errors.Is(err, inode.ErrDirFull):
		// A single directory running out of entry slots is, from the
		// client's perspective, indistinguishable from the whole table
		// being full: both mean "no room for this create", and the
		// wire protocol has only one status for that.
		return wire.ErrTableFull
	case errors.Is(err, inode.ErrTableFull):
		return wire.ErrTableFull
	case errors.Is(err, inode.ErrNameTooLong):
		return wire.ErrInvalidCommand
	case errors.Is(err, ErrDirNotEmpty):
		return wire.ErrDirNotEmpty
	case errors.Is(err, ErrInvalidMove):
		return wire.ErrInvalidMove
	case errors.Is(err, ErrInvalidCommand):
		return wire.ErrInvalidCommand
	default:
		return wire.ErrOther
	}
}
