package inode

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Defaults match the original coursework's configuration constants.
const (
	DefaultTableSize     = 50
	DefaultMaxDirEntries = 20
	DefaultMaxFileName   = 40
)

type slot struct {
	mu      sync.RWMutex
	inUse   bool
	kind    Kind
	entries []DirEntry // non-nil only while kind == Directory and inUse
}

// Table is the fixed-capacity pool of inode slots. Every slot's lock
// is allocated once, at NewTable, and lives for the lifetime of the
// Table: a slot going Free never destroys its lock, only its payload.
type Table struct {
	// allocMu makes the "first free slot" scan in Alloc atomic. Alloc
	// is called with slot locks already held (Create holds the parent
	// directory's writer lock), so while holding allocMu it only ever
	// TryLocks a slot and never blocks on one.
	allocMu sync.Mutex

	slots         []slot
	maxDirEntries int
	maxFileName   int
}

// NewTable allocates a table of the given capacity. size, maxDirEntries
// and maxFileName are typically DefaultTableSize, DefaultMaxDirEntries
// and DefaultMaxFileName.
func NewTable(size, maxDirEntries, maxFileName int) *Table {
	return &Table{
		slots:         make([]slot, size),
		maxDirEntries: maxDirEntries,
		maxFileName:   maxFileName,
	}
}

// Init allocates the root directory inode. It must be called exactly
// once before any other Table method, and always lands on Root.
func (t *Table) Init() (Inumber, error) {
	i, err := t.Alloc(Directory)
	if err != nil {
		return 0, err
	}
	if i != Root {
		panic("inode: root inode did not land on inumber 0")
	}
	return i, nil
}

// Close releases the table. TecnicoFS keeps the tree in memory only,
// so there is nothing to flush; Close exists to bound the table's
// lifecycle symmetrically with Init, matching the original's
// init_fs/destroy_fs pair.
func (t *Table) Close() {}

func (t *Table) Size() int             { return len(t.slots) }
func (t *Table) MaxDirEntries() int    { return t.maxDirEntries }
func (t *Table) MaxFileName() int      { return t.maxFileName }

func (t *Table) slotAt(i Inumber) *slot {
	return &t.slots[int(i)]
}

// Alloc scans for the first Free slot, initialises it to kind, and
// returns its inumber. It fails with ErrTableFull if no free slot is
// found; a slot whose lock is held at the time of the scan counts as
// taken.
func (t *Table) Alloc(kind Kind) (Inumber, error) {
	t.allocMu.Lock()
	defer t.allocMu.Unlock()

	for i := range t.slots {
		s := &t.slots[i]
		// A slot locked by someone else (the caller's own parent
		// directory among them) is in use or being freed: skip it
		// rather than wait on it.
		if !s.mu.TryLock() {
			continue
		}
		if !s.inUse {
			s.inUse = true
			s.kind = kind
			if kind == Directory {
				s.entries = make([]DirEntry, t.maxDirEntries)
			} else {
				s.entries = nil
			}
			s.mu.Unlock()
			return Inumber(i), nil
		}
		s.mu.Unlock()
	}
	return 0, ErrTableFull
}

// Free clears a slot's payload and marks it Free, ready for reuse by a
// later Alloc. It fails with ErrNotFound if the slot is already Free.
// The caller must already hold the slot's writer lock; like Get,
// SetDirEntry and ClearDirEntry, Free takes no lock of its own.
func (t *Table) Free(i Inumber) error {
	s := t.slotAt(i)
	if !s.inUse {
		return ErrNotFound
	}
	s.inUse = false
	s.entries = nil
	return nil
}

// RLock, RUnlock, Lock and Unlock expose a slot's reader/writer lock
// directly: the path resolver and the operations layer hold these
// across a whole call, well beyond the span of a single Table method,
// so the Table cannot take them on the caller's behalf.
func (t *Table) RLock(i Inumber)   { t.slotAt(i).mu.RLock() }
func (t *Table) RUnlock(i Inumber) { t.slotAt(i).mu.RUnlock() }
func (t *Table) Lock(i Inumber)    { t.slotAt(i).mu.Lock() }
func (t *Table) Unlock(i Inumber)  { t.slotAt(i).mu.Unlock() }

// Get copies out a slot's kind and payload. The caller must already
// hold at least the slot's reader lock; Get takes no lock of its own
// so it composes with a writer lock already held by the caller too.
func (t *Table) Get(i Inumber) (Kind, Payload, error) {
	s := t.slotAt(i)
	if !s.inUse {
		return 0, Payload{}, ErrNotFound
	}
	var p Payload
	if s.kind == Directory {
		p.Entries = append([]DirEntry(nil), s.entries...)
	}
	return s.kind, p, nil
}

// SetDirEntry adds (name -> child) to parent's directory payload. The
// caller must already hold parent's writer lock.
func (t *Table) SetDirEntry(parent Inumber, name string, child Inumber) error {
	if len(name) == 0 || len(name) > t.maxFileName {
		return ErrNameTooLong
	}
	s := t.slotAt(parent)
	if !s.inUse {
		return ErrNotFound
	}
	if s.kind != Directory {
		return ErrNotADir
	}
	return addEntry(s.entries, name, child)
}

// ClearDirEntry removes the entry pointing at child from parent's
// directory payload. The caller must already hold parent's writer lock.
func (t *Table) ClearDirEntry(parent, child Inumber) error {
	s := t.slotAt(parent)
	if !s.inUse {
		return ErrNotFound
	}
	if s.kind != Directory {
		return ErrNotADir
	}
	return resetEntry(s.entries, child)
}

// WriteTree writes a depth-first, pre-order dump of the subtree rooted
// at root: one "<inumber> <kind> <path>" line per node, indented by
// depth. Each node is visited under its own reader lock only — not
// held across the recursive descent into its children — so Print
// shares with concurrent Lookups everywhere but blocks only at a node
// a writer currently holds.
func (t *Table) WriteTree(w io.Writer, root Inumber) error {
	return t.writeTree(w, root, "/", 0)
}

func (t *Table) writeTree(w io.Writer, i Inumber, path string, depth int) error {
	t.RLock(i)
	kind, payload, err := t.Get(i)
	if err != nil {
		t.RUnlock(i)
		return err
	}
	indent := strings.Repeat("  ", depth)
	_, werr := fmt.Fprintf(w, "%s%d %s %s\n", indent, i, kind, path)

	var children []DirEntry
	if kind == Directory {
		for _, e := range payload.Entries {
			if e.Used {
				children = append(children, e)
			}
		}
	}
	t.RUnlock(i)

	if werr != nil {
		return werr
	}

	for _, c := range children {
		childPath := strings.TrimSuffix(path, "/") + "/" + c.Name
		if err := t.writeTree(w, c.Child, childPath, depth+1); err != nil {
			return err
		}
	}
	return nil
}
