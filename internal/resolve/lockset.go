package resolve

import "github.com/tecnicofs/tecnicofs/internal/inode"

type lockMode int

const (
	readLock lockMode = iota
	writeLock
)

type heldLock struct {
	inum inode.Inumber
	mode lockMode
}

// LockSet is the scoped collection of inode locks a single filesystem
// call currently holds, in acquisition order. Resolve appends to it as
// it walks a path; the operations layer defers Release immediately
// after constructing one, so every return path — success, validation
// failure, or an error partway through resolution — releases every
// lock the call took.
type LockSet struct {
	table *inode.Table
	held  []heldLock
}

// NewLockSet returns an empty lock-set bound to table.
func NewLockSet(table *inode.Table) *LockSet {
	return &LockSet{table: table}
}

func (ls *LockSet) indexOf(i inode.Inumber) int {
	for idx, h := range ls.held {
		if h.inum == i {
			return idx
		}
	}
	return -1
}

// AcquireRead locks i for reading and records it, unless the set
// already holds a lock (read or write) on i.
func (ls *LockSet) AcquireRead(i inode.Inumber) {
	if ls.indexOf(i) >= 0 {
		return
	}
	ls.table.RLock(i)
	ls.held = append(ls.held, heldLock{i, readLock})
}

// AcquireWrite locks i for writing. If the set already holds a reader
// lock on i, it is upgraded in place (RUnlock then Lock) — used by
// Move to upgrade the two parent directories after both paths have
// been read-resolved. If i is already held for writing, this is a
// no-op.
func (ls *LockSet) AcquireWrite(i inode.Inumber) {
	if idx := ls.indexOf(i); idx >= 0 {
		if ls.held[idx].mode == writeLock {
			return
		}
		ls.table.RUnlock(i)
		ls.table.Lock(i)
		ls.held[idx].mode = writeLock
		return
	}
	ls.table.Lock(i)
	ls.held = append(ls.held, heldLock{i, writeLock})
}

// Release unlocks every held inode in reverse acquisition order and
// empties the set. Calling Release on an empty or already-released
// set is a no-op.
func (ls *LockSet) Release() {
	for idx := len(ls.held) - 1; idx >= 0; idx-- {
		h := ls.held[idx]
		if h.mode == writeLock {
			ls.table.Unlock(h.inum)
		} else {
			ls.table.RUnlock(h.inum)
		}
	}
	ls.held = nil
}
