// Package resolve implements hand-over-hand path resolution over an
// inode table: walking a path from root, acquiring each visited node's
// lock into a LockSet in root-to-leaf order, and stopping at the node
// the caller's Intent asks for.
package resolve

import (
	"strings"

	"github.com/tecnicofs/tecnicofs/internal/inode"
)

// Intent is why a path is being resolved; it decides whether the
// final node on the path is locked for reading or writing.
type Intent int

const (
	// Lookup locks every visited node, including the final one, for reading.
	Lookup Intent = iota
	// Create locks the final node (the parent the new child is added
	// to) for writing.
	Create
	// Delete locks the final node (the parent the child is removed
	// from) for writing.
	Delete
	// Move locks every visited node for reading; the operations layer
	// upgrades the two resolved parents to writer locks itself, once
	// both paths have been resolved (see internal/ops.Move).
	Move
)

// SplitPath normalises path into its non-empty, "/"-separated
// components. A single trailing slash is trimmed; an empty path or
// "/" itself yields no components, meaning "the root itself".
func SplitPath(path string) []string {
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// SplitParentChild splits path into the path of its parent directory
// and its final component. Both are empty if path names the root.
func SplitParentChild(path string) (parent, child string) {
	comps := SplitPath(path)
	if len(comps) == 0 {
		return "", ""
	}
	parent = strings.Join(comps[:len(comps)-1], "/")
	if parent != "" {
		parent = "/" + parent
	}
	return parent, comps[len(comps)-1]
}

// Resolve walks path from root, locking every node it visits into ls
// (skipping any inumber ls already holds a lock on, so two resolutions
// sharing an ancestor — as Move's source and destination paths often
// do — lock that ancestor only once). It returns the resolved inumber
// and the full root-to-resolved-node chain of inumbers visited, even
// when resolution fails partway: the chain always reflects every node
// actually walked, for use in cycle checks (see internal/ops.Move).
//
// A failing Resolve still leaves every lock it acquired in ls; callers
// are responsible for releasing ls (typically via defer ls.Release()
// right after construction), on every return path.
func Resolve(table *inode.Table, path string, intent Intent, ls *LockSet) (inode.Inumber, []inode.Inumber, error) {
	comps := SplitPath(path)
	cur := inode.Root

	if len(comps) == 0 {
		lockTerminal(ls, cur, intent)
		return cur, []inode.Inumber{cur}, nil
	}

	ls.AcquireRead(cur)
	chain := []inode.Inumber{cur}

	for idx, name := range comps {
		_, payload, err := table.Get(cur)
		if err != nil {
			return 0, chain, err
		}
		next, ok := inode.LookupSubNode(name, payload.Entries)
		if !ok {
			return 0, chain, inode.ErrNotFound
		}
		cur = next
		chain = append(chain, cur)

		if idx == len(comps)-1 {
			lockTerminal(ls, cur, intent)
		} else {
			ls.AcquireRead(cur)
		}
	}
	return cur, chain, nil
}

// lockTerminal locks the final node of a path according to intent:
// writer for Create/Delete, reader otherwise (Lookup, and Move which
// upgrades later).
func lockTerminal(ls *LockSet, i inode.Inumber, intent Intent) {
	if intent == Create || intent == Delete {
		ls.AcquireWrite(i)
	} else {
		ls.AcquireRead(i)
	}
}
