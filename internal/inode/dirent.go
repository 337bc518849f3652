package inode

// addEntry fills the first free slot in entries with (name, child),
// failing if name already names an InUse entry or no free slot
// remains. The caller must already hold the parent's writer lock;
// entries is the parent slot's own backing array, mutated in place.
func addEntry(entries []DirEntry, name string, child Inumber) error {
	for _, e := range entries {
		if e.Used && e.Name == name {
			return ErrAlreadyExists
		}
	}
	for i := range entries {
		if !entries[i].Used {
			entries[i] = DirEntry{Used: true, Name: name, Child: child}
			return nil
		}
	}
	return ErrDirFull
}

// resetEntry frees the entry pointing at child. The caller must
// already hold the parent's writer lock.
func resetEntry(entries []DirEntry, child Inumber) error {
	for i := range entries {
		if entries[i].Used && entries[i].Child == child {
			entries[i] = DirEntry{}
			return nil
		}
	}
	return ErrNotFound
}

// IsEmpty reports whether every entry in a directory's payload is free.
func IsEmpty(entries []DirEntry) bool {
	for _, e := range entries {
		if e.Used {
			return false
		}
	}
	return true
}

// LookupSubNode is a pure search for name among entries. It requires
// no lock of its own beyond whatever the caller took to obtain entries.
func LookupSubNode(name string, entries []DirEntry) (Inumber, bool) {
	for _, e := range entries {
		if e.Used && e.Name == name {
			return e.Child, true
		}
	}
	return 0, false
}
