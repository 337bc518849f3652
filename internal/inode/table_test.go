package inode

import (
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(8, 4, 10)
	if _, err := tbl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tbl
}

func TestInitLandsOnRoot(t *testing.T) {
	tbl := newTestTable(t)
	kind, _, err := tbl.Get(Root)
	if err != nil {
		t.Fatalf("Get(Root): %v", err)
	}
	if kind != Directory {
		t.Errorf("root kind = %v, want Directory", kind)
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	tbl := newTestTable(t)

	i, err := tbl.Alloc(File)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if i == Root {
		t.Fatalf("Alloc reused the root slot")
	}
	if err := tbl.Free(i); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := tbl.Free(i); err == nil {
		t.Fatalf("second Free succeeded, want error")
	}
}

func TestAllocTableFull(t *testing.T) {
	tbl := NewTable(1, 4, 10)
	if _, err := tbl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := tbl.Alloc(File); err != ErrTableFull {
		t.Fatalf("Alloc on full table = %v, want ErrTableFull", err)
	}
}

func TestSetDirEntryAndLookup(t *testing.T) {
	tbl := newTestTable(t)
	child, err := tbl.Alloc(File)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := tbl.SetDirEntry(Root, "a", child); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}
	if err := tbl.SetDirEntry(Root, "a", child); err != ErrAlreadyExists {
		t.Fatalf("duplicate SetDirEntry = %v, want ErrAlreadyExists", err)
	}

	_, payload, err := tbl.Get(Root)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, ok := LookupSubNode("a", payload.Entries)
	if !ok || got != child {
		t.Fatalf("LookupSubNode(a) = (%v, %v), want (%v, true)", got, ok, child)
	}
}

func TestSetDirEntryNameTooLong(t *testing.T) {
	tbl := newTestTable(t)
	child, _ := tbl.Alloc(File)
	longName := strings.Repeat("x", tbl.MaxFileName()+1)
	if err := tbl.SetDirEntry(Root, longName, child); err != ErrNameTooLong {
		t.Fatalf("SetDirEntry(long name) = %v, want ErrNameTooLong", err)
	}
}

func TestSetDirEntryDirFull(t *testing.T) {
	tbl := NewTable(8, 1, 10)
	if _, err := tbl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a, _ := tbl.Alloc(File)
	if err := tbl.SetDirEntry(Root, "a", a); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}
	b, _ := tbl.Alloc(File)
	if err := tbl.SetDirEntry(Root, "b", b); err != ErrDirFull {
		t.Fatalf("SetDirEntry over capacity = %v, want ErrDirFull", err)
	}
}

func TestClearDirEntry(t *testing.T) {
	tbl := newTestTable(t)
	child, _ := tbl.Alloc(File)
	if err := tbl.SetDirEntry(Root, "a", child); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}
	if err := tbl.ClearDirEntry(Root, child); err != nil {
		t.Fatalf("ClearDirEntry: %v", err)
	}
	_, payload, _ := tbl.Get(Root)
	if !IsEmpty(payload.Entries) {
		t.Errorf("entries not empty after ClearDirEntry: %v", payload.Entries)
	}
}

func TestWriteTree(t *testing.T) {
	tbl := newTestTable(t)
	dir, err := tbl.Alloc(Directory)
	if err != nil {
		t.Fatalf("Alloc dir: %v", err)
	}
	if err := tbl.SetDirEntry(Root, "sub", dir); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}
	file, err := tbl.Alloc(File)
	if err != nil {
		t.Fatalf("Alloc file: %v", err)
	}
	if err := tbl.SetDirEntry(dir, "leaf", file); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}

	var buf strings.Builder
	if err := tbl.WriteTree(&buf, Root); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "/sub") || !strings.Contains(out, "/sub/leaf") {
		t.Errorf("WriteTree output missing expected paths: %q", out)
	}
}

func TestGetPayloadIsACopy(t *testing.T) {
	tbl := newTestTable(t)
	child, _ := tbl.Alloc(File)
	if err := tbl.SetDirEntry(Root, "a", child); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}

	_, before, _ := tbl.Get(Root)
	_, mutated, _ := tbl.Get(Root)
	mutated.Entries[0].Name = "mutated"

	_, after, _ := tbl.Get(Root)
	if diff := pretty.Compare(before, after); diff != "" {
		t.Errorf("Get returned a live reference into the table's storage: %s", diff)
	}
}
