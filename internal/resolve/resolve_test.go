package resolve

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/tecnicofs/tecnicofs/internal/inode"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/a/b/", []string{"a", "b"}},
	}
	for _, c := range cases {
		got := SplitPath(c.in)
		if diff := pretty.Compare(got, c.want); diff != "" {
			t.Errorf("SplitPath(%q): %s", c.in, diff)
		}
	}
}

func TestSplitParentChild(t *testing.T) {
	cases := []struct {
		in         string
		wantParent string
		wantChild  string
	}{
		{"/a", "", "a"},
		{"/a/b", "/a", "b"},
		{"/a/b/c", "/a/b", "c"},
	}
	for _, c := range cases {
		p, child := SplitParentChild(c.in)
		if p != c.wantParent || child != c.wantChild {
			t.Errorf("SplitParentChild(%q) = (%q, %q), want (%q, %q)", c.in, p, child, c.wantParent, c.wantChild)
		}
	}
}

func newTestTable(t *testing.T) *inode.Table {
	t.Helper()
	tbl := inode.NewTable(8, 4, 16)
	if _, err := tbl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tbl
}

func TestResolveRoot(t *testing.T) {
	tbl := newTestTable(t)
	ls := NewLockSet(tbl)
	defer ls.Release()

	got, chain, err := Resolve(tbl, "/", Lookup, ls)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != inode.Root {
		t.Errorf("Resolve(/) = %v, want Root", got)
	}
	if diff := pretty.Compare(chain, []inode.Inumber{inode.Root}); diff != "" {
		t.Errorf("chain: %s", diff)
	}
}

func TestResolveNested(t *testing.T) {
	tbl := newTestTable(t)
	dir, err := tbl.Alloc(inode.Directory)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := tbl.SetDirEntry(inode.Root, "a", dir); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}
	file, err := tbl.Alloc(inode.File)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := tbl.SetDirEntry(dir, "b", file); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}

	ls := NewLockSet(tbl)
	defer ls.Release()

	got, chain, err := Resolve(tbl, "/a/b", Lookup, ls)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != file {
		t.Errorf("Resolve(/a/b) = %v, want %v", got, file)
	}
	want := []inode.Inumber{inode.Root, dir, file}
	if diff := pretty.Compare(chain, want); diff != "" {
		t.Errorf("chain: %s", diff)
	}
}

func TestResolveNotFound(t *testing.T) {
	tbl := newTestTable(t)
	ls := NewLockSet(tbl)
	defer ls.Release()

	if _, _, err := Resolve(tbl, "/missing", Lookup, ls); err != inode.ErrNotFound {
		t.Fatalf("Resolve(/missing) = %v, want ErrNotFound", err)
	}
}

func TestLockSetDedupesSharedAncestor(t *testing.T) {
	tbl := newTestTable(t)
	dir, err := tbl.Alloc(inode.Directory)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := tbl.SetDirEntry(inode.Root, "shared", dir); err != nil {
		t.Fatalf("SetDirEntry: %v", err)
	}

	ls := NewLockSet(tbl)
	defer ls.Release()

	if _, _, err := Resolve(tbl, "/shared", Move, ls); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if _, _, err := Resolve(tbl, "/shared", Move, ls); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if len(ls.held) != 2 {
		t.Fatalf("held locks = %d, want 2 (root, shared), got %v", len(ls.held), ls.held)
	}
}

func TestLockSetUpgrade(t *testing.T) {
	tbl := newTestTable(t)
	ls := NewLockSet(tbl)
	defer ls.Release()

	ls.AcquireRead(inode.Root)
	ls.AcquireWrite(inode.Root)
	if len(ls.held) != 1 {
		t.Fatalf("held = %v, want a single upgraded entry", ls.held)
	}
	if ls.held[0].mode != writeLock {
		t.Errorf("mode = %v, want writeLock", ls.held[0].mode)
	}
}
