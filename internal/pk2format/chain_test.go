package pk2format

import "testing"

func mustRootChain(t *testing.T) *Chain {
	t.Helper()
	b, err := NewRootBlock()
	if err != nil {
		t.Fatalf("NewRootBlock: %v", err)
	}
	return NewChain([]Block{b})
}

func TestChainSelfAndParentRef(t *testing.T) {
	c := mustRootChain(t)
	if string(c.SelfRef().RawName()) != "." {
		t.Fatal("SelfRef should be '.'")
	}
	if string(c.ParentRef().RawName()) != ".." {
		t.Fatal("ParentRef should be '..'")
	}
	if !c.HasDotEntries() {
		t.Fatal("HasDotEntries should be true for a freshly created root chain")
	}
}

func TestChainFirstEmptySlotAndFill(t *testing.T) {
	c := mustRootChain(t)
	ref, ok := c.FirstEmptySlot()
	if !ok {
		t.Fatal("expected an empty slot in a fresh chain")
	}
	if ref.BlockIndex != 0 || ref.SlotIndex != 2 {
		t.Fatalf("first empty slot = %+v, want block 0 slot 2", ref)
	}

	// Fill every remaining slot; the chain should then report full.
	for i := 2; i < EntriesPerBlock; i++ {
		e, err := NewFileEntry([]byte{byte('a' + i)}, 0, 0)
		if err != nil {
			t.Fatalf("NewFileEntry: %v", err)
		}
		c.Blocks[0].Entries[i] = e
	}
	if _, ok := c.FirstEmptySlot(); ok {
		t.Fatal("expected no empty slot once all 20 entries are used")
	}
}

func TestChainFindByName(t *testing.T) {
	c := mustRootChain(t)
	e, err := NewFileEntry([]byte("hello.txt"), 100, 5)
	if err != nil {
		t.Fatalf("NewFileEntry: %v", err)
	}
	c.Blocks[0].Entries[2] = e

	ref, found, ok := c.FindByName([]byte("hello.txt"))
	if !ok {
		t.Fatal("expected to find hello.txt")
	}
	if ref.SlotIndex != 2 || found.Position != 100 {
		t.Fatalf("found entry at %+v = %+v", ref, found)
	}

	if _, _, ok := c.FindByName([]byte("nope.txt")); ok {
		t.Fatal("did not expect to find nope.txt")
	}
}

func TestChainIsEmptyDirectory(t *testing.T) {
	c := mustRootChain(t)
	if !c.IsEmptyDirectory() {
		t.Fatal("a fresh chain with only '.' and '..' should be empty")
	}

	e, err := NewFileEntry([]byte("f"), 0, 0)
	if err != nil {
		t.Fatalf("NewFileEntry: %v", err)
	}
	c.Blocks[0].Entries[2] = e
	if c.IsEmptyDirectory() {
		t.Fatal("a chain with a real entry should not be empty")
	}
}
