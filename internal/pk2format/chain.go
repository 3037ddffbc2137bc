package pk2format

import "bytes"

// Chain is an ordered, non-empty sequence of blocks belonging to one
// directory. Its identity is the stream offset of its first block
// (ChainOffset); that offset never changes even as blocks are appended.
type Chain struct {
	Blocks []Block
}

// NewChain wraps an already-loaded sequence of blocks as a chain. blocks
// must be non-empty and in chain order.
func NewChain(blocks []Block) *Chain {
	return &Chain{Blocks: blocks}
}

// ChainOffset returns the chain's stable identity: the offset of its first
// block.
func (c *Chain) ChainOffset() ChainOffset {
	return ChainOffset(c.Blocks[0].Offset)
}

// EntryRef locates a single entry by its (block index, slot index).
type EntryRef struct {
	BlockIndex int
	SlotIndex  int
}

// Entry dereferences an EntryRef against this chain.
func (c *Chain) Entry(ref EntryRef) *Entry {
	return &c.Blocks[ref.BlockIndex].Entries[ref.SlotIndex]
}

// Entries iterates every entry slot across every block, in chain order,
// yielding the slot's EntryRef alongside the entry itself. Matches the
// format's document order: block 0 slots 0..19, block 1 slots 0..19, etc.
func (c *Chain) Entries(yield func(ref EntryRef, e *Entry) bool) {
	for bi := range c.Blocks {
		for si := range c.Blocks[bi].Entries {
			if !yield(EntryRef{bi, si}, &c.Blocks[bi].Entries[si]) {
				return
			}
		}
	}
}

// FindByName performs a linear scan for the first non-empty entry whose raw
// name equals name. "." and ".." are not skipped, so lookups of literal "."
// and ".." still work; directory listings filter them out themselves.
func (c *Chain) FindByName(name []byte) (EntryRef, *Entry, bool) {
	var found EntryRef
	var foundEntry *Entry
	ok := false
	c.Entries(func(ref EntryRef, e *Entry) bool {
		if e.IsEmpty() {
			return true
		}
		if bytes.Equal(e.RawName(), name) {
			found, foundEntry, ok = ref, e, true
			return false
		}
		return true
	})
	return found, foundEntry, ok
}

// FirstEmptySlot returns the first kind-empty entry slot in the chain, or
// ok == false if the chain is full (every slot in every block is used).
func (c *Chain) FirstEmptySlot() (ref EntryRef, ok bool) {
	c.Entries(func(r EntryRef, e *Entry) bool {
		if e.IsEmpty() {
			ref, ok = r, true
			return false
		}
		return true
	})
	return ref, ok
}

// SelfRef and ParentRef return the "." and ".." entries at slots 0 and 1 of
// the chain's first block. Neither checks what those slots hold: they return
// slots 0 and 1 as they are, even on a chain that lacks the pair. Loading
// does not reject such a chain, and nothing substitutes root-equivalent
// entries for a missing pair; HasDotEntries reports whether it is present.
func (c *Chain) SelfRef() *Entry   { return &c.Blocks[0].Entries[0] }
func (c *Chain) ParentRef() *Entry { return &c.Blocks[0].Entries[1] }

// HasDotEntries reports whether slots 0 and 1 of the first block are both
// directory entries named "." and "..".
func (c *Chain) HasDotEntries() bool {
	if len(c.Blocks[0].Entries) < 2 {
		return false
	}
	self, parent := c.SelfRef(), c.ParentRef()
	return self.Kind == KindDirectory && bytes.Equal(self.RawName(), []byte(CurrentDirName)) &&
		parent.Kind == KindDirectory && bytes.Equal(parent.RawName(), []byte(ParentDirName))
}

// IsEmptyDirectory reports whether the chain contains no entries besides
// (optionally) "." and "..", i.e. it's safe to delete.
func (c *Chain) IsEmptyDirectory() bool {
	empty := true
	c.Entries(func(ref EntryRef, e *Entry) bool {
		if e.IsEmpty() {
			return true
		}
		name := string(e.RawName())
		if name == CurrentDirName || name == ParentDirName {
			return true
		}
		empty = false
		return false
	})
	return empty
}

// LastBlock returns the chain's terminal block (next_block == 0).
func (c *Chain) LastBlock() *Block {
	return &c.Blocks[len(c.Blocks)-1]
}
