package pk2format

import "fmt"

// Block is a single 2560-byte directory block: EntriesPerBlock entry slots.
// Only the last slot's next_block field is meaningful; it chains to the
// next block in the directory's PackBlockChain, or 0 if terminal.
type Block struct {
	Offset  BlockOffset
	Entries [EntriesPerBlock]Entry
}

// NewEmptyBlock returns a block of all-empty entries at the given offset,
// terminal (next_block == 0).
func NewEmptyBlock(offset BlockOffset) Block {
	return Block{Offset: offset}
}

// NewRootBlock returns the root directory's first block with "." and ".."
// installed as self-references at slots 0 and 1.
func NewRootBlock() (Block, error) {
	b := NewEmptyBlock(BlockOffset(RootChainOffset))
	self, err := NewDirectoryEntry([]byte(CurrentDirName), ChainOffset(RootChainOffset))
	if err != nil {
		return Block{}, err
	}
	parent, err := NewDirectoryEntry([]byte(ParentDirName), ChainOffset(RootChainOffset))
	if err != nil {
		return Block{}, err
	}
	b.Entries[0] = self
	b.Entries[1] = parent
	return b, nil
}

// NewDirectoryBlock returns a new non-root directory's first block, with
// "." pointing at self and ".." pointing at parent.
func NewDirectoryBlock(self, parent ChainOffset) (Block, error) {
	b := NewEmptyBlock(BlockOffset(self))
	selfEntry, err := NewDirectoryEntry([]byte(CurrentDirName), self)
	if err != nil {
		return Block{}, err
	}
	parentEntry, err := NewDirectoryEntry([]byte(ParentDirName), parent)
	if err != nil {
		return Block{}, err
	}
	b.Entries[0] = selfEntry
	b.Entries[1] = parentEntry
	return b, nil
}

// NextBlock returns this block's next_block pointer (from the terminal
// slot), or 0 if this block is the last in its chain.
func (b *Block) NextBlock() uint64 {
	return b.Entries[EntriesPerBlock-1].NextBlock
}

// SetNextBlock rewrites this block's next_block pointer, i.e. links it to
// the next block in the chain.
func (b *Block) SetNextBlock(offset BlockOffset) {
	b.Entries[EntriesPerBlock-1].NextBlock = uint64(offset)
}

// Encode writes the block's plaintext on-disk representation (before any
// cipher is applied) into buf, which must be at least BlockSizeBytes bytes.
func (b *Block) Encode(buf []byte) error {
	if len(buf) < BlockSizeBytes {
		return fmt.Errorf("pk2format: block buffer too small: %d < %d", len(buf), BlockSizeBytes)
	}
	for i := range b.Entries {
		terminal := i == EntriesPerBlock-1
		off := i * EntrySize
		if err := b.Entries[i].Encode(buf[off:off+EntrySize], terminal); err != nil {
			return fmt.Errorf("pk2format: encoding entry slot %d: %w", i, err)
		}
	}
	return nil
}

// DecodeBlock parses a Block from buf (already decrypted, if the archive is
// encrypted), which must be at least BlockSizeBytes bytes.
func DecodeBlock(buf []byte, offset BlockOffset) (Block, error) {
	var b Block
	if len(buf) < BlockSizeBytes {
		return b, fmt.Errorf("%w: block needs %d bytes, got %d", ErrShortRead, BlockSizeBytes, len(buf))
	}
	b.Offset = offset
	for i := range b.Entries {
		terminal := i == EntriesPerBlock-1
		off := i * EntrySize
		entry, err := DecodeEntry(buf[off:off+EntrySize], terminal)
		if err != nil {
			return Block{}, fmt.Errorf("pk2format: decoding entry slot %d: %w", i, err)
		}
		b.Entries[i] = entry
	}
	return b, nil
}
