package engine

import (
	"fmt"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// allocateChain appends a brand-new single-block chain at stream end with
// "." and ".." installed, pointing self at its own (about-to-exist) offset
// and ".." at parent (spec §4.5 "Allocate chain").
func (e *Engine) allocateChain(parent pk2format.ChainOffset) (*pk2format.Chain, error) {
	offset, err := e.stream.Len()
	if err != nil {
		return nil, fmt.Errorf("engine: measuring stream for new chain: %w", err)
	}
	self := pk2format.ChainOffset(offset)
	block, err := pk2format.NewDirectoryBlock(self, parent)
	if err != nil {
		return nil, fmt.Errorf("engine: building directory block: %w", err)
	}
	if err := e.appendBlock(block); err != nil {
		return nil, fmt.Errorf("engine: allocating chain: %w", err)
	}
	chain := pk2format.NewChain([]pk2format.Block{block})
	e.index.Insert(chain)
	e.logger.Debug("allocated chain", "offset", self, "parent", parent)
	return chain, nil
}

// extendChain allocates a new all-empty block at stream end, links the
// chain's current terminal block to it via next_block, and appends it to
// the in-memory chain (spec §4.5 "Extend chain"). The chain keeps its
// ChainOffset; only the slice of blocks grows.
func (e *Engine) extendChain(chain *pk2format.Chain) (*pk2format.Block, error) {
	offset, err := e.stream.Len()
	if err != nil {
		return nil, fmt.Errorf("engine: measuring stream for block extension: %w", err)
	}
	newBlock := pk2format.NewEmptyBlock(pk2format.BlockOffset(offset))
	if err := e.appendBlock(newBlock); err != nil {
		return nil, fmt.Errorf("engine: allocating block: %w", err)
	}

	last := chain.LastBlock()
	last.SetNextBlock(newBlock.Offset)
	if err := e.writeBlock(*last); err != nil {
		return nil, fmt.Errorf("engine: linking previous terminal block: %w", err)
	}

	chain.Blocks = append(chain.Blocks, newBlock)
	e.logger.Debug("extended chain", "chain", chain.ChainOffset(), "new_block", newBlock.Offset)
	return &chain.Blocks[len(chain.Blocks)-1], nil
}

// allocateSlot returns a ref to a usable entry slot in chain, extending the
// chain by one block first if it's currently full (spec: "a chain that
// fills exactly 20 entries triggers a new-block allocation on the 21st
// create").
func (e *Engine) allocateSlot(chain *pk2format.Chain) (pk2format.EntryRef, error) {
	if ref, ok := chain.FirstEmptySlot(); ok {
		return ref, nil
	}
	if _, err := e.extendChain(chain); err != nil {
		return pk2format.EntryRef{}, err
	}
	ref, ok := chain.FirstEmptySlot()
	if !ok {
		// Unreachable: extendChain always appends a block of all-empty
		// entries, so slot 0 of the new block is free.
		panic("engine: no empty slot immediately after extending chain")
	}
	return ref, nil
}

// allocatePayload appends data to the end of the stream and returns the
// offset it landed at (spec §4.5 "Write discipline": file payloads are
// appended, never encrypted).
func (e *Engine) allocatePayload(data []byte) (uint64, error) {
	offset, err := e.stream.Append(data)
	if err != nil {
		return 0, fmt.Errorf("engine: appending payload: %w", err)
	}
	return offset, nil
}
