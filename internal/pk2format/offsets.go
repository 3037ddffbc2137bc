package pk2format

import "fmt"

// StreamOffset addresses a byte position in the archive's underlying
// stream. It is the common currency every other offset type is built from.
type StreamOffset uint64

func (o StreamOffset) String() string {
	return fmt.Sprintf("0x%x", uint64(o))
}

// BlockOffset is the StreamOffset of a single 2560-byte directory block. It
// is a defined type, not an alias, so the compiler catches a block offset
// and a chain offset being passed for one another: a chain's identity is
// always its first block's offset, but not every BlockOffset is a chain's
// first block, and the two must never be interchangeable by accident.
type BlockOffset StreamOffset

func (o BlockOffset) String() string { return StreamOffset(o).String() }

// ChainOffset is the StreamOffset of the first block of a directory chain.
// It never changes for the lifetime of the chain and is the chain's stable
// identity in the ChainIndex. Also a defined type for the same reason as
// BlockOffset.
type ChainOffset StreamOffset

func (o ChainOffset) String() string { return StreamOffset(o).String() }
