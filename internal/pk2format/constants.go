// Package pk2format implements the on-disk byte layout of the PK2 archive
// format: the header, directory block and entry structures, the
// little-endian Blowfish cipher used to obfuscate directory blocks, and the
// in-memory block-chain index that resolves paths to entries. It is
// sans-I/O: every decode/encode operates on byte slices already in memory,
// leaving the storage engine (internal/engine) to own the seekable stream.
package pk2format

// HeaderSize is the fixed size, in bytes, of the archive header.
const HeaderSize = 256

// Version is the only supported archive format version.
const Version uint32 = 0x01000002

// Signature is the fixed ASCII string every valid archive begins with,
// NUL-padded to fill its 30-byte field.
var Signature = [30]byte{'J', 'o', 'y', 'M', 'a', 'x', ' ', 'F', 'i', 'l', 'e', ' ', 'M', 'a', 'n', 'a', 'g', 'e', 'r', '!', '\n'}

const (
	// EntrySize is the fixed size, in bytes, of a single directory entry
	// slot, including its (mostly-zero) next_block pointer.
	EntrySize = 128
	// EntriesPerBlock is the number of entry slots in a single block.
	EntriesPerBlock = 20
	// BlockSizeBytes is the fixed size, in bytes, of a single directory block:
	// EntriesPerBlock entries of EntrySize bytes each.
	BlockSizeBytes = EntrySize * EntriesPerBlock

	// NameSize is the size, in bytes, of an entry's name field.
	NameSize = 81
)

// EntryKind identifies what a directory entry slot holds.
type EntryKind uint8

const (
	KindEmpty     EntryKind = 0
	KindDirectory EntryKind = 1
	KindFile      EntryKind = 2
)

func (k EntryKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "invalid"
	}
}

func (k EntryKind) valid() bool {
	return k == KindEmpty || k == KindDirectory || k == KindFile
}

// CurrentDirName and ParentDirName are the fixed names occupying slots 0
// and 1 of every directory chain's first block.
const (
	CurrentDirName = "."
	ParentDirName  = ".."
)

// RootChainOffset is the stream offset of the root directory's chain: the
// first byte after the header.
const RootChainOffset StreamOffset = HeaderSize
