package pk2format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Entry is a single 128-byte slot in a directory block, describing a file,
// a subdirectory, or nothing (kind == KindEmpty).
//
// Name is kept in the archive's native encoding (raw bytes), not decoded to
// UTF-8: decoding is a display/lookup concern handled by the pluggable
// codec capability (internal/textenc), not something the format layer has
// an opinion about.
type Entry struct {
	Kind EntryKind
	// NameBytes holds up to NameSize bytes of the entry's name in the
	// archive's native encoding, NUL-terminated if shorter than NameSize.
	NameBytes [NameSize]byte
	NameLen   int

	AccessTime FILETIME
	CreateTime FILETIME
	ModifyTime FILETIME

	// Position is the payload stream offset for a file, or the child
	// chain's ChainOffset for a directory. Zero for an empty slot.
	Position uint64
	// Size is the file size in bytes. Zero for directories and empty slots.
	Size uint32

	// NextBlock is only meaningful in slot EntriesPerBlock-1 of a block:
	// the StreamOffset of the next block in the chain, or 0 if terminal.
	// Every other slot must encode this as zero.
	NextBlock uint64
}

// RawName returns the entry's name bytes, trimmed to their declared length.
func (e *Entry) RawName() []byte {
	return e.NameBytes[:e.NameLen]
}

// SetRawName stores name as the entry's native-encoding name bytes. It
// enforces the format's name invariants: no more than NameSize bytes, and
// no '/' or '\\' anywhere in the name.
func (e *Entry) SetRawName(name []byte) error {
	if len(name) > NameSize {
		return fmt.Errorf("%w: name is %d bytes, max %d", ErrInvalidName, len(name), NameSize)
	}
	if bytes.IndexByte(name, '/') >= 0 || bytes.IndexByte(name, '\\') >= 0 {
		return fmt.Errorf("%w: name contains a path separator", ErrInvalidName)
	}
	if bytes.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: name contains a NUL byte", ErrInvalidName)
	}
	var buf [NameSize]byte
	copy(buf[:], name)
	e.NameBytes = buf
	e.NameLen = len(name)
	return nil
}

// IsEmpty reports whether this slot holds no entry.
func (e *Entry) IsEmpty() bool { return e.Kind == KindEmpty }

// NewFileEntry builds a file entry with the given name, payload location,
// and timestamps set to now.
func NewFileEntry(name []byte, position uint64, size uint32) (Entry, error) {
	e := Entry{Kind: KindFile, Position: position, Size: size}
	now := Now()
	e.AccessTime, e.CreateTime, e.ModifyTime = now, now, now
	if err := e.SetRawName(name); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// NewDirectoryEntry builds a directory entry pointing at childChain.
func NewDirectoryEntry(name []byte, childChain ChainOffset) (Entry, error) {
	e := Entry{Kind: KindDirectory, Position: uint64(childChain)}
	now := Now()
	e.AccessTime, e.CreateTime, e.ModifyTime = now, now, now
	if err := e.SetRawName(name); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Encode writes this entry's on-disk representation into buf, which must be
// at least EntrySize bytes. isTerminalSlot must be true only for slot
// EntriesPerBlock-1 of a block; the format requires non-terminal slots to
// encode a zero next_block regardless of the Entry's NextBlock field, so
// mutation code never has to remember to clear it by hand.
func (e *Entry) Encode(buf []byte, isTerminalSlot bool) error {
	if len(buf) < EntrySize {
		return fmt.Errorf("pk2format: entry buffer too small: %d < %d", len(buf), EntrySize)
	}
	off := 0
	buf[off] = byte(e.Kind)
	off++
	copy(buf[off:off+NameSize], e.NameBytes[:])
	off += NameSize
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.AccessTime))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.CreateTime))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.ModifyTime))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], e.Position)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:off+4], e.Size)
	off += 4
	nextBlock := uint64(0)
	if isTerminalSlot {
		nextBlock = e.NextBlock
	}
	binary.LittleEndian.PutUint64(buf[off:off+8], nextBlock)
	off += 8
	buf[off], buf[off+1] = 0, 0
	return nil
}

// DecodeEntry parses an Entry from buf, which must be at least EntrySize
// bytes. isTerminalSlot controls whether a nonzero next_block is accepted;
// a nonzero value in a non-terminal slot is ErrInvalidNextBlock.
func DecodeEntry(buf []byte, isTerminalSlot bool) (Entry, error) {
	var e Entry
	if len(buf) < EntrySize {
		return e, fmt.Errorf("%w: entry needs %d bytes, got %d", ErrShortRead, EntrySize, len(buf))
	}
	off := 0
	kind := EntryKind(buf[off])
	if !kind.valid() {
		return e, &InvalidEntryKindError{Byte: buf[off]}
	}
	e.Kind = kind
	off++
	copy(e.NameBytes[:], buf[off:off+NameSize])
	off += NameSize
	if nul := bytes.IndexByte(e.NameBytes[:], 0); nul >= 0 {
		e.NameLen = nul
	} else {
		e.NameLen = NameSize
	}
	e.AccessTime = FILETIME(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	e.CreateTime = FILETIME(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	e.ModifyTime = FILETIME(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	e.Position = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	e.Size = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	nextBlock := binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	if !isTerminalSlot && nextBlock != 0 {
		return e, ErrInvalidNextBlock
	}
	e.NextBlock = nextBlock
	return e, nil
}
