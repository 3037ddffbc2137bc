package engine

import (
	"fmt"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// Engine owns the seekable stream and the chain index, and is the only
// thing in this module that performs I/O. Every exported method acquires
// the guard for its entire stream-touching critical section.
type Engine struct {
	stream Stream
	cipher *pk2format.Cipher // nil for a plaintext archive
	index  *pk2format.Index
	guard  Guard
	logger Logger
	header pk2format.Header
}

func logger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// Open reads and validates the header, derives and verifies the cipher from
// key (if the archive is encrypted), and builds the chain index by
// transitive discovery from the root.
func Open(stream Stream, key []byte, guard Guard, log Logger) (*Engine, error) {
	log = logger(log)

	buf := make([]byte, pk2format.HeaderSize)
	if err := stream.ReadAt(0, buf); err != nil {
		return nil, fmt.Errorf("engine: reading header: %w", err)
	}
	header, err := pk2format.DecodeHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("engine: decoding header: %w", err)
	}
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("engine: validating header: %w", err)
	}

	e := &Engine{stream: stream, index: pk2format.NewIndex(), guard: guard, logger: log, header: header}

	if header.Encrypted {
		cipher, err := pk2format.NewCipher(pk2format.DeriveKey(key))
		if err != nil {
			return nil, fmt.Errorf("engine: deriving cipher: %w", err)
		}
		if !cipher.VerifyKey(header.Verify) {
			return nil, pk2format.ErrInvalidKey
		}
		e.cipher = cipher
	}

	if err := e.discover(); err != nil {
		return nil, fmt.Errorf("engine: discovering chains: %w", err)
	}
	log.Info("opened archive", "encrypted", header.Encrypted, "chains", e.index.Len())
	return e, nil
}

// Create writes a fresh header and a single-block root chain. key is
// ignored (the archive is written unencrypted) if nil/empty.
func Create(stream Stream, key []byte, guard Guard, log Logger) (*Engine, error) {
	log = logger(log)

	e := &Engine{stream: stream, index: pk2format.NewIndex(), guard: guard, logger: log}

	var header pk2format.Header
	if len(key) > 0 {
		cipher, err := pk2format.NewCipher(pk2format.DeriveKey(key))
		if err != nil {
			return nil, fmt.Errorf("engine: deriving cipher: %w", err)
		}
		e.cipher = cipher
		header = pk2format.NewEncryptedHeader(cipher)
	} else {
		header = pk2format.NewHeader()
	}
	e.header = header

	headerBuf := make([]byte, pk2format.HeaderSize)
	if err := header.Encode(headerBuf); err != nil {
		return nil, fmt.Errorf("engine: encoding header: %w", err)
	}
	if _, err := stream.Append(headerBuf); err != nil {
		return nil, fmt.Errorf("engine: writing header: %w", err)
	}

	root, err := pk2format.NewRootBlock()
	if err != nil {
		return nil, fmt.Errorf("engine: building root block: %w", err)
	}
	if err := e.appendBlock(root); err != nil {
		return nil, fmt.Errorf("engine: writing root block: %w", err)
	}
	e.index.Insert(pk2format.NewChain([]pk2format.Block{root}))

	log.Info("created archive", "encrypted", header.Encrypted)
	return e, nil
}

// readBlock reads and decodes the block at offset, decrypting first if the
// archive is encrypted.
func (e *Engine) readBlock(offset pk2format.BlockOffset) (pk2format.Block, error) {
	buf := make([]byte, pk2format.BlockSizeBytes)
	if err := e.stream.ReadAt(uint64(offset), buf); err != nil {
		return pk2format.Block{}, fmt.Errorf("%w: reading block at %v: %v", pk2format.ErrShortRead, offset, err)
	}
	if e.cipher != nil {
		if err := e.cipher.Decrypt(buf); err != nil {
			return pk2format.Block{}, fmt.Errorf("engine: decrypting block at %v: %w", offset, err)
		}
	}
	return pk2format.DecodeBlock(buf, offset)
}

// writeBlock encodes and (if encrypted) encrypts block, then writes it to
// its own offset in the stream.
func (e *Engine) writeBlock(block pk2format.Block) error {
	buf := make([]byte, pk2format.BlockSizeBytes)
	if err := block.Encode(buf); err != nil {
		return fmt.Errorf("engine: encoding block at %v: %w", block.Offset, err)
	}
	if e.cipher != nil {
		if err := e.cipher.Encrypt(buf); err != nil {
			return fmt.Errorf("engine: encrypting block at %v: %w", block.Offset, err)
		}
	}
	if err := e.stream.WriteAt(uint64(block.Offset), buf); err != nil {
		return fmt.Errorf("engine: writing block at %v: %w", block.Offset, err)
	}
	return nil
}

// appendBlock is writeBlock for a block that does not yet exist in the
// stream: it appends rather than writing at a known offset. block.Offset
// must already be the current end of the stream; the offset the append
// lands at is checked against it, and a mismatch is an error.
func (e *Engine) appendBlock(block pk2format.Block) error {
	buf := make([]byte, pk2format.BlockSizeBytes)
	if err := block.Encode(buf); err != nil {
		return fmt.Errorf("engine: encoding block: %w", err)
	}
	if e.cipher != nil {
		if err := e.cipher.Encrypt(buf); err != nil {
			return fmt.Errorf("engine: encrypting block: %w", err)
		}
	}
	offset, err := e.stream.Append(buf)
	if err != nil {
		return fmt.Errorf("engine: appending block: %w", err)
	}
	if offset != uint64(block.Offset) {
		return fmt.Errorf("engine: appended block landed at %d, expected %d", offset, block.Offset)
	}
	return nil
}

// loadChain reads every block in the chain starting at offset, following
// next_block pointers until a terminal block (next_block == 0).
func (e *Engine) loadChain(offset pk2format.ChainOffset) (*pk2format.Chain, error) {
	var blocks []pk2format.Block
	cur := pk2format.BlockOffset(offset)
	first := true
	for {
		block, err := e.readBlock(cur)
		if err != nil {
			if !first {
				return nil, fmt.Errorf("%w: next_block %v: %w", ErrDanglingNextBlock, cur, err)
			}
			return nil, err
		}
		first = false
		blocks = append(blocks, block)
		next := block.NextBlock()
		if next == 0 {
			break
		}
		cur = pk2format.BlockOffset(next)
	}
	return pk2format.NewChain(blocks), nil
}

// discover performs transitive discovery from the root chain offset (spec
// §4.4): load the root, enumerate its directory entries, and recurse into
// each one not already indexed.
func (e *Engine) discover() error {
	return e.discoverChain(pk2format.ChainOffset(pk2format.RootChainOffset))
}

func (e *Engine) discoverChain(offset pk2format.ChainOffset) error {
	if e.index.Has(offset) {
		return nil
	}
	chain, err := e.loadChain(offset)
	if err != nil {
		return fmt.Errorf("loading chain at %v: %w", offset, err)
	}
	e.index.Insert(chain)
	e.logger.Debug("discovered chain", "offset", offset, "blocks", len(chain.Blocks))

	var childErr error
	chain.Entries(func(_ pk2format.EntryRef, ent *pk2format.Entry) bool {
		if ent.IsEmpty() || ent.Kind != pk2format.KindDirectory {
			return true
		}
		name := string(ent.RawName())
		if name == pk2format.CurrentDirName || name == pk2format.ParentDirName {
			return true
		}
		childErr = e.discoverChain(pk2format.ChainOffset(ent.Position))
		return childErr == nil
	})
	return childErr
}

// Index exposes the chain index for read-only callers (the façade package
// resolves paths against it directly under the engine's guard).
func (e *Engine) Index() *pk2format.Index { return e.index }

// Guard exposes the engine's guard so the façade can hold it across a
// multi-step operation (e.g. resolve-then-read) without a second export.
func (e *Engine) Guard() Guard { return e.guard }

// Header returns the archive's parsed header.
func (e *Engine) Header() pk2format.Header { return e.header }

// Encrypted reports whether the archive was opened/created with a cipher.
func (e *Engine) Encrypted() bool { return e.cipher != nil }
