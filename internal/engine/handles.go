package engine

import (
	"fmt"
	"io"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// ReadHandle exposes Read+Seek over a file's payload range (spec §4.6). It
// re-acquires the engine's guard on every call and holds no lock across
// them.
type ReadHandle struct {
	engine *Engine
	base   uint64
	size   int64
	pos    int64
}

// Read implements io.Reader, never reading past the entry's declared size.
func (h *ReadHandle) Read(p []byte) (int, error) {
	if h.pos >= h.size {
		return 0, io.EOF
	}
	n := int64(len(p))
	if remaining := h.size - h.pos; n > remaining {
		n = remaining
	}
	buf := p[:n]

	h.engine.guard.RLock()
	err := h.engine.stream.ReadAt(h.base+uint64(h.pos), buf)
	h.engine.guard.RUnlock()
	if err != nil {
		return 0, fmt.Errorf("engine: reading payload: %w", err)
	}
	h.pos += n
	return int(n), nil
}

// Seek implements io.Seeker against the entry's logical [0, size) range.
func (h *ReadHandle) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = h.pos + offset
	case io.SeekEnd:
		target = h.size + offset
	default:
		return 0, fmt.Errorf("engine: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("engine: negative seek position %d", target)
	}
	h.pos = target
	return h.pos, nil
}

// Size returns the file's declared payload length.
func (h *ReadHandle) Size() int64 { return h.size }

// WriteHandle accumulates written bytes in memory and applies them to the
// stream only on Flush/Close (spec §4.5, §9 "buffered write handles"). A
// handle dropped without a Flush discards its buffered data, matching the
// core's stated cancellation model.
type WriteHandle struct {
	engine *Engine
	chain  *pk2format.Chain
	ref    pk2format.EntryRef
	buf    []byte
	closed bool
}

// Write appends p to the handle's internal buffer. It never touches the
// stream; call Flush or Close to persist.
func (h *WriteHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("engine: write to a closed handle")
	}
	h.buf = append(h.buf, p...)
	return len(p), nil
}

// Flush applies the buffered payload to the stream and rewrites the entry
// (spec §4.5 "Create file / open for write" flush algorithm): appends and
// relocates if the payload grew beyond the entry's original capacity,
// otherwise overwrites the original region in place.
func (h *WriteHandle) Flush() error {
	e := h.engine
	e.guard.Lock()
	defer e.guard.Unlock()

	original := *h.chain.Entry(h.ref)
	var position uint64
	neverAllocated := original.Size == 0 && original.Position == 0
	if uint64(len(h.buf)) > uint64(original.Size) || neverAllocated {
		var err error
		position, err = e.allocatePayload(h.buf)
		if err != nil {
			return fmt.Errorf("engine: flushing new payload region: %w", err)
		}
	} else {
		position = original.Position
		if err := e.stream.WriteAt(position, h.buf); err != nil {
			return fmt.Errorf("engine: flushing payload in place: %w", err)
		}
	}

	updated := original
	updated.Position = position
	updated.Size = uint32(len(h.buf))
	updated.ModifyTime = pk2format.Now()
	if err := e.writeEntrySlot(h.chain, h.ref, updated); err != nil {
		return fmt.Errorf("engine: rewriting entry after flush: %w", err)
	}
	return nil
}

// Close flushes any buffered data and marks the handle closed. Calling
// Close more than once is a no-op.
func (h *WriteHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.Flush()
}
