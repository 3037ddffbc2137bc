package engine

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

func identity(name string) ([]byte, error) { return []byte(name), nil }

func mustCreate(t *testing.T, key []byte) *Engine {
	t.Helper()
	e, err := Create(NewMemStream(), key, NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return e
}

func TestCreateThenOpenRoundTrip(t *testing.T) {
	stream := NewMemStream()
	_, err := Create(stream, []byte("169841"), NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	e, err := Open(stream, []byte("169841"), NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.Index().Len() != 1 {
		t.Fatalf("Index().Len() = %d, want 1 (root only)", e.Index().Len())
	}
}

func TestOpenPlaintextArchiveIgnoresKey(t *testing.T) {
	stream := NewMemStream()
	if _, err := Create(stream, nil, NewSingleThreadedGuard(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	e, err := Open(stream, nil, NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.Encrypted() {
		t.Fatal("plaintext archive reported Encrypted() == true")
	}
}

func TestCreateFileWriteReadRoundTrip(t *testing.T) {
	e := mustCreate(t, nil)

	wh, err := e.CreateFile("/foo.txt", identity)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := wh.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rh, err := e.OpenFileForRead("/foo.txt", identity)
	if err != nil {
		t.Fatalf("OpenFileForRead: %v", err)
	}
	got, err := io.ReadAll(rh)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

// The root chain's first block reserves slots 0 and 1 for "." and "..", so
// only 18 of its 20 slots are available for files; the 19th file forces a
// new block (spec: "a chain that fills exactly 20 entries triggers a
// new-block allocation on the 21st create" — for the root chain specifically
// that's the 19th *file*, since two slots are already spoken for).
func TestChainExtendsWhenFirstBlockFillsUp(t *testing.T) {
	e := mustCreate(t, nil)

	for i := 0; i < 18; i++ {
		name := string([]byte{'f', byte('a' + i)})
		if _, err := e.CreateFile("/"+name, identity); err != nil {
			t.Fatalf("create entry %d: %v", i, err)
		}
	}

	root, ok := e.Index().Get(pk2format.ChainOffset(pk2format.RootChainOffset))
	if !ok {
		t.Fatal("root chain not indexed")
	}
	if len(root.Blocks) != 1 {
		t.Fatalf("root has %d blocks after 18 files (+ '.'/'..' = 20 slots used), want 1", len(root.Blocks))
	}
	if _, ok := root.FirstEmptySlot(); ok {
		t.Fatal("root chain should be full after 18 files plus '.' and '..'")
	}

	if _, err := e.CreateFile("/overflow", identity); err != nil {
		t.Fatalf("create overflow entry: %v", err)
	}
	root, _ = e.Index().Get(pk2format.ChainOffset(pk2format.RootChainOffset))
	if len(root.Blocks) != 2 {
		t.Fatalf("root has %d blocks after overflow entry, want 2", len(root.Blocks))
	}
	ref, _, found := root.FindByName([]byte("overflow"))
	if !found || ref.BlockIndex != 1 || ref.SlotIndex != 0 {
		t.Fatalf("overflow entry at %+v, want block 1 slot 0", ref)
	}
}

// TestOpenDanglingNextBlockIsShortRead corrupts a chain's terminal
// next_block pointer to reference an offset past the end of the stream, and
// checks that reopening surfaces ErrShortRead through ErrDanglingNextBlock
// (spec: opening "will fail on a dangling next_block with ShortRead").
func TestOpenDanglingNextBlockIsShortRead(t *testing.T) {
	stream := NewMemStream()
	e, err := Create(stream, nil, NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 19; i++ {
		name := string([]byte{'f', byte('a' + i)})
		if _, err := e.CreateFile("/"+name, identity); err != nil {
			t.Fatalf("create entry %d: %v", i, err)
		}
	}

	root, ok := e.Index().Get(pk2format.ChainOffset(pk2format.RootChainOffset))
	if !ok || len(root.Blocks) != 2 {
		t.Fatalf("root has %d blocks, want 2 (setup assumption broken)", len(root.Blocks))
	}

	terminal := root.Blocks[1]
	streamLen, _ := stream.Len()
	terminal.SetNextBlock(pk2format.BlockOffset(streamLen + pk2format.BlockSizeBytes))
	buf := make([]byte, pk2format.BlockSizeBytes)
	if err := terminal.Encode(buf); err != nil {
		t.Fatalf("Encode corrupted terminal block: %v", err)
	}
	if err := stream.WriteAt(uint64(terminal.Offset), buf); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	if _, err := Open(stream, nil, NewSingleThreadedGuard(), nil); !errors.Is(err, pk2format.ErrShortRead) {
		t.Fatalf("Open with dangling next_block: got %v, want ErrShortRead", err)
	}
}

func TestDeleteFileThenReopenDoesNotResurrect(t *testing.T) {
	stream := NewMemStream()
	e, err := Create(stream, nil, NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	wh, err := e.CreateFile("/gone.txt", identity)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := wh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.DeleteFile("/gone.txt", identity); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	e2, err := Open(stream, nil, NewSingleThreadedGuard(), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := e2.OpenFileForRead("/gone.txt", identity); !errors.Is(err, pk2format.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestOverwriteInPlaceWhenItFits(t *testing.T) {
	e := mustCreate(t, nil)

	wh, err := e.CreateFile("/f", identity)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := wh.Write(bytes.Repeat([]byte{1}, 100)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wh.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rh, err := e.OpenFileForRead("/f", identity)
	if err != nil {
		t.Fatalf("OpenFileForRead: %v", err)
	}
	originalPosition := rh.base

	wh2, err := e.OpenFileForWrite("/f", identity)
	if err != nil {
		t.Fatalf("OpenFileForWrite: %v", err)
	}
	if _, err := wh2.Write(bytes.Repeat([]byte{2}, 50)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wh2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rh2, err := e.OpenFileForRead("/f", identity)
	if err != nil {
		t.Fatalf("OpenFileForRead: %v", err)
	}
	if rh2.base != originalPosition {
		t.Fatalf("shrinking overwrite relocated the payload: %d != %d", rh2.base, originalPosition)
	}
}
