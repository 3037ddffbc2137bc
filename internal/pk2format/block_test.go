package pk2format

import "testing"

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	b, err := NewRootBlock()
	if err != nil {
		t.Fatalf("NewRootBlock: %v", err)
	}

	buf := make([]byte, BlockSizeBytes)
	if err := b.Encode(buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := DecodeBlock(buf, BlockOffset(RootChainOffset))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if got.Offset != BlockOffset(RootChainOffset) {
		t.Fatalf("Offset = %v, want %v", got.Offset, RootChainOffset)
	}
	if got.Entries[0].Kind != KindDirectory || string(got.Entries[0].RawName()) != "." {
		t.Fatalf("slot 0 = %+v, want '.' directory", got.Entries[0])
	}
	if got.Entries[1].Kind != KindDirectory || string(got.Entries[1].RawName()) != ".." {
		t.Fatalf("slot 1 = %+v, want '..' directory", got.Entries[1])
	}
	for i := 2; i < EntriesPerBlock; i++ {
		if !got.Entries[i].IsEmpty() {
			t.Fatalf("slot %d should be empty in a freshly created root block", i)
		}
	}
}

func TestBlockNextBlockLinking(t *testing.T) {
	b := NewEmptyBlock(256)
	if b.NextBlock() != 0 {
		t.Fatal("a freshly created block should be terminal")
	}
	b.SetNextBlock(2816)
	if b.NextBlock() != 2816 {
		t.Fatalf("NextBlock = %d, want 2816", b.NextBlock())
	}

	buf := make([]byte, BlockSizeBytes)
	if err := b.Encode(buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeBlock(buf, 256)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if got.NextBlock() != 2816 {
		t.Fatalf("round-tripped NextBlock = %d, want 2816", got.NextBlock())
	}
}

func TestBlockSizeIsExactly2560(t *testing.T) {
	if BlockSizeBytes != 2560 {
		t.Fatalf("BlockSizeBytes = %d, want 2560", BlockSizeBytes)
	}
}
