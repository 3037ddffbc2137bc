package pk2_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ossyrian/pk2kit/internal/pk2format"
	pk2 "github.com/ossyrian/pk2kit"
)

func TestCreateThenReopenReadsFileBack(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, []byte(pk2.DefaultKey))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f, err := a.Create("/foo.txt")
	if err != nil {
		t.Fatalf("Create file: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := pk2.Open(stream, []byte(pk2.DefaultKey))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rf, err := b.Open("/foo.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestOpenWrongKeyFails(t *testing.T) {
	stream := pk2.NewMemStream()
	if _, err := pk2.Create(stream, []byte(pk2.DefaultKey)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := pk2.Open(stream, []byte("wrong"))
	if !errors.Is(err, pk2format.ErrInvalidKey) {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}

func TestNestedDirectoriesAutoCreated(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := bytes.Repeat([]byte{0xAB}, 10000)
	f, err := a.Create("/a/b/c.bin")
	if err != nil {
		t.Fatalf("Create file: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf, err := a.Open("/a/b/c.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch after nested directory creation")
	}
}

func TestDeleteThenCreateReusesSlot(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 21; i++ {
		name := "/f" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		f, err := a.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", name, err)
		}
	}

	if err := a.Remove("/f10"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := a.Create("/g"); err != nil {
		t.Fatalf("Create /g: %v", err)
	}

	entries, err := a.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	if !names["g"] {
		t.Fatal("expected /g to exist after reusing the deleted slot")
	}
	if names["f10"] {
		t.Fatal("expected /f10 to be gone")
	}
	// Listing follows slot order, so the vacated slot is listing position 10.
	if len(entries) != 21 || entries[10].Name != "g" {
		t.Fatalf("expected /g in the slot /f10 vacated (position 10 of 21), got %d entries", len(entries))
	}
}

func TestOverwriteGrowsIntoNewRegion(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f, err := a.Create("/foo.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	before, _ := stream.Len()
	wf, err := a.OpenWrite("/foo.txt")
	if err != nil {
		t.Fatalf("OpenWrite: %v", err)
	}
	if _, err := wf.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := wf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if after, _ := stream.Len(); after != before+10 {
		t.Fatalf("stream length %d after growing overwrite, want %d (new 10-byte region appended)", after, before+10)
	}

	rf, err := a.Open("/foo.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "0123456789" {
		t.Fatalf("got %q, want %q", got, "0123456789")
	}
}

func TestRemoveEmptyDirectoryLeavesDotEntries(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := a.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f, err := a.Create("/d/only.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Remove("/d/only.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := a.RemoveDir("/d"); err != nil {
		t.Fatalf("RemoveDir: %v", err)
	}
}

func TestRemoveNonEmptyDirectoryFails(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := a.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f, err := a.Create("/d/only.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.RemoveDir("/d"); !errors.Is(err, pk2format.ErrDirectoryNotEmpty) {
		t.Fatalf("got %v, want ErrDirectoryNotEmpty", err)
	}
}

func TestEmptyFileReadsEOFImmediately(t *testing.T) {
	stream := pk2.NewMemStream()
	a, err := pk2.Create(stream, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f, err := a.Create("/empty")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	rf, err := a.Open("/empty")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 8)
	n, err := rf.Read(buf)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("got (%d, %v), want (0, io.EOF)", n, err)
	}
}
