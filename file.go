package pk2

import (
	"errors"

	"github.com/ossyrian/pk2kit/internal/engine"
)

// File is a Read/Seek handle over an archive entry's payload (from
// Archive.Open), or a buffered Write handle (from Archive.Create /
// Archive.OpenWrite). A handle opened one way doesn't support the other
// direction: a read handle has no Write method to call, and vice versa
// (spec §4.6: "Read+Seek handles for read, Read+Write+Seek handles for
// write" — in practice callers ask for one or the other up front).
type File struct {
	read  *engine.ReadHandle
	write *engine.WriteHandle
}

var (
	errNotOpenForReading = errors.New("pk2: file not open for reading")
	errNotOpenForWriting = errors.New("pk2: file not open for writing")
)

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	if f.read == nil {
		return 0, errNotOpenForReading
	}
	return f.read.Read(p)
}

// Seek implements io.Seeker over the entry's logical [0, size) range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.read == nil {
		return 0, errNotOpenForReading
	}
	return f.read.Seek(offset, whence)
}

// Write implements io.Writer. Writes accumulate in memory; nothing reaches
// the archive until Flush or Close (spec §9 "buffered write handles").
func (f *File) Write(p []byte) (int, error) {
	if f.write == nil {
		return 0, errNotOpenForWriting
	}
	return f.write.Write(p)
}

// Flush applies buffered writes to the archive without closing the handle.
func (f *File) Flush() error {
	if f.write == nil {
		return errNotOpenForWriting
	}
	return f.write.Flush()
}

// Close flushes any buffered writes. Calling Close on a read handle, or more
// than once on a write handle, is a no-op.
func (f *File) Close() error {
	if f.write != nil {
		return f.write.Close()
	}
	return nil
}

// Size returns the entry's declared payload length. Only meaningful for a
// handle opened for reading; returns 0 for a write handle.
func (f *File) Size() int64 {
	if f.read != nil {
		return f.read.Size()
	}
	return 0
}
