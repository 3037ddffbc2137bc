// Package pk2 is a path-addressed façade over a PK2 archive: the
// Silkroad Online single-file virtual filesystem whose directory tree, file
// metadata, and payloads all live in one stream, with directory blocks
// obfuscated by a salted little-endian Blowfish variant (spec §1, §4.6).
//
// The on-disk format, cipher, and block-chain index live in
// internal/pk2format; allocation and mutation live in internal/engine. This
// package wires the two together behind Open/Create and presents
// io.Reader/Writer/Seeker-shaped File handles plus directory listing, the
// way the reference erofs and sarchive archive libraries expose a root
// package over their own internal layout.
package pk2

import (
	"errors"
	"fmt"

	"github.com/ossyrian/pk2kit/internal/engine"
	"github.com/ossyrian/pk2kit/internal/pk2format"
	"github.com/ossyrian/pk2kit/internal/textenc"
)

// DefaultKey is the Blowfish key every shipping Silkroad Online client uses
// when none is configured explicitly.
const DefaultKey = "169841"

// Stream is the abstract seekable byte stream an Archive is opened against;
// an alias for engine.Stream so callers never need to import internal/engine
// themselves.
type Stream = engine.Stream

// NewFileStream and NewMemStream are re-exported Stream constructors for the
// common cases: a real file, or an in-memory buffer.
var (
	NewFileStream = engine.NewFileStream
	NewMemStream  = engine.NewMemStream
)

// Archive is an open PK2 archive: a stream, its chain index, and the
// installed name codec.
type Archive struct {
	eng   *engine.Engine
	codec textenc.Codec
}

type options struct {
	codec  textenc.Codec
	guard  engine.Guard
	logger engine.Logger
}

func defaultOptions() options {
	return options{
		codec: textenc.Identity{},
		guard: engine.NewSharedExclusiveGuard(),
	}
}

// Option configures Open/Create.
type Option func(*options)

// WithCodec installs the name codec used to convert between path components
// and on-disk name bytes. Defaults to textenc.Identity (UTF-8 pass-through).
func WithCodec(c textenc.Codec) Option { return func(o *options) { o.codec = c } }

// WithGuard installs the concurrency guard serializing stream access (spec
// §5). Defaults to a shared-exclusive sync.RWMutex-backed guard; pass
// engine.NewSingleThreadedGuard() for a cheaper non-atomic guard when the
// Archive never crosses goroutines.
func WithGuard(g engine.Guard) Option { return func(o *options) { o.guard = g } }

// WithLogger installs an engine.Logger for operational tracing (block
// allocations, chain extensions, fragmentation events). Nil by default: the
// core stays silent unless a caller opts in.
func WithLogger(l engine.Logger) Option { return func(o *options) { o.logger = l } }

// Open opens an existing archive on stream. key is required (and validated
// against the header's verify block) whenever the archive was created
// encrypted; pass nil for a plaintext archive.
func Open(stream Stream, key []byte, opts ...Option) (*Archive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	eng, err := engine.Open(stream, key, o.guard, o.logger)
	if err != nil {
		return nil, err
	}
	return &Archive{eng: eng, codec: o.codec}, nil
}

// Create initializes a brand-new archive on stream: a header and a
// single-block root chain with "." and ".." self-references. If key is
// non-empty the archive is created encrypted and key is required on every
// subsequent Open.
func Create(stream Stream, key []byte, opts ...Option) (*Archive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	eng, err := engine.Create(stream, key, o.guard, o.logger)
	if err != nil {
		return nil, err
	}
	return &Archive{eng: eng, codec: o.codec}, nil
}

// Encrypted reports whether the archive was opened/created with a cipher.
func (a *Archive) Encrypted() bool { return a.eng.Encrypted() }

func (a *Archive) encodeName(name string) ([]byte, error) {
	b, err := a.codec.Encode(name)
	if err != nil {
		return nil, fmt.Errorf("pk2: %w", err)
	}
	return b, nil
}

// Open opens path for reading. The returned File is positioned at offset 0
// of the entry's payload and supports Read and Seek.
func (a *Archive) Open(path string) (*File, error) {
	h, err := a.eng.OpenFileForRead(path, a.encodeName)
	if err != nil {
		return nil, err
	}
	return &File{read: h}, nil
}

// Create creates path (and any missing intermediate directories) and
// returns a File positioned to write a new payload on Close/Flush. If path
// already names a file, its content is replaced; if it names a directory,
// ErrIsADirectory is returned.
func (a *Archive) Create(path string) (*File, error) {
	h, err := a.eng.CreateFile(path, a.encodeName)
	if err != nil {
		return nil, err
	}
	return &File{write: h}, nil
}

// OpenWrite opens an existing file for overwrite: writes replace the file's
// content on Close/Flush, reusing its payload region in place when the new
// content still fits, or allocating a fresh region otherwise (spec §4.5).
// The handle starts empty; there is no append mode that keeps the existing
// content.
func (a *Archive) OpenWrite(path string) (*File, error) {
	h, err := a.eng.OpenFileForWrite(path, a.encodeName)
	if err != nil {
		return nil, err
	}
	return &File{write: h}, nil
}

// Mkdir creates path as a directory, including any missing intermediate
// directories.
func (a *Archive) Mkdir(path string) error {
	return a.eng.CreateDirectory(path, a.encodeName)
}

// Remove deletes the file at path. The payload region is abandoned, not
// reclaimed (spec §3 "Lifecycle").
func (a *Archive) Remove(path string) error {
	return a.eng.DeleteFile(path, a.encodeName)
}

// RemoveDir deletes the directory at path, which must contain no entries
// besides "." and ".." (ErrDirectoryNotEmpty otherwise).
func (a *Archive) RemoveDir(path string) error {
	return a.eng.DeleteDirectory(path, a.encodeName)
}

// MkdirAll is sugar for Mkdir that treats "already exists as a directory"
// as success, matching os.MkdirAll's contract.
func (a *Archive) MkdirAll(path string) error {
	err := a.Mkdir(path)
	if err == nil {
		return nil
	}
	var pe *pk2format.PathError
	if errors.As(err, &pe) && errors.Is(pe.Err, pk2format.ErrAlreadyExists) {
		a.eng.Guard().RLock()
		defer a.eng.Guard().RUnlock()
		root := pk2format.ChainOffset(pk2format.RootChainOffset)
		if _, rerr := a.eng.Index().Resolve(root, path, pk2format.ResolveDirectory, a.encodeName); rerr != nil {
			return err
		}
		return nil
	}
	return err
}
