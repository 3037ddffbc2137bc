package pk2format

import (
	"bytes"
	"errors"
	"fmt"
)

// Lookup errors produced while resolving a path against the chain index.
// PathError below carries the offending path for callers that want to
// report it; match with errors.Is against the bare sentinels here.
var (
	ErrNotFound          = errors.New("pk2format: path not found")
	ErrNotADirectory     = errors.New("pk2format: path component is not a directory")
	ErrIsADirectory      = errors.New("pk2format: path refers to a directory")
	ErrDirectoryNotEmpty = errors.New("pk2format: directory is not empty")
	ErrAlreadyExists     = errors.New("pk2format: path already exists")
	ErrInvalidPath       = errors.New("pk2format: invalid path")
)

// PathError wraps one of the sentinels above with the path that triggered
// it, matching both errors.Is(err, ErrNotFound) and callers that want the
// Path field back out.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("pk2format: %s: %s", e.Path, e.Err) }
func (e *PathError) Unwrap() error { return e.Err }

// Index is the in-memory mapping from a chain's ChainOffset to its loaded
// Chain, populated eagerly at open time by transitive discovery from the
// root. It never models parent links as in-memory cycles: "." and ".."
// are stored offsets resolved by lookup, not pointers, so the index is
// always a flat map regardless of how deep the tree is.
type Index struct {
	chains map[ChainOffset]*Chain
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{chains: make(map[ChainOffset]*Chain)}
}

// Insert adds a loaded chain to the index under its own ChainOffset.
func (idx *Index) Insert(c *Chain) {
	idx.chains[c.ChainOffset()] = c
}

// Get returns the chain at offset, if indexed.
func (idx *Index) Get(offset ChainOffset) (*Chain, bool) {
	c, ok := idx.chains[offset]
	return c, ok
}

// Has reports whether offset is already indexed, used by the transitive
// discovery walk in the storage engine to avoid re-reading or cycling on
// "." / ".." references.
func (idx *Index) Has(offset ChainOffset) bool {
	_, ok := idx.chains[offset]
	return ok
}

// Len returns the number of indexed chains.
func (idx *Index) Len() int { return len(idx.chains) }

// Components splits a '/'- or '\\'-separated path into its non-empty
// components. Empty segments (from leading, trailing or repeated
// separators) are dropped, not rejected; an empty path, a path with no
// components, or a path containing a NUL byte is ErrInvalidPath.
func Components(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if bytes.IndexByte([]byte(path), 0) >= 0 {
		return nil, fmt.Errorf("%w: path contains a NUL byte", ErrInvalidPath)
	}
	raw := bytes.FieldsFunc([]byte(path), func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: path has no components", ErrInvalidPath)
	}
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = string(b)
	}
	return out, nil
}

// ResolveKind tells Resolve what the final path component is expected to
// be, so it can return NotADirectory/IsADirectory precisely.
type ResolveKind int

const (
	// ResolveAny accepts either a file or a directory as the final
	// component.
	ResolveAny ResolveKind = iota
	ResolveFile
	ResolveDirectory
)

// Resolved describes where a path landed: the chain containing the final
// entry, and that entry's slot within it. For a directory target, the
// caller typically also wants the child chain itself (look it up via
// Entry.Position once you have this).
type Resolved struct {
	Chain *Chain
	Ref   EntryRef
}

// Resolve walks path from the root chain, following directory entries
// through the index one component at a time. encodeName converts a path
// component into the raw storage-encoding bytes entries are compared
// against; callers pass the installed codec's Encode function.
func (idx *Index) Resolve(root ChainOffset, path string, kind ResolveKind, encodeName func(string) ([]byte, error)) (Resolved, error) {
	components, err := Components(path)
	if err != nil {
		return Resolved{}, err
	}

	current, ok := idx.Get(root)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: root chain 0x%x is not indexed", ErrInvalidPath, root)
	}

	for i, name := range components {
		encoded, err := encodeName(name)
		if err != nil {
			return Resolved{}, err
		}
		ref, entry, ok := current.FindByName(encoded)
		if !ok {
			return Resolved{}, &PathError{Path: path, Err: ErrNotFound}
		}

		last := i == len(components)-1
		if !last {
			if entry.Kind != KindDirectory {
				return Resolved{}, &PathError{Path: path, Err: ErrNotADirectory}
			}
			child, ok := idx.Get(ChainOffset(entry.Position))
			if !ok {
				return Resolved{}, fmt.Errorf("%w: chain 0x%x referenced by %q is not indexed", ErrInvalidPath, entry.Position, name)
			}
			current = child
			continue
		}

		switch kind {
		case ResolveFile:
			if entry.Kind != KindFile {
				return Resolved{}, &PathError{Path: path, Err: ErrIsADirectory}
			}
		case ResolveDirectory:
			if entry.Kind != KindDirectory {
				return Resolved{}, &PathError{Path: path, Err: ErrNotADirectory}
			}
		}
		return Resolved{Chain: current, Ref: ref}, nil
	}

	// Unreachable: components is always non-empty per Components().
	return Resolved{}, &PathError{Path: path, Err: ErrInvalidPath}
}

// ResolveDirChain walks path to a directory and returns its chain directly
// (used for opening a directory for listing, or as the parent chain during
// creation).
func (idx *Index) ResolveDirChain(root ChainOffset, path string, encodeName func(string) ([]byte, error)) (*Chain, error) {
	current, ok := idx.Get(root)
	if !ok {
		return nil, fmt.Errorf("%w: root chain 0x%x is not indexed", ErrInvalidPath, root)
	}
	if path == "" || path == "/" || path == "\\" {
		return current, nil
	}
	components, err := Components(path)
	if err != nil {
		return nil, err
	}
	for _, name := range components {
		encoded, err := encodeName(name)
		if err != nil {
			return nil, err
		}
		_, entry, ok := current.FindByName(encoded)
		if !ok {
			return nil, &PathError{Path: path, Err: ErrNotFound}
		}
		if entry.Kind != KindDirectory {
			return nil, &PathError{Path: path, Err: ErrNotADirectory}
		}
		child, ok := idx.Get(ChainOffset(entry.Position))
		if !ok {
			return nil, fmt.Errorf("%w: chain 0x%x referenced by %q is not indexed", ErrInvalidPath, entry.Position, name)
		}
		current = child
	}
	return current, nil
}
