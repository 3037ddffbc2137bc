package engine

import (
	"fmt"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// EncodeNameFunc converts a path component from its decoded UTF-8 form into
// the archive's native storage encoding. The façade supplies the installed
// textenc codec's Encode method here; the engine has no opinion on encoding.
type EncodeNameFunc func(string) ([]byte, error)

// isTerminalSlot reports whether ref is the last slot of its block, the one
// slot whose next_block field is meaningful.
func isTerminalSlot(ref pk2format.EntryRef) bool {
	return ref.SlotIndex == pk2format.EntriesPerBlock-1
}

// writeEntrySlot installs entry into chain at ref, preserving the slot's
// chain-link field if it's terminal, then rewrites the whole containing
// block (spec §4.5 "Write discipline": no partial-block encryption).
func (e *Engine) writeEntrySlot(chain *pk2format.Chain, ref pk2format.EntryRef, entry pk2format.Entry) error {
	if isTerminalSlot(ref) {
		entry.NextBlock = chain.Entry(ref).NextBlock
	}
	*chain.Entry(ref) = entry
	return e.writeBlock(chain.Blocks[ref.BlockIndex])
}

// resolveDirChain walks components from root, creating any missing
// directory along the way (used by CreateFile/CreateDirectory, which must
// create intermediate directories as needed per spec §4.5).
func (e *Engine) resolveDirChain(components []string, encodeName EncodeNameFunc) (*pk2format.Chain, error) {
	current, ok := e.index.Get(pk2format.ChainOffset(pk2format.RootChainOffset))
	if !ok {
		return nil, fmt.Errorf("engine: root chain is not indexed")
	}
	for _, name := range components {
		encoded, err := encodeName(name)
		if err != nil {
			return nil, err
		}
		_, entry, found := current.FindByName(encoded)
		if found {
			if entry.Kind != pk2format.KindDirectory {
				return nil, &pk2format.PathError{Path: name, Err: pk2format.ErrNotADirectory}
			}
			child, ok := e.index.Get(pk2format.ChainOffset(entry.Position))
			if !ok {
				return nil, fmt.Errorf("engine: chain at %v referenced by %q is not indexed", entry.Position, name)
			}
			current = child
			continue
		}

		child, err := e.createDirectoryIn(current, encoded)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// createDirectoryIn allocates a new chain and installs a directory entry
// for it into parent (spec §4.5 "Create directory").
func (e *Engine) createDirectoryIn(parent *pk2format.Chain, encodedName []byte) (*pk2format.Chain, error) {
	child, err := e.allocateChain(parent.ChainOffset())
	if err != nil {
		return nil, fmt.Errorf("engine: allocating directory chain: %w", err)
	}

	ref, err := e.allocateSlot(parent)
	if err != nil {
		return nil, fmt.Errorf("engine: allocating directory entry slot: %w", err)
	}
	entry, err := pk2format.NewDirectoryEntry(encodedName, child.ChainOffset())
	if err != nil {
		return nil, fmt.Errorf("engine: building directory entry: %w", err)
	}
	if err := e.writeEntrySlot(parent, ref, entry); err != nil {
		return nil, fmt.Errorf("engine: writing directory entry: %w", err)
	}
	return child, nil
}

// CreateDirectory creates path, including any missing intermediate
// directories, and fails with ErrAlreadyExists if the full path already
// names an entry.
func (e *Engine) CreateDirectory(path string, encodeName EncodeNameFunc) error {
	e.guard.Lock()
	defer e.guard.Unlock()

	components, err := pk2format.Components(path)
	if err != nil {
		return err
	}
	parent, err := e.resolveDirChain(components[:len(components)-1], encodeName)
	if err != nil {
		return err
	}
	name, err := encodeName(components[len(components)-1])
	if err != nil {
		return err
	}
	if _, _, found := parent.FindByName(name); found {
		return &pk2format.PathError{Path: path, Err: pk2format.ErrAlreadyExists}
	}
	_, err = e.createDirectoryIn(parent, name)
	if err != nil {
		return err
	}
	e.logger.Info("created directory", "path", path)
	return nil
}

// CreateFile resolves (creating as needed) the parent directory, allocates
// an empty entry slot, writes an empty file entry, and returns a write
// handle positioned to append payload on flush.
func (e *Engine) CreateFile(path string, encodeName EncodeNameFunc) (*WriteHandle, error) {
	e.guard.Lock()
	defer e.guard.Unlock()

	components, err := pk2format.Components(path)
	if err != nil {
		return nil, err
	}
	parent, err := e.resolveDirChain(components[:len(components)-1], encodeName)
	if err != nil {
		return nil, err
	}
	name, err := encodeName(components[len(components)-1])
	if err != nil {
		return nil, err
	}
	if ref, existing, found := parent.FindByName(name); found {
		if existing.Kind != pk2format.KindFile {
			return nil, &pk2format.PathError{Path: path, Err: pk2format.ErrIsADirectory}
		}
		return &WriteHandle{engine: e, chain: parent, ref: ref}, nil
	}

	ref, err := e.allocateSlot(parent)
	if err != nil {
		return nil, fmt.Errorf("engine: allocating file entry slot: %w", err)
	}
	entry, err := pk2format.NewFileEntry(name, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("engine: building file entry: %w", err)
	}
	if err := e.writeEntrySlot(parent, ref, entry); err != nil {
		return nil, fmt.Errorf("engine: writing file entry: %w", err)
	}
	e.logger.Info("created file", "path", path)
	return &WriteHandle{engine: e, chain: parent, ref: ref}, nil
}

// OpenFileForWrite resolves an existing file and returns a write handle
// whose flush overwrites in place when the new payload fits in the
// original capacity, or appends a fresh region otherwise (spec §4.5).
func (e *Engine) OpenFileForWrite(path string, encodeName EncodeNameFunc) (*WriteHandle, error) {
	e.guard.Lock()
	defer e.guard.Unlock()

	components, err := pk2format.Components(path)
	if err != nil {
		return nil, err
	}
	parent, err := e.resolveDirChain(components[:len(components)-1], encodeName)
	if err != nil {
		return nil, err
	}
	name, err := encodeName(components[len(components)-1])
	if err != nil {
		return nil, err
	}
	ref, entry, found := parent.FindByName(name)
	if !found {
		return nil, &pk2format.PathError{Path: path, Err: pk2format.ErrNotFound}
	}
	if entry.Kind != pk2format.KindFile {
		return nil, &pk2format.PathError{Path: path, Err: pk2format.ErrIsADirectory}
	}
	return &WriteHandle{engine: e, chain: parent, ref: ref}, nil
}

// OpenFileForRead resolves path to a file entry and returns a handle
// exposing Read+Seek over its payload range.
func (e *Engine) OpenFileForRead(path string, encodeName EncodeNameFunc) (*ReadHandle, error) {
	e.guard.RLock()
	defer e.guard.RUnlock()

	resolved, err := e.index.Resolve(pk2format.ChainOffset(pk2format.RootChainOffset), path, pk2format.ResolveFile, encodeName)
	if err != nil {
		return nil, err
	}
	entry := resolved.Chain.Entry(resolved.Ref)
	return &ReadHandle{engine: e, base: entry.Position, size: int64(entry.Size)}, nil
}

// DeleteFile resolves path to a file entry and flips it to empty in place,
// abandoning the payload region (spec §4.5 "Delete file").
func (e *Engine) DeleteFile(path string, encodeName EncodeNameFunc) error {
	e.guard.Lock()
	defer e.guard.Unlock()

	resolved, err := e.index.Resolve(pk2format.ChainOffset(pk2format.RootChainOffset), path, pk2format.ResolveFile, encodeName)
	if err != nil {
		return err
	}
	if err := e.writeEntrySlot(resolved.Chain, resolved.Ref, pk2format.Entry{}); err != nil {
		return fmt.Errorf("engine: clearing file entry: %w", err)
	}
	e.logger.Info("deleted file", "path", path)
	return nil
}

// DeleteDirectory resolves path to a directory entry and, if its chain
// holds nothing but "." and "..", flips the entry to empty in place (spec
// §4.5 "Delete directory"). Fails with ErrDirectoryNotEmpty otherwise.
func (e *Engine) DeleteDirectory(path string, encodeName EncodeNameFunc) error {
	e.guard.Lock()
	defer e.guard.Unlock()

	resolved, err := e.index.Resolve(pk2format.ChainOffset(pk2format.RootChainOffset), path, pk2format.ResolveDirectory, encodeName)
	if err != nil {
		return err
	}
	entry := resolved.Chain.Entry(resolved.Ref)
	child, ok := e.index.Get(pk2format.ChainOffset(entry.Position))
	if !ok {
		return fmt.Errorf("engine: chain at %v for %q is not indexed", entry.Position, path)
	}
	if !child.IsEmptyDirectory() {
		return &pk2format.PathError{Path: path, Err: pk2format.ErrDirectoryNotEmpty}
	}
	if err := e.writeEntrySlot(resolved.Chain, resolved.Ref, pk2format.Entry{}); err != nil {
		return fmt.Errorf("engine: clearing directory entry: %w", err)
	}
	e.logger.Info("deleted directory", "path", path)
	return nil
}
