package pk2

import (
	"time"

	"github.com/samber/lo"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// EntryKind distinguishes a directory entry's on-disk kind at the façade
// level (spec §3 Entry.kind, minus the empty slots ReadDir already filters
// out).
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDirectory
)

func (k EntryKind) String() string {
	if k == EntryDirectory {
		return "directory"
	}
	return "file"
}

// DirEntry describes one child of a directory, as yielded by ReadDir: its
// decoded display name, kind, and metadata (spec §4.6 "(decoded_name, kind,
// metadata) tuples skipping empty slots").
type DirEntry struct {
	Name       string
	Kind       EntryKind
	Size       uint32
	AccessTime time.Time
	CreateTime time.Time
	ModifyTime time.Time
}

// ReadDir lists the contents of the directory at path, skipping empty slots
// and the "." / ".." self-references every chain carries.
func (a *Archive) ReadDir(path string) ([]DirEntry, error) {
	a.eng.Guard().RLock()
	defer a.eng.Guard().RUnlock()

	chain, err := a.eng.Index().ResolveDirChain(pk2format.ChainOffset(pk2format.RootChainOffset), path, a.encodeName)
	if err != nil {
		return nil, err
	}

	var refs []*pk2format.Entry
	chain.Entries(func(_ pk2format.EntryRef, e *pk2format.Entry) bool {
		refs = append(refs, e)
		return true
	})
	live := lo.Filter(refs, func(e *pk2format.Entry, _ int) bool {
		if e.IsEmpty() {
			return false
		}
		name := string(e.RawName())
		return name != pk2format.CurrentDirName && name != pk2format.ParentDirName
	})
	return lo.Map(live, func(e *pk2format.Entry, _ int) DirEntry {
		kind := EntryFile
		if e.Kind == pk2format.KindDirectory {
			kind = EntryDirectory
		}
		return DirEntry{
			Name:       a.codec.Decode(e.RawName()),
			Kind:       kind,
			Size:       e.Size,
			AccessTime: e.AccessTime.Time(),
			CreateTime: e.CreateTime.Time(),
			ModifyTime: e.ModifyTime.Time(),
		}
	}), nil
}
