package textenc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// Identity is the pass-through UTF-8 codec: an archive's names are its raw
// on-disk bytes with no conversion at all.
type Identity struct{}

// Encode returns name's UTF-8 bytes unchanged, rejecting names that don't
// fit the on-disk name field or that contain an embedded NUL (spec §6).
func (Identity) Encode(name string) ([]byte, error) {
	b := []byte(name)
	if len(b) > pk2format.NameSize {
		return nil, fmt.Errorf("%w: %q is %d bytes, max %d", ErrInvalidName, name, len(b), pk2format.NameSize)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return b, nil
}

// Decode returns raw as a string, substituting U+FFFD for any byte sequence
// that isn't valid UTF-8 (an archive produced by a non-conforming tool).
func (Identity) Decode(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}
