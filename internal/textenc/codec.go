// Package textenc provides the pluggable name-encoding capability spec §6
// calls for: the core format/engine packages never decode or encode entry
// names themselves, they take an EncodeNameFunc supplied by whichever Codec
// is installed on the façade.
package textenc

import "errors"

// ErrInvalidName is returned by Encode when a name cannot be represented in
// the codec's native encoding, or exceeds the on-disk name field's capacity.
var ErrInvalidName = errors.New("textenc: invalid name")

// Codec converts between a path component's UTF-8 form and the archive's
// native on-disk name bytes.
type Codec interface {
	// Encode converts a UTF-8 string into raw name bytes (at most
	// pk2format.NameSize long). Returns ErrInvalidName if the string can't
	// be represented, or encodes too long, in this codec.
	Encode(name string) ([]byte, error)
	// Decode converts raw on-disk name bytes back to a UTF-8 string for
	// display. Always succeeds; malformed input is replaced with U+FFFD.
	Decode(raw []byte) string
}
