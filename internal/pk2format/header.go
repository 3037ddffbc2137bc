package pk2format

import (
	"encoding/binary"
	"fmt"
)

// Header is the 256-byte archive header stored at stream offset 0.
type Header struct {
	Signature [30]byte
	Version   uint32
	Encrypted bool
	// Verify holds the Blowfish encryption of the fixed check plaintext
	// under the archive's key, used to validate a user-supplied key
	// without decrypting any directory data. Zero for plaintext archives.
	Verify [16]byte
	// Reserved is never written except as zeros; readers must ignore
	// whatever garbage a producer left here.
	Reserved [205]byte
}

// NewHeader builds a default plaintext header with the fixed signature and
// version already set.
func NewHeader() Header {
	return Header{Signature: Signature, Version: Version}
}

// NewEncryptedHeader builds a header for a freshly created encrypted
// archive, with its verify field populated from the given cipher.
func NewEncryptedHeader(c *Cipher) Header {
	h := NewHeader()
	h.Encrypted = true
	h.Verify = c.EncryptedCheck()
	return h
}

// Validate checks the signature and version fields, independent of
// encryption/key validity.
func (h *Header) Validate() error {
	if h.Signature != Signature {
		return ErrBadSignature
	}
	if h.Version != Version {
		return &UnsupportedVersionError{Found: h.Version}
	}
	return nil
}

// Encode writes the header's on-disk representation into buf, which must be
// at least HeaderSize bytes.
func (h *Header) Encode(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("pk2format: header buffer too small: %d < %d", len(buf), HeaderSize)
	}
	off := 0
	copy(buf[off:off+30], h.Signature[:])
	off += 30
	binary.LittleEndian.PutUint32(buf[off:off+4], h.Version)
	off += 4
	if h.Encrypted {
		buf[off] = 1
	} else {
		buf[off] = 0
	}
	off++
	copy(buf[off:off+16], h.Verify[:])
	off += 16
	// Writers must zero-fill the reserved region even if this Header
	// carries nonzero bytes read from an archive in the wild.
	for i := off; i < HeaderSize; i++ {
		buf[i] = 0
	}
	return nil
}

// DecodeHeader parses a Header from buf, which must be at least HeaderSize
// bytes. It does not validate signature/version; call Validate for that.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("%w: header needs %d bytes, got %d", ErrShortRead, HeaderSize, len(buf))
	}
	off := 0
	copy(h.Signature[:], buf[off:off+30])
	off += 30
	h.Version = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	h.Encrypted = buf[off] != 0
	off++
	copy(h.Verify[:], buf[off:off+16])
	off += 16
	copy(h.Reserved[:], buf[off:HeaderSize])
	return h, nil
}
