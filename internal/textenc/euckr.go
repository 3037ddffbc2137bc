package textenc

import (
	"fmt"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/ossyrian/pk2kit/internal/pk2format"
)

// EUCKR is the encoding most Silkroad Online archives actually use for
// Korean filenames, via golang.org/x/text/encoding/korean.
type EUCKR struct{}

// Encode converts name to EUC-KR bytes, rejecting characters the encoding
// can't represent with ErrInvalidName (spec §6: "encode rejects strings
// containing unrepresentable characters").
func (EUCKR) Encode(name string) ([]byte, error) {
	b, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not representable in EUC-KR: %v", ErrInvalidName, name, err)
	}
	if len(b) > pk2format.NameSize {
		return nil, fmt.Errorf("%w: %q is %d bytes in EUC-KR, max %d", ErrInvalidName, name, len(b), pk2format.NameSize)
	}
	return b, nil
}

// Decode converts raw EUC-KR bytes to UTF-8. The korean.EUCKR transformer
// substitutes U+FFFD for malformed byte sequences rather than erroring
// (spec §6), so any transform error here is from a truncated trailing byte
// and the partial output up to that point is still returned.
func (EUCKR) Decode(raw []byte) string {
	out, _, _ := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
	return string(out)
}
