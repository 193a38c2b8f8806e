// package textenc turns text into the uppercase hexadecimal byte strings used in lyric provider URLs.
package textenc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// ErrMalformedHex is returned by [DecodeHex] for odd-length input or non-hex digits.
var ErrMalformedHex = fmt.Errorf("malformed hex string")

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// UTF8Hex encodes every byte of the UTF-8 form of text as two uppercase hex digits.
//
// The output is always exactly twice as long as len(text).
func UTF8Hex(text string) string {
	return upperHex([]byte(text))
}

// UTF16LEHex encodes text as UTF-16 little endian, drops the leading byte order mark,
// then hex encodes the remaining bytes like [UTF8Hex].
//
// Returns "" when the encoded form is shorter than two bytes.
func UTF16LEHex(text string) string {
	encoded, err := utf16LE.NewEncoder().Bytes([]byte(text))
	if err != nil || len(encoded) < 2 {
		return ""
	}
	return upperHex(encoded[2:])
}

// DecodeHex converts a hex string (either case) back into bytes.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}
	return b, nil
}

// IsHex reports whether s can be decoded by [DecodeHex].
func IsHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func upperHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
