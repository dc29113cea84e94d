package format

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// utf16le matches the host's wchar_t strings: little-endian, no BOM.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeName converts a host param name (UTF-16LE, optionally NUL terminated)
// to a Go string.
func DecodeName(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("%w: odd length %d", ErrBadName, len(raw))
	}
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			raw = raw[:i]
			break
		}
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadName, err)
	}
	return string(out), nil
}

// EncodeName converts name to UTF-16LE without a terminator.
func EncodeName(name string) ([]byte, error) {
	out, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadName, err)
	}
	return out, nil
}

// ReadType returns the NUL-terminated ASCII type tag at off. The scan stops
// at MaxTypeLen bytes or the end of b.
func ReadType(b []byte, off int) (string, error) {
	if off < 0 || off >= len(b) {
		return "", ErrTruncated
	}
	end := min(off+MaxTypeLen, len(b))
	s := b[off:end]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		return string(s[:i]), nil
	}
	return "", fmt.Errorf("%w: unterminated type tag at 0x%X", ErrCorrupt, off)
}
