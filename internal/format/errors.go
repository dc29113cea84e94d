package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrCorrupt indicates a descriptor points outside the table.
	ErrCorrupt = errors.New("format: corrupt table")
	// ErrBadName indicates a host name that is not valid UTF-16LE.
	ErrBadName = errors.New("format: malformed name")
)
