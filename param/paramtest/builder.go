// Package paramtest builds param table images for tests.
package paramtest

import (
	"github.com/joshuapare/paramkit/internal/format"
)

// Builder assembles a table image: header, row descriptors, row data packed
// back to back, then the NUL-terminated type tag.
type Builder struct {
	Type    string
	RowSize int
	ids     []uint64
	rows    [][]byte
}

// New returns a builder for rows of rowSize bytes.
func New(typ string, rowSize int) *Builder {
	return &Builder{Type: typ, RowSize: rowSize}
}

// Row appends a row. data is zero-padded or truncated to RowSize.
func (b *Builder) Row(id uint64, data ...byte) *Builder {
	row := make([]byte, b.RowSize)
	copy(row, data)
	b.ids = append(b.ids, id)
	b.rows = append(b.rows, row)
	return b
}

// Bytes returns a freshly allocated table image.
func (b *Builder) Bytes() []byte {
	n := len(b.ids)
	dataStart := format.RowInfoAt(n)
	typeStart := dataStart + n*b.RowSize
	out := make([]byte, typeStart+len(b.Type)+1)

	format.PutU16(out, format.NumRowsOffset, uint16(n))
	if b.Type != "" {
		format.PutU64(out, format.TypeOffsetOffset, uint64(typeStart))
		copy(out[typeStart:], b.Type)
	}
	for i, id := range b.ids {
		desc := format.RowInfoAt(i)
		off := dataStart + i*b.RowSize
		format.PutU64(out, desc+format.RowIDOffset, id)
		format.PutU64(out, desc+format.RowDataOffset, uint64(off))
		format.PutU64(out, desc+format.RowEndOffset, uint64(typeStart))
		copy(out[off:], b.rows[i])
	}
	return out
}
