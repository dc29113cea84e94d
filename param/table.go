package param

import (
	"fmt"
	"iter"
	"slices"

	"github.com/joshuapare/paramkit/internal/buf"
	"github.com/joshuapare/paramkit/internal/format"
	"github.com/joshuapare/paramkit/pkg/types"
)

// Row identifies one row of a table. It is resolved from the live
// descriptor array on every lookup and must not be cached across calls.
type Row struct {
	ID     uint64 // row identifier (not necessarily sorted)
	Index  int    // position in the descriptor array
	Offset int    // start of the row data, relative to the table
	Size   int    // length of the row data in bytes
}

// Table is a view over a host-owned param table image. The zero value and a
// nil *Table behave as a table with no rows.
type Table struct {
	data     []byte
	rowSize  int
	typ      string
	readOnly bool
}

// Parse validates a table image and returns a view over it. data is not
// copied: writes through the returned table land in the caller's buffer.
//
// rowSize is the size of one row. Zero infers it from the spacing of the row
// data offsets.
func Parse(data []byte, rowSize int) (*Table, error) {
	if len(data) < format.HeaderSize {
		return nil, types.Wrap(types.ErrCorrupt,
			fmt.Errorf("%w: header needs %d bytes, have %d", format.ErrTruncated, format.HeaderSize, len(data)))
	}
	if rowSize < 0 {
		return nil, types.Wrap(types.ErrCorrupt, fmt.Errorf("negative row size %d", rowSize))
	}

	n := int(format.ReadU16(data, format.NumRowsOffset))
	if _, err := buf.CheckArrayBounds(len(data), format.RowInfoOffset, n, format.RowInfoSize); err != nil {
		return nil, types.Wrap(types.ErrCorrupt, fmt.Errorf("%w: row descriptors: %w", format.ErrTruncated, err))
	}

	t := &Table{data: data, rowSize: rowSize}

	if typOff, ok := buf.Uint64ToInt(format.ReadU64(data, format.TypeOffsetOffset)); ok && typOff != 0 {
		typ, err := format.ReadType(data, typOff)
		if err != nil {
			return nil, types.Wrap(types.ErrCorrupt, fmt.Errorf("type tag: %w", err))
		}
		t.typ = typ
	}

	if t.rowSize == 0 && n > 0 {
		size, err := inferRowSize(data, n)
		if err != nil {
			return nil, err
		}
		t.rowSize = size
	}

	for i := range n {
		off, ok := buf.Uint64ToInt(format.ReadU64(data, format.RowInfoAt(i)+format.RowDataOffset))
		if !ok || !buf.Has(data, off, t.rowSize) {
			return nil, types.Wrap(types.ErrCorrupt,
				fmt.Errorf("%w: row %d data at 0x%X+%d outside %d-byte table", format.ErrCorrupt, i, off, t.rowSize, len(data)))
		}
	}
	return t, nil
}

// ParseReadOnly is Parse for images that must not be written, such as
// read-only mappings. Patch sessions refuse to open rows of such tables.
func ParseReadOnly(data []byte, rowSize int) (*Table, error) {
	t, err := Parse(data, rowSize)
	if err != nil {
		return nil, err
	}
	t.readOnly = true
	return t, nil
}

// inferRowSize returns the smallest gap between distinct row data offsets.
// A table with a single row is measured against the type string, or the end
// of the buffer when the type string precedes the row.
func inferRowSize(data []byte, n int) (int, error) {
	offs := make([]int, 0, n+1)
	for i := range n {
		off, ok := buf.Uint64ToInt(format.ReadU64(data, format.RowInfoAt(i)+format.RowDataOffset))
		if !ok || off >= len(data) {
			return 0, types.Wrap(types.ErrCorrupt, fmt.Errorf("%w: row %d data offset 0x%X", format.ErrCorrupt, i, off))
		}
		offs = append(offs, off)
	}
	slices.Sort(offs)
	offs = slices.Compact(offs)

	end := len(data)
	if typOff, ok := buf.Uint64ToInt(format.ReadU64(data, format.TypeOffsetOffset)); ok && typOff > offs[len(offs)-1] && typOff < end {
		end = typOff
	}
	size := end - offs[len(offs)-1]
	for i := 1; i < len(offs); i++ {
		size = min(size, offs[i]-offs[i-1])
	}
	if size <= 0 {
		return 0, types.Wrap(types.ErrCorrupt, fmt.Errorf("%w: cannot infer row size", format.ErrCorrupt))
	}
	return size, nil
}

// Bytes returns the whole table image.
func (t *Table) Bytes() []byte {
	if t == nil {
		return nil
	}
	return t.data
}

// Type returns the param type tag, or "" if the table has none.
func (t *Table) Type() string {
	if t == nil {
		return ""
	}
	return t.typ
}

// ReadOnly reports whether the table was parsed with ParseReadOnly.
func (t *Table) ReadOnly() bool {
	return t != nil && t.readOnly
}

// RowSize returns the size of one row in bytes.
func (t *Table) RowSize() int {
	if t == nil {
		return 0
	}
	return t.rowSize
}

// NumRows reads the live row count.
func (t *Table) NumRows() int {
	if t == nil || len(t.data) < format.HeaderSize {
		return 0
	}
	return int(format.ReadU16(t.data, format.NumRowsOffset))
}

// RowAt resolves the row at descriptor position index.
func (t *Table) RowAt(index int) (Row, bool) {
	if t == nil || index < 0 || index >= t.NumRows() {
		return Row{}, false
	}
	desc, ok := buf.Slice(t.data, format.RowInfoAt(index), format.RowInfoSize)
	if !ok {
		return Row{}, false
	}
	off, ok := buf.Uint64ToInt(buf.U64LE(desc[format.RowDataOffset:]))
	if !ok || !buf.Has(t.data, off, t.rowSize) {
		return Row{}, false
	}
	return Row{
		ID:     buf.U64LE(desc[format.RowIDOffset:]),
		Index:  index,
		Offset: off,
		Size:   t.rowSize,
	}, true
}

// Locate scans the descriptors in stored order and returns the first row
// whose identifier equals id.
func (t *Table) Locate(id uint64) (Row, bool) {
	for row := range t.Rows() {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

// IndexOf returns the descriptor position of id, or -1.
func (t *Table) IndexOf(id uint64) int {
	if row, ok := t.Locate(id); ok {
		return row.Index
	}
	return -1
}

// Data returns the live bytes of row. The slice aliases the table and its
// capacity ends at the row boundary. Nil when row lies outside the table.
func (t *Table) Data(row Row) []byte {
	if t == nil {
		return nil
	}
	b, ok := buf.Window(t.data, row.Offset, row.Size)
	if !ok {
		return nil
	}
	return b
}

// Rows returns a lazy iterator over the rows in descriptor order. Each pass
// re-reads the descriptors, so the sequence can be ranged over repeatedly.
func (t *Table) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		n := t.NumRows()
		for i := range n {
			row, ok := t.RowAt(i)
			if !ok {
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}
