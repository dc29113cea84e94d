// Package format houses the low-level layout of in-memory param tables. It
// knows where the row count, the type tag and the row descriptor array live,
// and nothing about what the row bytes mean.
package format

// ParamTable header layout (little-endian):
//
//	0x00  pad[0x0A]
//	0x0A  u16  num_rows
//	0x0C  pad[0x04]
//	0x10  u64  param_type_offset (relative to the table start)
//	0x18  pad[0x28]
//	0x40  ParamRowInfo[num_rows]
//
// ParamRowInfo layout (24 bytes):
//
//	0x00  u64  row_id
//	0x08  u64  param_offset      (row data, relative to the table start)
//	0x10  u64  param_end_offset
const (
	// NumRowsOffset is the offset of the u16 row count.
	NumRowsOffset = 0x0A

	// TypeOffsetOffset is the offset of the u64 pointer to the param type string.
	TypeOffsetOffset = 0x10

	// HeaderSize is the fixed part of a table preceding the row descriptors.
	HeaderSize = 0x40

	// RowInfoOffset is where the row descriptor array begins.
	RowInfoOffset = HeaderSize

	// RowInfoSize is the size of one ParamRowInfo record.
	RowInfoSize = 0x18

	// RowIDOffset, RowDataOffset and RowEndOffset locate the fields within a
	// ParamRowInfo record.
	RowIDOffset   = 0x00
	RowDataOffset = 0x08
	RowEndOffset  = 0x10

	// MaxRows is the largest row count the u16 field can express.
	MaxRows = 0xFFFF

	// MaxTypeLen bounds the scan for the NUL terminator of the type string.
	MaxTypeLen = 0x100
)

// RowInfoAt returns the offset of the i-th row descriptor.
func RowInfoAt(i int) int {
	return RowInfoOffset + i*RowInfoSize
}
