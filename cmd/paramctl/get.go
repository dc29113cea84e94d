package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/joshuapare/paramkit/param/loader"
	"github.com/joshuapare/paramkit/pkg/types"
	"github.com/spf13/cobra"
)

var (
	getOffset int
	getLength int
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().IntVar(&getOffset, "offset", 0, "Byte offset within the row")
	cmd.Flags().IntVar(&getLength, "len", 0, "Number of bytes to show (0 = to end of row)")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <row-id>",
		Short: "Dump the bytes of a row",
		Long: `The get command prints the data of one row as a hex dump.

Example:
  paramctl get SpEffectParam.param 100
  paramctl get SpEffectParam.param 100 --offset 8 --len 4
  paramctl get SpEffectParam.param 100 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

type rowDump struct {
	Param  string `json:"param"`
	ID     uint64 `json:"id"`
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Hex    string `json:"hex"`
}

func runGet(args []string) error {
	id, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid row id %q: %w", args[1], err)
	}

	f, err := loader.Open(args[0], loader.Options{ReadOnly: true, RowSize: rowSize})
	if err != nil {
		return err
	}
	defer f.Close()

	tbl := f.Table()
	row, ok := tbl.Locate(id)
	if !ok {
		return types.Wrap(types.ErrNotFound, fmt.Errorf("row %d in %s", id, f.Name()))
	}
	data := tbl.Data(row)

	length := getLength
	if length == 0 {
		length = len(data) - getOffset
	}
	if getOffset < 0 || length < 0 || getOffset > len(data) || length > len(data)-getOffset {
		return fmt.Errorf("range [%d,+%d) outside %d-byte row", getOffset, length, len(data))
	}
	data = data[getOffset : getOffset+length]

	if jsonOut {
		return printJSON(rowDump{
			Param:  f.Name(),
			ID:     row.ID,
			Index:  row.Index,
			Offset: row.Offset + getOffset,
			Hex:    hex.EncodeToString(data),
		})
	}

	printVerbose("%s row %d (index %d) at 0x%08X\n", f.Name(), row.ID, row.Index, row.Offset+getOffset)
	printInfo("%s", hex.Dump(data))
	return nil
}
