package main

import (
	"github.com/joshuapare/paramkit/param/loader"
	"github.com/spf13/cobra"
)

var rowsLimit int

func init() {
	cmd := newRowsCmd()
	cmd.Flags().IntVarP(&rowsLimit, "limit", "n", 0, "Maximum number of rows to list (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newRowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rows <file>",
		Short: "List rows in a table",
		Long: `The rows command lists the rows of a param table image in table order with
their IDs and data offsets.

Example:
  paramctl rows SpEffectParam.param
  paramctl rows SpEffectParam.param -n 20 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRows(args)
		},
	}
}

type rowEntry struct {
	ID     uint64 `json:"id"`
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

func runRows(args []string) error {
	f, err := loader.Open(args[0], loader.Options{ReadOnly: true, RowSize: rowSize})
	if err != nil {
		return err
	}
	defer f.Close()

	var entries []rowEntry
	for row := range f.Table().Rows() {
		if rowsLimit > 0 && len(entries) >= rowsLimit {
			break
		}
		entries = append(entries, rowEntry{ID: row.ID, Index: row.Index, Offset: row.Offset, Size: row.Size})
	}

	if jsonOut {
		if entries == nil {
			entries = []rowEntry{}
		}
		return printJSON(entries)
	}

	printVerbose("%s (%d rows)\n", f.Name(), f.Table().NumRows())
	for _, e := range entries {
		printInfo("%6d  %s %-10d  %s 0x%08X\n", e.Index, label("id"), e.ID, label("at"), e.Offset)
	}
	return nil
}
