package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshuapare/paramkit/param/loader"
	"github.com/spf13/cobra"
)

var infoBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(0, 1)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Display table information",
		Long: `The info command shows the header of a param table image: its type tag,
row count, row size, and the range of row IDs.

Example:
  paramctl info SpEffectParam.param
  paramctl info SpEffectParam.param --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type tableInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Rows    int    `json:"rows"`
	RowSize int    `json:"row_size"`
	Bytes   int    `json:"bytes"`
	FirstID uint64 `json:"first_id,omitempty"`
	LastID  uint64 `json:"last_id,omitempty"`
}

func runInfo(args []string) error {
	f, err := loader.Open(args[0], loader.Options{ReadOnly: true, RowSize: rowSize})
	if err != nil {
		return err
	}
	defer f.Close()

	tbl := f.Table()
	info := tableInfo{
		Name:    f.Name(),
		Path:    f.Path(),
		Type:    tbl.Type(),
		Rows:    tbl.NumRows(),
		RowSize: tbl.RowSize(),
		Bytes:   len(tbl.Bytes()),
	}
	if first, ok := tbl.RowAt(0); ok {
		info.FirstID = first.ID
	}
	if last, ok := tbl.RowAt(tbl.NumRows() - 1); ok {
		info.LastID = last.ID
	}

	if jsonOut {
		return printJSON(info)
	}

	lines := []string{
		fmt.Sprintf("%s %s", label("Param:"), info.Name),
		fmt.Sprintf("%s %s", label("Type:"), info.Type),
		fmt.Sprintf("%s %d", label("Rows:"), info.Rows),
		fmt.Sprintf("%s %d bytes", label("Row size:"), info.RowSize),
	}
	if info.Rows > 0 {
		lines = append(lines, fmt.Sprintf("%s %d..%d", label("IDs:"), info.FirstID, info.LastID))
	}
	printInfo("%s\n", infoBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	printVerbose("%s %s (%d bytes)\n", label("File:"), info.Path, info.Bytes)
	return nil
}

