package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/dirty"
	"github.com/joshuapare/paramkit/param/loader"
	"github.com/joshuapare/paramkit/param/manifest"
	"github.com/joshuapare/paramkit/param/patch"
	"github.com/spf13/cobra"
)

var (
	applyRevert     bool
	applyPermissive bool
)

func init() {
	cmd := newApplyCmd()
	cmd.Flags().BoolVar(&applyRevert, "revert", false,
		"Restore the manifest's patches after applying them, leaving the files unchanged")
	cmd.Flags().BoolVar(&applyPermissive, "permissive", false,
		"Allow restoring a patch whose rows a newer patch also edited")
	rootCmd.AddCommand(cmd)
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest> <file>...",
		Short: "Apply a patch manifest to table images",
		Long: `The apply command loads a YAML patch manifest and applies each patch to the
named tables. Each table is registered under its file name without the
extension. Modified rows are written back to the files.

If any patch fails, every patch created by the manifest is rolled back and
the files are left as they were.

Example:
  paramctl apply buffs.yaml SpEffectParam.param
  paramctl apply buffs.yaml SpEffectParam.param --revert --verbose`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), args)
		},
	}
}

type applyOutput struct {
	Patches  []manifest.Result `json:"patches"`
	Reverted int               `json:"reverted,omitempty"`
}

func runApply(ctx context.Context, args []string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	mf, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	m, err := manifest.Load(mf)
	mf.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	reg := param.NewRegistry()
	tracker := dirty.NewTracker()
	for _, path := range args[1:] {
		f, err := loader.Open(path, loader.Options{RowSize: rowSize})
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		if _, err := f.Register(reg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		f.Track(tracker)
		printVerbose("Loaded %s (%d rows)\n", f.Name(), f.Table().NumRows())
	}

	policy := patch.RestoreStrict
	if applyPermissive {
		policy = patch.RestorePermissive
	}
	mgr := patch.New(reg, patch.Options{
		Logger:        newLogger(),
		RestorePolicy: policy,
		Tracker:       tracker,
	})

	out := applyOutput{}
	out.Patches, err = m.Apply(ctx, mgr)
	if err != nil {
		return err
	}
	if applyRevert {
		if out.Reverted, err = m.Revert(ctx, mgr); err != nil {
			return err
		}
	}
	if err := tracker.Flush(ctx); err != nil {
		return fmt.Errorf("write back: %w", err)
	}

	if jsonOut {
		return printJSON(out)
	}
	for _, r := range out.Patches {
		printInfo("%s %s: %d rows of %s\n", good("patched"), r.Name, r.Rows, r.Param)
	}
	if applyRevert {
		printInfo("%s %d patches\n", warn("reverted"), out.Reverted)
	}
	return nil
}
