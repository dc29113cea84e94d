package patch

import (
	"fmt"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/pkg/types"
)

// RowFunc mutates one row in place.
type RowFunc func(row []byte) error

// Apply patches a single row of a param under the named patch: it resolves
// the param and row, gets or creates the patch, begins the row, runs fn and
// finalizes. Nothing is opened when the param or row is unknown.
//
// The row is finalized even when fn fails, since fn may already have
// written part of it; fn's error is then returned.
func Apply(txn *Txn, patchName, paramName string, rowID uint64, fn RowFunc) error {
	if err := txn.check(); err != nil {
		return err
	}
	info, ok := txn.m.reg.Info(paramName)
	if !ok {
		return types.Wrap(types.ErrNotFound, fmt.Errorf("param %q", paramName))
	}
	idx := info.Table.IndexOf(rowID)
	if idx == -1 {
		return types.Wrap(types.ErrNotFound, fmt.Errorf("param %q row %d", paramName, rowID))
	}
	p, err := txn.GetOrCreate(patchName)
	if err != nil {
		return err
	}
	return applyRow(txn, p, info, idx, func(_ param.Row, data []byte) error { return fn(data) })
}

// ApplyAll runs fn over every row of a param under the named patch. A param
// with no rows is a no-op and does not create the patch. Iteration stops at
// the first error from fn, after that row has been finalized.
func ApplyAll(txn *Txn, patchName, paramName string, fn func(row param.Row, data []byte) error) error {
	return ApplyWhere(txn, patchName, paramName, nil, fn)
}

// ApplyWhere is ApplyAll restricted to the rows for which match returns
// true. Rows that do not match are never begun, so they are not recorded in
// the patch. The patch is created when the first row matches; a nil match
// selects every row.
func ApplyWhere(txn *Txn, patchName, paramName string, match func(param.Row) (bool, error), fn func(row param.Row, data []byte) error) error {
	if err := txn.check(); err != nil {
		return err
	}
	info, ok := txn.m.reg.Info(paramName)
	if !ok {
		return types.Wrap(types.ErrNotFound, fmt.Errorf("param %q", paramName))
	}

	var p *Patch
	for row := range info.Table.Rows() {
		if match != nil {
			ok, err := match(row)
			if err != nil {
				return fmt.Errorf("param %q row %d: %w", paramName, row.ID, err)
			}
			if !ok {
				continue
			}
		}
		if p == nil {
			var err error
			if p, err = txn.GetOrCreate(patchName); err != nil {
				return err
			}
		}
		if err := applyRow(txn, p, info, row.Index, fn); err != nil {
			return err
		}
	}
	return nil
}

func applyRow(txn *Txn, p *Patch, info *param.Info, idx int, fn func(param.Row, []byte) error) error {
	data, err := txn.BeginRow(info.Index, idx)
	if err != nil {
		return err
	}
	row, _ := info.Table.RowAt(idx)
	fnErr := fn(row, data)
	if err := txn.FinalizeRow(p, info.Index, idx); err != nil {
		return joinErr(fnErr, err)
	}
	if fnErr != nil {
		return fmt.Errorf("param %q row %d: %w", info.Name, row.ID, fnErr)
	}
	return nil
}
