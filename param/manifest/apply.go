package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/joshuapare/paramkit/internal/buf"
	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/patch"
	"github.com/joshuapare/paramkit/pkg/types"
)

// Result summarizes one applied definition.
type Result struct {
	Name  string `json:"name"`
	Param string `json:"param"`
	Rows  int    `json:"rows"`
}

// Apply applies every definition in order under a single lock scope.
//
// Application is all-or-nothing with respect to the patches it creates: if
// any definition fails, the patches this call created are restored, newest
// first, before the error is returned. Patches that were already active and
// merely re-entered keep whatever was written to them.
func (m *Manifest) Apply(ctx context.Context, mgr *patch.Manager) ([]Result, error) {
	var results []Result
	err := mgr.Do(ctx, func(txn *patch.Txn) error {
		var created []string
		for _, d := range m.Patches {
			_, existed := txn.Lookup(d.Name)
			n, err := d.apply(txn, mgr.Registry())
			if !existed {
				if _, ok := txn.Lookup(d.Name); ok {
					created = append(created, d.Name)
				}
			}
			if err != nil {
				return errors.Join(fmt.Errorf("patch %q: %w", d.Name, err), unwind(txn, created))
			}
			results = append(results, Result{Name: d.Name, Param: d.Param, Rows: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Revert restores the manifest's patches in reverse order and returns how
// many were active.
func (m *Manifest) Revert(ctx context.Context, mgr *patch.Manager) (int, error) {
	restored := 0
	err := mgr.Do(ctx, func(txn *patch.Txn) error {
		for _, name := range slices.Backward(m.names()) {
			ok, err := txn.Restore(name)
			if err != nil {
				return fmt.Errorf("restore %q: %w", name, err)
			}
			if ok {
				restored++
			}
		}
		return nil
	})
	return restored, err
}

// names returns the distinct patch names in first-use order.
func (m *Manifest) names() []string {
	seen := make(map[string]bool, len(m.Patches))
	var out []string
	for _, d := range m.Patches {
		if !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
	}
	return out
}

func unwind(txn *patch.Txn, created []string) error {
	var errs []error
	for _, name := range slices.Backward(created) {
		if _, err := txn.Restore(name); err != nil {
			errs = append(errs, fmt.Errorf("unwind %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// apply runs one definition and returns the number of rows written.
func (d *Def) apply(txn *patch.Txn, reg *param.Registry) (int, error) {
	info, ok := reg.Info(d.Param)
	if !ok {
		return 0, types.Wrap(types.ErrNotFound, fmt.Errorf("param %q", d.Param))
	}
	if span := d.Span(); span > info.RowSize {
		return 0, types.Wrap(ErrInvalid, fmt.Errorf("writes span %d bytes but %s rows are %d", span, d.Param, info.RowSize))
	}

	n := 0
	write := func(data []byte) error {
		for _, w := range d.Writes {
			if !buf.Has(data, w.Offset, len(w.encoded)) {
				return types.Wrap(ErrInvalid, fmt.Errorf("write at %d+%d outside %d-byte row", w.Offset, len(w.encoded), len(data)))
			}
		}
		for _, w := range d.Writes {
			copy(data[w.Offset:], w.encoded)
		}
		n++
		return nil
	}

	if len(d.Rows) > 0 {
		for _, id := range d.Rows {
			if err := patch.Apply(txn, d.Name, d.Param, id, write); err != nil {
				return n, err
			}
		}
		return n, nil
	}

	var match func(param.Row) (bool, error)
	if d.filter != nil {
		match = d.match
	}
	err := patch.ApplyWhere(txn, d.Name, d.Param, match, func(_ param.Row, data []byte) error {
		return write(data)
	})
	return n, err
}
