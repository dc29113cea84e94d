package patch

import (
	"fmt"
	"slices"

	"github.com/joshuapare/paramkit/internal/buf"
	"github.com/joshuapare/paramkit/pkg/types"
)

// GetOrCreate returns the patch named name, creating it on top of the stack
// if it does not exist. An existing patch is returned only while it is the
// top-most entry; otherwise the call fails with types.ErrPatchShadowed.
func (t *Txn) GetOrCreate(name string) (*Patch, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, types.Wrap(types.ErrInvalidName, fmt.Errorf("empty patch name"))
	}

	m := t.m
	if i := m.find(name); i >= 0 {
		if i == len(m.stack)-1 {
			return m.stack[i], nil
		}
		return nil, types.Wrap(types.ErrPatchShadowed,
			fmt.Errorf("patch %q has %d newer patch(es) above it, top is %q", name, len(m.stack)-1-i, m.stack[len(m.stack)-1].name))
	}

	m.mu.Lock()
	m.seq++
	p := newPatch(m, name, m.seq)
	m.stack = append(m.stack, p)
	m.mu.Unlock()

	m.log.Debug("patch created", "patch", name, "seq", p.seq, "depth", len(m.stack))
	return p, nil
}

// Lookup returns the active patch named name regardless of its position.
func (t *Txn) Lookup(name string) (*Patch, bool) {
	if t.check() != nil {
		return nil, false
	}
	i := t.m.find(name)
	if i < 0 {
		return nil, false
	}
	return t.m.stack[i], true
}

// Top returns the most recently created active patch.
func (t *Txn) Top() (*Patch, bool) {
	if t.check() != nil || len(t.m.stack) == 0 {
		return nil, false
	}
	return t.m.stack[len(t.m.stack)-1], true
}

// Restore rolls back the patch named name and removes it from the stack.
// It reports false, with a nil error, when no such patch exists.
//
// Edits are undone newest first. Edits recorded against a table that has
// since been replaced or removed from the registry are skipped with a
// warning rather than written into memory the registry no longer vouches
// for.
//
// Under RestoreStrict a patch sharing rows with a newer patch is left in
// place and types.ErrRestoreShadowed is returned.
func (t *Txn) Restore(name string) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	m := t.m
	i := m.find(name)
	if i < 0 {
		return false, nil
	}
	p := m.stack[i]

	for _, newer := range m.stack[i+1:] {
		k, ok := p.overlaps(newer)
		if !ok {
			continue
		}
		if m.policy == RestoreStrict {
			return false, types.Wrap(types.ErrRestoreShadowed,
				fmt.Errorf("patch %q shares param %d row %d with newer patch %q", name, k.param, k.row, newer.name))
		}
		m.log.Warn("restoring patch below a newer overlapping patch; the newer patch's snapshots are now stale",
			"patch", name, "newer", newer.name, "param", k.param, "row", k.row)
	}

	for _, e := range p.edits {
		if _, busy := m.open[rowKey{e.ParamIndex, e.RowIndex}]; busy {
			return false, protocolErr("restore %q: param %d row %d has an open session", name, e.ParamIndex, e.RowIndex)
		}
	}

	skipped := 0
	for _, e := range slices.Backward(p.edits) {
		if !m.writeBack(e) {
			skipped++
			m.log.Warn("skipping restore of stale row", "patch", name,
				"param", e.ParamIndex, "row", e.RowIndex, "id", e.RowID)
		}
	}

	m.mu.Lock()
	m.stack = slices.Delete(m.stack, i, i+1)
	p.dropped = true
	m.mu.Unlock()

	m.log.Debug("patch restored", "patch", name, "rows", len(p.edits), "skipped", skipped, "depth", len(m.stack))
	return true, nil
}

// writeBack copies e's original bytes into the live row. It reports false
// when the table e was recorded against is no longer registered.
func (m *Manager) writeBack(e *RowEdit) bool {
	info, ok := m.reg.InfoAt(e.ParamIndex)
	if !ok || info.Table != e.table {
		return false
	}
	dst, ok := buf.Window(e.table.Bytes(), e.Offset, len(e.Original))
	if !ok {
		return false
	}
	copy(dst, e.Original)
	if m.tracker != nil {
		m.tracker.Add(e.table, e.Offset, len(e.Original))
	}
	return true
}

// find returns the stack position of name, or -1.
func (m *Manager) find(name string) int {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].name == name {
			return i
		}
	}
	return -1
}
