package patch

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/pkg/types"
)

// session is a row handed out by BeginRow and not yet finalized.
type session struct {
	key      rowKey
	table    *param.Table
	row      param.Row
	original []byte // snapshot taken when the view was handed out
	view     []byte // live row bytes
}

// BeginRow opens a session on the row at rowIndex of the param registered at
// paramIndex. It snapshots the row and returns a slice over the live bytes;
// the caller mutates it in place and then calls FinalizeRow. The slice's
// capacity ends at the row boundary.
//
// An unknown param or row yields types.ErrNotFound and opens nothing.
func (t *Txn) BeginRow(paramIndex, rowIndex int) ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	m := t.m
	info, ok := m.reg.InfoAt(paramIndex)
	if !ok {
		return nil, types.Wrap(types.ErrNotFound, fmt.Errorf("param index %d", paramIndex))
	}
	if info.Table.ReadOnly() {
		return nil, types.Wrap(types.ErrReadonly, fmt.Errorf("param %q", info.Name))
	}
	row, ok := info.Table.RowAt(rowIndex)
	if !ok {
		return nil, types.Wrap(types.ErrNotFound, fmt.Errorf("param %q row index %d", info.Name, rowIndex))
	}

	key := rowKey{paramIndex, rowIndex}
	if _, busy := m.open[key]; busy {
		return nil, protocolErr("param %q row index %d already has an open session", info.Name, rowIndex)
	}

	view := info.Table.Data(row)
	m.open[key] = &session{
		key:      key,
		table:    info.Table,
		row:      row,
		original: bytes.Clone(view),
		view:     view,
	}
	return view, nil
}

// FinalizeRow commits the session opened by BeginRow into p. It must be
// called exactly once per successful BeginRow, even when nothing changed.
//
// Finalizing a pair that was never begun, or into a patch that is not the
// top of this manager's stack, is a protocol error; in the latter case the
// row is rolled back to its snapshot and the session closed.
func (t *Txn) FinalizeRow(p *Patch, paramIndex, rowIndex int) error {
	if err := t.check(); err != nil {
		return err
	}
	m := t.m
	key := rowKey{paramIndex, rowIndex}
	s, ok := m.open[key]
	if !ok {
		return protocolErr("finalize of param %d row index %d without BeginRow", paramIndex, rowIndex)
	}
	delete(m.open, key)

	switch {
	case p == nil || p.mgr != m || p.dropped:
		m.rollback(s)
		return protocolErr("finalize of param %d row index %d: patch handle is not active in this manager", paramIndex, rowIndex)
	case m.stack[len(m.stack)-1] != p:
		m.rollback(s)
		return types.Wrap(types.ErrPatchShadowed,
			fmt.Errorf("finalize into %q: newer patch %q is on top", p.name, m.stack[len(m.stack)-1].name))
	}

	m.mu.Lock()
	e := p.record(s)
	m.mu.Unlock()
	if m.tracker != nil {
		m.tracker.Add(s.table, s.row.Offset, s.row.Size)
	}
	m.log.Debug("row finalized", "patch", p.name, "param", paramIndex, "row", rowIndex, "id", e.RowID,
		"changed", !bytes.Equal(e.Original, e.Current))
	return nil
}

// Abort closes the session on a row without recording it, putting the
// snapshot back.
func (t *Txn) Abort(paramIndex, rowIndex int) error {
	if err := t.check(); err != nil {
		return err
	}
	key := rowKey{paramIndex, rowIndex}
	s, ok := t.m.open[key]
	if !ok {
		return protocolErr("abort of param %d row index %d without BeginRow", paramIndex, rowIndex)
	}
	delete(t.m.open, key)
	t.m.rollback(s)
	return nil
}

// rollback restores a session's snapshot into the live row.
func (m *Manager) rollback(s *session) {
	copy(s.view, s.original)
}

// abandonSessions rolls back every session left open when the lock is
// released.
func (m *Manager) abandonSessions() error {
	if len(m.open) == 0 {
		return nil
	}
	keys := slices.SortedFunc(maps.Keys(m.open), func(a, b rowKey) int {
		if a.param != b.param {
			return a.param - b.param
		}
		return a.row - b.row
	})
	for _, k := range keys {
		m.rollback(m.open[k])
		m.log.Warn("rolled back unfinalized row at lock release", "param", k.param, "row", k.row)
	}
	clear(m.open)
	return protocolErr("%d row session(s) left open at release", len(keys))
}
