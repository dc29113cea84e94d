package patch

import (
	"bytes"

	"github.com/joshuapare/paramkit/param"
)

// rowKey identifies a row by param index and descriptor position.
type rowKey struct {
	param int
	row   int
}

// RowEdit records one row touched by a patch.
type RowEdit struct {
	ParamIndex int
	RowIndex   int
	RowID      uint64
	Offset     int    // row start relative to the table
	Original   []byte // bytes before the patch first touched the row
	Current    []byte // bytes as of the last finalize

	table *param.Table // table the snapshot was taken from
}

// Patch is a named set of row edits owned by a Manager. Callers hold it as a
// handle; it stops being usable once restored.
type Patch struct {
	name    string
	seq     uint64
	mgr     *Manager
	edits   []*RowEdit
	byRow   map[rowKey]int // index into edits
	dropped bool
}

func newPatch(m *Manager, name string, seq uint64) *Patch {
	return &Patch{
		name:  name,
		seq:   seq,
		mgr:   m,
		byRow: make(map[rowKey]int),
	}
}

// Name returns the patch name.
func (p *Patch) Name() string { return p.name }

// Seq returns the creation order of the patch, starting at 1.
func (p *Patch) Seq() uint64 { return p.seq }

// Active reports whether the patch is still on its manager's stack.
func (p *Patch) Active() bool {
	if p == nil {
		return false
	}
	p.mgr.mu.RLock()
	defer p.mgr.mu.RUnlock()
	return !p.dropped
}

// Len returns the number of rows the patch has edited.
func (p *Patch) Len() int {
	p.mgr.mu.RLock()
	defer p.mgr.mu.RUnlock()
	return len(p.edits)
}

// Edits returns copies of the patch's row edits in the order they were first
// finalized.
func (p *Patch) Edits() []RowEdit {
	p.mgr.mu.RLock()
	defer p.mgr.mu.RUnlock()

	out := make([]RowEdit, len(p.edits))
	for i, e := range p.edits {
		out[i] = *e
		out[i].Original = bytes.Clone(e.Original)
		out[i].Current = bytes.Clone(e.Current)
	}
	return out
}

// record adds or updates the edit for s. A row finalized twice under the
// same patch keeps its first snapshot and takes the latest bytes, unless the
// table was replaced in between, in which case the old edit is stale and the
// new snapshot replaces it.
func (p *Patch) record(s *session) *RowEdit {
	if i, ok := p.byRow[s.key]; ok {
		e := p.edits[i]
		if e.table == s.table {
			e.Current = bytes.Clone(s.view)
			return e
		}
		e.table = s.table
		e.RowID = s.row.ID
		e.Offset = s.row.Offset
		e.Original = s.original
		e.Current = bytes.Clone(s.view)
		return e
	}

	e := &RowEdit{
		ParamIndex: s.key.param,
		RowIndex:   s.key.row,
		RowID:      s.row.ID,
		Offset:     s.row.Offset,
		Original:   s.original,
		Current:    bytes.Clone(s.view),
		table:      s.table,
	}
	p.byRow[s.key] = len(p.edits)
	p.edits = append(p.edits, e)
	return e
}

// overlaps returns the first row key edited by both p and q.
func (p *Patch) overlaps(q *Patch) (rowKey, bool) {
	small, large := p, q
	if len(large.byRow) < len(small.byRow) {
		small, large = large, small
	}
	for _, e := range small.edits {
		k := rowKey{e.ParamIndex, e.RowIndex}
		if _, ok := large.byRow[k]; ok {
			return k, true
		}
	}
	return rowKey{}, false
}
