package param

import (
	"fmt"
	"iter"
	"sync"

	"github.com/joshuapare/paramkit/internal/format"
	"github.com/joshuapare/paramkit/pkg/types"
)

// Info describes one registered param. It is immutable once returned;
// re-registering a name produces a new Info with the same Index.
type Info struct {
	Name    string
	Index   int    // stable fast-path key for patch sessions
	Type    string // type tag read from the table
	RowSize int
	Table   *Table
}

// Registry maps param names to tables. It is the hand-off point from
// whatever discovered the tables to the lookup and patch layers.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]int
	infos  []*Info // by Index; nil once removed
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register associates name with t. A name that is already registered keeps
// its index and has its table replaced, which makes any patch edits recorded
// against the previous table stale.
func (r *Registry) Register(name string, t *Table) (*Info, error) {
	if name == "" {
		return nil, types.Wrap(types.ErrInvalidName, fmt.Errorf("empty param name"))
	}
	if t == nil {
		return nil, types.Wrap(types.ErrNotFound, fmt.Errorf("param %q: nil table", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byName[name]
	if !ok {
		idx = len(r.infos)
		r.infos = append(r.infos, nil)
		r.byName[name] = idx
	}
	info := &Info{
		Name:    name,
		Index:   idx,
		Type:    t.Type(),
		RowSize: t.RowSize(),
		Table:   t,
	}
	r.infos[idx] = info
	return info, nil
}

// RegisterUTF16 registers a table under a host name encoded as UTF-16LE.
func (r *Registry) RegisterUTF16(raw []byte, t *Table) (*Info, error) {
	name, err := format.DecodeName(raw)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidName, err)
	}
	return r.Register(name, t)
}

// Remove forgets name. Its index is never reused.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	r.infos[idx] = nil
	return true
}

// Info returns the descriptor for name.
func (r *Registry) Info(name string) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.infos[idx], true
}

// InfoAt returns the descriptor registered at index.
func (r *Registry) InfoAt(index int) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.infos) || r.infos[index] == nil {
		return nil, false
	}
	return r.infos[index], true
}

// Len returns the number of registered params.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Params iterates registered params in index order. The set is snapshotted
// when iteration starts.
func (r *Registry) Params() iter.Seq[*Info] {
	return func(yield func(*Info) bool) {
		r.mu.RLock()
		snap := make([]*Info, 0, len(r.byName))
		for _, info := range r.infos {
			if info != nil {
				snap = append(snap, info)
			}
		}
		r.mu.RUnlock()

		for _, info := range snap {
			if !yield(info) {
				return
			}
		}
	}
}

// Rows iterates the rows of the named param. ok is false when the param does
// not exist; an existing param with no rows yields an empty sequence.
func (r *Registry) Rows(name string) (rows iter.Seq[Row], ok bool) {
	info, ok := r.Info(name)
	if !ok {
		return func(func(Row) bool) {}, false
	}
	return info.Table.Rows(), true
}

// RowIndex returns the descriptor position of row id in the named param, or
// -1 when the param or the row does not exist.
func (r *Registry) RowIndex(name string, id uint64) int {
	info, ok := r.Info(name)
	if !ok {
		return -1
	}
	return info.Table.IndexOf(id)
}

// RowData returns the live bytes of row id in the named param, or nil.
func (r *Registry) RowData(name string, id uint64) []byte {
	info, ok := r.Info(name)
	if !ok {
		return nil
	}
	row, ok := info.Table.Locate(id)
	if !ok {
		return nil
	}
	return info.Table.Data(row)
}
