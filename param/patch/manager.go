package patch

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/dirty"
)

// RestorePolicy controls Restore of a patch that is not top-of-stack.
type RestorePolicy int

const (
	// RestoreStrict rejects restoring a patch when a newer active patch has
	// edited any of the same rows.
	RestoreStrict RestorePolicy = iota

	// RestorePermissive restores regardless and logs a warning. The newer
	// patch's snapshots then describe bytes that are no longer in the row,
	// so restoring it afterwards writes back stale data.
	RestorePermissive
)

// String implements fmt.Stringer.
func (p RestorePolicy) String() string {
	if p == RestorePermissive {
		return "permissive"
	}
	return "strict"
}

// Options configures a Manager. The zero value is usable.
type Options struct {
	// Logger receives debug records for every create, finalize and restore,
	// and warnings for permissive restores and stale tables. Nil discards.
	Logger *slog.Logger

	// RestorePolicy selects how out-of-order restores are handled.
	RestorePolicy RestorePolicy

	// Tracker, when set, is told about every row extent the manager writes.
	Tracker dirty.DirtyTracker
}

// Manager owns the patch ledger and the lock serializing changes to it.
type Manager struct {
	reg     *param.Registry
	lock    *semaphore.Weighted
	log     *slog.Logger
	policy  RestorePolicy
	tracker dirty.DirtyTracker

	// mu guards stack for readers that do not hold the lock (Patches).
	// Writers hold both.
	mu    sync.RWMutex
	stack []*Patch
	seq   uint64

	open map[rowKey]*session // sessions begun but not finalized
}

// New creates a manager patching the tables in reg.
func New(reg *param.Registry, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		reg:     reg,
		lock:    semaphore.NewWeighted(1),
		log:     log,
		policy:  opts.RestorePolicy,
		tracker: opts.Tracker,
		open:    make(map[rowKey]*session),
	}
}

// Registry returns the registry the manager patches.
func (m *Manager) Registry() *param.Registry { return m.reg }

// Acquire blocks until the patch lock is free or ctx is done. The returned
// Txn must be released exactly once; Do does that automatically.
func (m *Manager) Acquire(ctx context.Context) (*Txn, error) {
	if err := m.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Txn{m: m}, nil
}

// TryAcquire takes the lock only if it is free.
func (m *Manager) TryAcquire() (*Txn, bool) {
	if !m.lock.TryAcquire(1) {
		return nil, false
	}
	return &Txn{m: m}, true
}

// Do runs fn while holding the lock and releases it on every exit path,
// including a panic in fn. An error from Release is joined to fn's.
func (m *Manager) Do(ctx context.Context, fn func(*Txn) error) (err error) {
	txn, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := txn.Release(); rerr != nil {
			err = joinErr(err, rerr)
		}
	}()
	return fn(txn)
}

// PatchInfo is a read-only summary of an active patch.
type PatchInfo struct {
	Name string
	Seq  uint64 // creation order, starting at 1
	Rows int    // number of row edits
}

// Patches lists active patches from oldest to newest. It does not take the
// serialization lock, so it may be called while a Txn is working; the result
// is a snapshot.
func (m *Manager) Patches() []PatchInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PatchInfo, 0, len(m.stack))
	for _, p := range m.stack {
		out = append(out, PatchInfo{Name: p.name, Seq: p.seq, Rows: len(p.edits)})
	}
	return out
}

// Len returns the number of active patches.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stack)
}
