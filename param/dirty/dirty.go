// Package dirty tracks which extents of param tables have been written and
// flushes them to the tables' backing store.
//
// Row edits are small and scattered. The tracker accumulates them per table,
// page-aligns and coalesces them at flush time, and hands each merged range
// to the SyncFunc registered for that table (msync for mapped files). Tables
// with no SyncFunc live on the heap; their ranges are dropped on Flush.
package dirty

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/joshuapare/paramkit/param"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges per table.
	defaultRangeCapacity = 16

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// Range represents a dirty byte range relative to a table start.
type Range struct {
	Off int64
	Len int64
}

// End returns the exclusive end offset.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges per table. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	ranges   map[*param.Table][]Range
	syncers  map[*param.Table]SyncFunc
	pageSize int64
}

// NewTracker creates an empty tracker using 4KB pages.
func NewTracker() *Tracker {
	return &Tracker{
		ranges:   make(map[*param.Table][]Range),
		syncers:  make(map[*param.Table]SyncFunc),
		pageSize: standardPageSize,
	}
}

// Track registers fn as the backing-store sync for t.
func (t *Tracker) Track(tbl *param.Table, fn SyncFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncers[tbl] = fn
}

// Untrack forgets t and any ranges recorded against it.
func (t *Tracker) Untrack(tbl *param.Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.syncers, tbl)
	delete(t.ranges, tbl)
}

// Add records a dirty range. Empty or negative ranges are ignored.
func (t *Tracker) Add(tbl *param.Table, off, length int) {
	if tbl == nil || off < 0 || length <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, ok := t.ranges[tbl]
	if !ok {
		rs = make([]Range, 0, defaultRangeCapacity)
	}
	t.ranges[tbl] = append(rs, Range{Off: int64(off), Len: int64(length)})
}

// Ranges returns the coalesced, page-aligned dirty ranges of tbl, clipped to
// the table length.
func (t *Tracker) Ranges(tbl *param.Table) []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coalesce(t.ranges[tbl], int64(len(tbl.Bytes())))
}

// Pending returns the number of raw ranges recorded across all tables.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, rs := range t.ranges {
		n += len(rs)
	}
	return n
}

// Flush syncs the dirty ranges of every tracked table and clears all
// recorded ranges. A table whose sync fails keeps its ranges so a later
// Flush can retry it.
//
// The context is checked between ranges; a cancelled flush may have synced
// some ranges and not others.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for tbl, rs := range t.ranges {
		fn, ok := t.syncers[tbl]
		if !ok {
			delete(t.ranges, tbl)
			continue
		}
		for _, r := range t.coalesce(rs, int64(len(tbl.Bytes()))) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(int(r.Off), int(r.Len)); err != nil {
				return fmt.Errorf("dirty: sync [0x%X,+%d): %w", r.Off, r.Len, err)
			}
		}
		delete(t.ranges, tbl)
	}
	return nil
}

// Reset clears all recorded ranges without syncing.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.ranges)
}

// coalesce page-aligns rs, sorts them and merges overlapping or adjacent
// ranges. The final range is clipped to limit.
func (t *Tracker) coalesce(rs []Range, limit int64) []Range {
	if len(rs) == 0 {
		return nil
	}

	aligned := make([]Range, len(rs))
	for i, r := range rs {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		end = min(end, limit)
		aligned[i] = Range{Off: start, Len: end - start}
	}

	slices.SortFunc(aligned, func(a, b Range) int {
		switch {
		case a.Off < b.Off:
			return -1
		case a.Off > b.Off:
			return 1
		default:
			return 0
		}
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
