package dirty

import "github.com/joshuapare/paramkit/param"

// DirtyTracker is the minimal interface for reporting modified byte ranges.
// The patch manager calls Add for every row it finalizes or restores.
type DirtyTracker interface {
	// Add marks length bytes at off (relative to the table start) as dirty.
	Add(t *param.Table, off, length int)
}

// SyncFunc persists length bytes at off of a table's backing store. The
// loader supplies one per mapped file.
type SyncFunc func(off, length int) error
