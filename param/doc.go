// Package param locates rows inside host-owned param tables.
//
// A param is a named table of fixed-size binary rows. The host owns the
// memory; this package only reads through it. A *Table is a view over a
// table image laid out as described in internal/format, and a *Registry maps
// param names to tables together with the stable index that patch sessions
// use as their fast lookup key.
//
// # Lookups
//
//	reg := param.NewRegistry()
//	info, err := reg.Register("SpEffectParam", table)
//	idx := reg.RowIndex("SpEffectParam", 100) // -1 when missing
//	row := reg.RowData("SpEffectParam", 100)  // nil when missing
//
// Row descriptors are re-read on every lookup because the host may rewrite
// table contents between calls. Nothing here takes a lock: lookups running
// concurrently with a patch session may observe a partially written row.
//
// # Enumeration
//
// Params and Rows return lazy iterators. Stopping early is simply breaking
// out of the range loop:
//
//	for info := range reg.Params() {
//	    rows, _ := reg.Rows(info.Name)
//	    for row := range rows {
//	        if row.ID == target {
//	            break
//	        }
//	    }
//	}
package param
