// Package patch applies named, reversible modifications to param rows.
//
// # Overview
//
// A Manager owns a stack of named patches (the ledger) and the lock that
// serializes everything that changes it. Each patch records, per row it
// touched, the bytes the row held before the patch and the bytes it wrote.
// Restoring a patch writes the original bytes back in reverse order and drops
// the patch from the stack.
//
// # Protocol
//
// All patch-defining calls are methods on *Txn, the token returned by
// Acquire. Holding a Txn is holding the lock:
//
//	err := mgr.Do(ctx, func(txn *patch.Txn) error {
//	    p, err := txn.GetOrCreate("faster-stamina")
//	    if err != nil {
//	        return err
//	    }
//	    row, err := txn.BeginRow(info.Index, rowIndex)
//	    if err != nil {
//	        return err // no session was opened
//	    }
//	    row[0x10] = 0xFF
//	    return txn.FinalizeRow(p, info.Index, rowIndex)
//	})
//
// BeginRow snapshots the row and hands out a slice over the live bytes;
// FinalizeRow commits the record to the patch. Every successful BeginRow must
// be followed by exactly one FinalizeRow. Apply and ApplyAll wrap the whole
// sequence for the common cases.
//
// # Stack discipline
//
// GetOrCreate returns the existing patch only while it is the most recently
// created one; otherwise it fails with types.ErrPatchShadowed. Restore of a
// patch whose rows were also edited by a newer patch fails with
// types.ErrRestoreShadowed unless Options.RestorePolicy is RestorePermissive.
//
// # Thread Safety
//
// Manager is safe for concurrent use. A Txn belongs to the goroutine that
// acquired it. Read-only lookups through param.Registry take no lock and may
// observe rows mid-write.
package patch
