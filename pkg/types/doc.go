// Package types defines the public error taxonomy shared by paramkit's
// packages.
//
// Every error returned by the param, patch, loader and manifest packages
// either is, or wraps, one of the sentinels below, so callers branch with
// errors.Is rather than on message text:
//
//	p, err := txn.GetOrCreate("my-patch")
//	switch {
//	case errors.Is(err, types.ErrPatchShadowed):
//	    // the patch exists but a newer one sits above it
//	case err != nil:
//	    return err
//	}
//
// Use KindOf to classify an arbitrary error chain.
package types
