package patch

import (
	"errors"
	"fmt"

	"github.com/joshuapare/paramkit/pkg/types"
)

// Txn is the lock token. Patch-defining operations are methods on it, so
// they can only run while the lock is held.
type Txn struct {
	m        *Manager
	released bool
}

// Manager returns the manager the token belongs to.
func (t *Txn) Manager() *Manager { return t.m }

// Held reports whether the token still holds the lock.
func (t *Txn) Held() bool { return t != nil && !t.released }

// Release gives the lock back. Sessions still open are rolled back to their
// snapshots and reported as types.ErrProtocol. Releasing twice is a no-op.
func (t *Txn) Release() error {
	if t == nil || t.released {
		return nil
	}
	err := t.m.abandonSessions()
	t.released = true
	t.m.lock.Release(1)
	return err
}

// Do runs fn inside the scope of an already-held token. It is the reentrant
// form of Manager.Do for code that may or may not already hold the lock.
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := t.check(); err != nil {
		return err
	}
	return fn(t)
}

func (t *Txn) check() error {
	if !t.Held() {
		return types.ErrLockReleased
	}
	return nil
}

func joinErr(a, b error) error {
	if a == nil {
		return b
	}
	return errors.Join(a, b)
}

func protocolErr(format string, args ...any) error {
	return types.Wrap(types.ErrProtocol, fmt.Errorf(format, args...))
}
