package patch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/paramtest"
)

func TestTryAcquire_Exclusive(t *testing.T) {
	f := newFixture(t, Options{})

	txn, ok := f.mgr.TryAcquire()
	require.True(t, ok)
	_, ok = f.mgr.TryAcquire()
	require.False(t, ok, "lock is not reentrant")

	require.NoError(t, txn.Release())
	again, ok := f.mgr.TryAcquire()
	require.True(t, ok)
	require.NoError(t, again.Release())
}

func TestAcquire_HonoursContext(t *testing.T) {
	f := newFixture(t, Options{})
	held := f.acquire(t)
	require.True(t, held.Held())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.mgr.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_ReleasesOnError(t *testing.T) {
	f := newFixture(t, Options{})
	boom := errors.New("boom")

	err := f.mgr.Do(context.Background(), func(txn *Txn) error {
		_, err := txn.GetOrCreate("A")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	txn, ok := f.mgr.TryAcquire()
	require.True(t, ok)
	require.NoError(t, txn.Release())
	require.Equal(t, 1, f.mgr.Len(), "patches outlive the lock scope")
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	f := newFixture(t, Options{})

	require.Panics(t, func() {
		_ = f.mgr.Do(context.Background(), func(txn *Txn) error {
			row, err := txn.BeginRow(f.t.Index, 0)
			require.NoError(t, err)
			row[0] = 0x01
			panic("mutation blew up")
		})
	})

	require.Equal(t, []byte{0xAA}, f.reg.RowData("T", 1), "open session rolled back")
	txn, ok := f.mgr.TryAcquire()
	require.True(t, ok)
	require.NoError(t, txn.Release())
}

func TestDo_JoinsReleaseError(t *testing.T) {
	f := newFixture(t, Options{})
	err := f.mgr.Do(context.Background(), func(txn *Txn) error {
		_, err := txn.BeginRow(f.t.Index, 0)
		return err
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "left open")
}

func TestTxnDo_RunsInHeldScope(t *testing.T) {
	f := newFixture(t, Options{})

	err := f.mgr.Do(context.Background(), func(txn *Txn) error {
		return txn.Do(func(inner *Txn) error {
			require.Same(t, txn, inner)
			_, err := inner.GetOrCreate("nested")
			return err
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.mgr.Len())
}

func TestConcurrentPatchesAreSerialized(t *testing.T) {
	const n = 32

	reg := param.NewRegistry()
	b := paramtest.New("CONC_ST", 8)
	for id := range uint64(n) {
		b.Row(id)
	}
	tbl, err := param.Parse(b.Bytes(), 8)
	require.NoError(t, err)
	_, err = reg.Register("Conc", tbl)
	require.NoError(t, err)
	mgr := New(reg, Options{})

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			return mgr.Do(context.Background(), func(txn *Txn) error {
				return Apply(txn, fmt.Sprintf("patch-%02d", i), "Conc", uint64(i), func(row []byte) error {
					row[0] = byte(i + 1)
					return nil
				})
			})
		})
	}
	require.NoError(t, g.Wait())

	patches := mgr.Patches()
	require.Len(t, patches, n)
	seen := make(map[string]bool, n)
	for _, p := range patches {
		require.Equal(t, 1, p.Rows, p.Name)
		seen[p.Name] = true
	}
	require.Len(t, seen, n)
	for i := range n {
		require.Equal(t, byte(i+1), reg.RowData("Conc", uint64(i))[0])
	}
}

func TestPatches_ReadableWhileTxnWrites(t *testing.T) {
	f := newFixture(t, Options{})
	const rounds = 200

	ctx, cancel := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error {
		for ctx.Err() == nil {
			for _, p := range f.mgr.Patches() {
				if p.Rows < 0 || p.Rows > 8 {
					return fmt.Errorf("patch %q reports %d rows", p.Name, p.Rows)
				}
			}
			_ = f.mgr.Len()
		}
		return nil
	})

	var handles []*Patch
	for i := range rounds {
		err := f.mgr.Do(context.Background(), func(txn *Txn) error {
			name := fmt.Sprintf("p%d", i)
			if err := ApplyAll(txn, name, "Wide", func(_ param.Row, data []byte) error {
				data[1] = byte(i)
				return nil
			}); err != nil {
				return err
			}
			p, _ := txn.Lookup(name)
			handles = append(handles, p)
			return nil
		})
		require.NoError(t, err)
	}
	cancel()
	require.NoError(t, g.Wait())

	require.Len(t, f.mgr.Patches(), rounds)
	for _, p := range handles {
		require.True(t, p.Active())
		require.Equal(t, 8, p.Len())
	}
}
