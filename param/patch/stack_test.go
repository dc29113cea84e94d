package patch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/paramtest"
	"github.com/joshuapare/paramkit/pkg/types"
)

func TestGetOrCreate_TopOfStackIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	a1, err := txn.GetOrCreate("A")
	require.NoError(t, err)
	a2, err := txn.GetOrCreate("A")
	require.NoError(t, err)
	require.Same(t, a1, a2)
	require.Equal(t, 1, f.mgr.Len())
	require.Equal(t, uint64(1), a1.Seq())
}

func TestGetOrCreate_ShadowedIsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	_, err := txn.GetOrCreate("A")
	require.NoError(t, err)
	_, err = txn.GetOrCreate("B")
	require.NoError(t, err)

	p, err := txn.GetOrCreate("A")
	require.Nil(t, p)
	require.ErrorIs(t, err, types.ErrPatchShadowed)
	require.NotErrorIs(t, err, types.ErrNotFound)
	require.Equal(t, types.ErrKindStack, types.KindOf(err))
	require.Equal(t, 2, f.mgr.Len(), "rejection must not push a new patch")
}

func TestGetOrCreate_EmptyName(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)
	_, err := txn.GetOrCreate("")
	require.ErrorIs(t, err, types.ErrInvalidName)
}

func TestGetOrCreate_ReacquireAfterRestoreOfNewer(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	a, _ := txn.GetOrCreate("A")
	_, _ = txn.GetOrCreate("B")
	ok, err := txn.Restore("B")
	require.NoError(t, err)
	require.True(t, ok)

	again, err := txn.GetOrCreate("A")
	require.NoError(t, err)
	require.Same(t, a, again)
}

func TestRestore_Scenario(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	x, err := txn.GetOrCreate("X")
	require.NoError(t, err)
	idx := f.reg.RowIndex("T", 2)
	require.Equal(t, 1, idx)

	edit(t, txn, x, f.t, idx, func(b []byte) { b[0] = 0xCC })
	require.Equal(t, []byte{0xCC}, f.reg.RowData("T", 2))
	require.Equal(t, []byte{0xAA}, f.reg.RowData("T", 1))

	ok, err := txn.Restore("X")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0xBB}, f.reg.RowData("T", 2))
	require.False(t, x.Active())

	ok, err = txn.Restore("X")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRestore_RoundTripEveryRow(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	for _, info := range []*param.Info{f.t, f.wide} {
		for row := range info.Table.Rows() {
			before := snapshot(info)
			p, err := txn.GetOrCreate("rt")
			require.NoError(t, err)
			edit(t, txn, p, info, row.Index, func(b []byte) {
				for i := range b {
					b[i] ^= 0xFF
				}
			})
			require.NotEqual(t, before, snapshot(info))

			ok, err := txn.Restore("rt")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, before, snapshot(info), "param %s row %d", info.Name, row.ID)
		}
	}
}

func TestRestore_UndoesInReverseOrder(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)
	before := snapshot(f.wide)

	p, _ := txn.GetOrCreate("multi")
	for i := range 4 {
		edit(t, txn, p, f.wide, i, func(b []byte) { b[1] = 0xEE })
	}
	require.Equal(t, 4, p.Len())

	ok, err := txn.Restore("multi")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, before, snapshot(f.wide))
	require.Contains(t, f.logs.String(), "patch restored")
}

func TestRestore_StrictRejectsOverlap(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	a, _ := txn.GetOrCreate("A")
	edit(t, txn, a, f.t, 0, func(b []byte) { b[0] = 0x01 })
	b, _ := txn.GetOrCreate("B")
	edit(t, txn, b, f.t, 0, func(b []byte) { b[0] = 0x02 })

	ok, err := txn.Restore("A")
	require.False(t, ok)
	require.ErrorIs(t, err, types.ErrRestoreShadowed)
	require.Equal(t, 2, f.mgr.Len())
	require.Equal(t, []byte{0x02}, f.reg.RowData("T", 1), "rejected restore must not write")

	// Reverse creation order works.
	ok, err = txn.Restore("B")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x01}, f.reg.RowData("T", 1))
	ok, err = txn.Restore("A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0xAA}, f.reg.RowData("T", 1))
}

func TestRestore_StrictAllowsDisjointOutOfOrder(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	a, _ := txn.GetOrCreate("A")
	edit(t, txn, a, f.t, 0, func(b []byte) { b[0] = 0x01 })
	b, _ := txn.GetOrCreate("B")
	edit(t, txn, b, f.t, 1, func(b []byte) { b[0] = 0x02 })

	ok, err := txn.Restore("A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0xAA}, f.reg.RowData("T", 1))
	require.Equal(t, []byte{0x02}, f.reg.RowData("T", 2))
	require.Equal(t, []PatchInfo{{Name: "B", Seq: 2, Rows: 1}}, f.mgr.Patches())
}

func TestRestore_PermissiveWarnsAndRestores(t *testing.T) {
	f := newFixture(t, Options{RestorePolicy: RestorePermissive})
	txn := f.acquire(t)

	a, _ := txn.GetOrCreate("A")
	edit(t, txn, a, f.t, 0, func(b []byte) { b[0] = 0x01 })
	b, _ := txn.GetOrCreate("B")
	edit(t, txn, b, f.t, 0, func(b []byte) { b[0] = 0x02 })

	ok, err := txn.Restore("A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0xAA}, f.reg.RowData("T", 1))
	require.Contains(t, f.logs.String(), "level=WARN")

	// B's snapshot predates A's restore: restoring it brings back A's value.
	ok, err = txn.Restore("B")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x01}, f.reg.RowData("T", 1))
}

func TestRestore_SkipsReplacedTable(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)
	old := f.t.Table

	p, _ := txn.GetOrCreate("stale")
	edit(t, txn, p, f.t, 0, func(b []byte) { b[0] = 0x99 })

	fresh, err := param.Parse(paramtest.New("T_ST", 1).Row(1, 0x10).Row(2, 0x20).Bytes(), 1)
	require.NoError(t, err)
	_, err = f.reg.Register("T", fresh)
	require.NoError(t, err)

	ok, err := txn.Restore("stale")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0x10}, f.reg.RowData("T", 1), "fresh table untouched")
	row, _ := old.Locate(1)
	require.Equal(t, []byte{0x99}, old.Data(row), "replaced table not written")
	require.Contains(t, f.logs.String(), "skipping restore of stale row")
	require.Zero(t, f.mgr.Len())
}

func TestRestore_RejectsOpenSession(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	p, _ := txn.GetOrCreate("A")
	edit(t, txn, p, f.t, 0, func(b []byte) { b[0] = 0x01 })
	_, err := txn.BeginRow(f.t.Index, 0)
	require.NoError(t, err)

	ok, err := txn.Restore("A")
	require.False(t, ok)
	require.ErrorIs(t, err, types.ErrProtocol)

	require.NoError(t, txn.Abort(f.t.Index, 0))
	ok, err = txn.Restore("A")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLookupAndTop(t *testing.T) {
	f := newFixture(t, Options{})
	txn := f.acquire(t)

	_, ok := txn.Top()
	require.False(t, ok)

	a, _ := txn.GetOrCreate("A")
	b, _ := txn.GetOrCreate("B")

	got, ok := txn.Lookup("A")
	require.True(t, ok)
	require.Same(t, a, got)
	top, ok := txn.Top()
	require.True(t, ok)
	require.Same(t, b, top)

	_, ok = txn.Lookup("C")
	require.False(t, ok)
	require.Equal(t, []PatchInfo{{Name: "A", Seq: 1}, {Name: "B", Seq: 2}}, f.mgr.Patches())
}
