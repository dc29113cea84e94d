package patch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/paramtest"
)

// fixture registers "T" with rows {1: AA}, {2: BB} and "Wide" with eight
// 4-byte rows whose first byte equals the row id.
type fixture struct {
	reg  *param.Registry
	mgr  *Manager
	t    *param.Info
	wide *param.Info
	logs *bytes.Buffer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	reg := param.NewRegistry()

	tbl, err := param.Parse(paramtest.New("T_ST", 1).Row(1, 0xAA).Row(2, 0xBB).Bytes(), 1)
	require.NoError(t, err)
	ti, err := reg.Register("T", tbl)
	require.NoError(t, err)

	b := paramtest.New("WIDE_ST", 4)
	for id := range uint64(8) {
		b.Row(id, byte(id))
	}
	wide, err := param.Parse(b.Bytes(), 4)
	require.NoError(t, err)
	wi, err := reg.Register("Wide", wide)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return &fixture{reg: reg, mgr: New(reg, opts), t: ti, wide: wi, logs: logs}
}

// acquire takes the lock and releases it at test cleanup.
func (f *fixture) acquire(t *testing.T) *Txn {
	t.Helper()
	txn, err := f.mgr.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = txn.Release() })
	return txn
}

// edit begins a row, applies mutate and finalizes into p.
func edit(t *testing.T, txn *Txn, p *Patch, info *param.Info, rowIndex int, mutate func([]byte)) {
	t.Helper()
	row, err := txn.BeginRow(info.Index, rowIndex)
	require.NoError(t, err)
	mutate(row)
	require.NoError(t, txn.FinalizeRow(p, info.Index, rowIndex))
}

func snapshot(info *param.Info) []byte {
	return bytes.Clone(info.Table.Bytes())
}
