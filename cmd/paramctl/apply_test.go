package main

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/paramkit/param"
)

const testManifest = `
patches:
  - name: bump
    param: P
    rows: [1, 3]
    writes:
      - {offset: 1, type: u8, value: 0xAA}
  - name: tail
    param: P
    where: "id > 2"
    writes:
      - {offset: 2, type: u16, value: 0xBEEF}
`

func rowBytes(t *testing.T, path string, id uint64) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tbl, err := param.Parse(data, 0)
	require.NoError(t, err)
	row, ok := tbl.Locate(id)
	require.True(t, ok)
	return tbl.Data(row)
}

func TestApply(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	tbl := writeTable(t, dir, "P", 1, 2, 3)
	mf := writeFile(t, dir, "m.yaml", testManifest)

	jsonOut = true
	output, err := captureOutput(t, func() error {
		return runApply(context.Background(), []string{mf, tbl})
	})
	require.NoError(t, err)

	var out applyOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	require.Len(t, out.Patches, 2)
	require.Equal(t, 2, out.Patches[0].Rows)
	require.Equal(t, 1, out.Patches[1].Rows)

	require.Equal(t, []byte{1, 0xAA, 0, 0}, rowBytes(t, tbl, 1))
	require.Equal(t, []byte{2, 0, 0, 0}, rowBytes(t, tbl, 2))
	require.Equal(t, []byte{3, 0xAA, 0xEF, 0xBE}, rowBytes(t, tbl, 3))
}

func TestApply_Revert(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	tbl := writeTable(t, dir, "P", 1, 2, 3)
	mf := writeFile(t, dir, "m.yaml", testManifest)
	before, err := os.ReadFile(tbl)
	require.NoError(t, err)

	noColor = true
	applyRevert = true
	output, err := captureOutput(t, func() error {
		return runApply(context.Background(), []string{mf, tbl})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"patched bump: 2 rows of P", "reverted 2 patches"})

	after, err := os.ReadFile(tbl)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestApply_Failure_LeavesFileUnchanged(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	tbl := writeTable(t, dir, "P", 1, 2)
	mf := writeFile(t, dir, "m.yaml", `
patches:
  - name: ok
    param: P
    rows: [1]
    writes: [{offset: 0, type: u8, value: 9}]
  - name: missing
    param: P
    rows: [42]
    writes: [{offset: 0, type: u8, value: 9}]
`)
	before, err := os.ReadFile(tbl)
	require.NoError(t, err)

	_, err = captureOutput(t, func() error {
		return runApply(context.Background(), []string{mf, tbl})
	})
	require.Error(t, err)

	after, err := os.ReadFile(tbl)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestApply_BadManifest(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	tbl := writeTable(t, dir, "P", 1)
	mf := writeFile(t, dir, "m.yaml", "patches:\n  - name: x\n    bogus: 1\n")

	_, err := captureOutput(t, func() error {
		return runApply(context.Background(), []string{mf, tbl})
	})
	require.Error(t, err)
}
