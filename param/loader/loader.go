// Package loader maps param table images from disk so they can be patched in
// place.
//
// On unix the file is mmapped MAP_SHARED, so row writes land in the page
// cache immediately and Sync only has to msync the dirty pages. Elsewhere the
// file is read into memory and Sync writes the requested range back.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshuapare/paramkit/internal/buf"
	"github.com/joshuapare/paramkit/param"
	"github.com/joshuapare/paramkit/param/dirty"
	"github.com/joshuapare/paramkit/pkg/types"
)

// Options controls how a table image is opened.
type Options struct {
	// ReadOnly maps the file without write access. Patch sessions on the
	// resulting table fail with types.ErrReadonly.
	ReadOnly bool

	// RowSize is the size of one row. Zero infers it from the row offsets.
	RowSize int
}

// File is an opened table image.
type File struct {
	path     string
	f        *os.File
	data     []byte
	table    *param.Table
	readOnly bool
}

// Open maps the table image at path and parses it.
func Open(path string, opts Options) (*File, error) {
	f, data, err := mapFile(path, opts.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	file := &File{path: path, f: f, data: data, readOnly: opts.ReadOnly}

	parse := param.Parse
	if opts.ReadOnly {
		parse = param.ParseReadOnly
	}
	tbl, err := parse(data, opts.RowSize)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	file.table = tbl
	return file, nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Name returns the param name implied by the file name: the base name
// without its extension ("SpEffectParam.param" → "SpEffectParam").
func (f *File) Name() string {
	base := filepath.Base(f.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Table returns the parsed table. It is invalid after Close.
func (f *File) Table() *param.Table { return f.table }

// ReadOnly reports whether the file was opened read-only.
func (f *File) ReadOnly() bool { return f.readOnly }

// Register adds the table to reg under Name.
func (f *File) Register(reg *param.Registry) (*param.Info, error) {
	return reg.Register(f.Name(), f.table)
}

// Track registers f.Sync with tr so flushing tr persists this file.
func (f *File) Track(tr *dirty.Tracker) {
	tr.Track(f.table, f.Sync)
}

// Sync persists length bytes at off to the file.
func (f *File) Sync(off, length int) error {
	if f.readOnly {
		return types.ErrReadonly
	}
	if f.data == nil {
		return types.Wrap(types.ErrStaleTable, fmt.Errorf("%s is closed", f.path))
	}
	if !buf.Has(f.data, off, length) {
		return fmt.Errorf("loader: sync [0x%X,+%d) outside %d-byte file", off, length, len(f.data))
	}
	return f.sync(off, length)
}
