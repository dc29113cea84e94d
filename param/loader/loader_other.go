//go:build !unix

package loader

import (
	"errors"
	"io"
	"os"
)

// mapFile reads path into memory. The file stays open so Sync can write back.
func mapFile(path string, readOnly bool) (*os.File, []byte, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if len(data) == 0 {
		_ = f.Close()
		return nil, nil, errors.New("empty table image")
	}
	return f, data, nil
}

func (f *File) sync(off, length int) error {
	_, err := f.f.WriteAt(f.data[off:off+length], int64(off))
	return err
}

// Close closes the file. Unsynced writes are lost. Closing twice is a no-op.
func (f *File) Close() error {
	var err error
	if f.f != nil {
		err = f.f.Close()
		f.f = nil
	}
	f.data = nil
	f.table = nil
	return err
}
