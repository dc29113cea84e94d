//go:build unix

package loader

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile mmaps path RW (or RO) so table rows can be mutated in place.
func mapFile(path string, readOnly bool) (*os.File, []byte, error) {
	flag, prot := os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE
	if readOnly {
		flag, prot = os.O_RDONLY, unix.PROT_READ
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	sz := st.Size()
	if sz == 0 {
		_ = f.Close()
		return nil, nil, errors.New("empty table image")
	}
	if sz > int64(^uint(0)>>1) {
		_ = f.Close()
		return nil, nil, fmt.Errorf("file too large to map (%d bytes)", sz)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(sz), prot, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("mmap failed: %w", err)
	}
	return f, data, nil
}

// sync msyncs the pages covering [off, off+length). msync needs a
// page-aligned start, so off is rounded down.
func (f *File) sync(off, length int) error {
	page := os.Getpagesize()
	start := off &^ (page - 1)
	return unix.Msync(f.data[start:off+length], unix.MS_SYNC)
}

// Close unmaps and closes the file. Closing twice is a no-op.
func (f *File) Close() error {
	var err error
	if f.data != nil {
		err = unix.Munmap(f.data)
		f.data = nil
	}
	if f.f != nil {
		err = errors.Join(err, f.f.Close())
		f.f = nil
	}
	f.table = nil
	return err
}
