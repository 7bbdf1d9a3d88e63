// Package mmap provides read-only memory mapping of index files.
//
// On unix platforms the file is mapped PROT_READ/MAP_SHARED so a loaded
// index reads node records straight out of the page cache. Platforms
// without mmap support fall back to reading the file into memory; the
// semantics are identical, only the zero-copy property is lost.
package mmap

import (
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a whole file. It owns the mapped bytes
// and the descriptor, which stays open for the mapping's lifetime.
type Mapping struct {
	data   []byte
	f      *os.File
	closed atomic.Bool
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() < 0 || fi.Size() > int64(int(^uint(0)>>1)) {
		f.Close()
		return nil, ErrInvalidSize
	}

	m := &Mapping{f: f}
	if size := int(fi.Size()); size > 0 {
		if m.data, err = osMap(f, size); err != nil {
			f.Close()
			return nil, err
		}
	}
	return m, nil
}

// Bytes returns the mapped bytes. The slice is valid only until Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapping length in bytes.
func (m *Mapping) Size() int {
	if m.closed.Load() {
		return 0
	}
	return len(m.data)
}

// Region returns a bounds-checked view of size bytes at offset. The slice
// aliases the mapping and is valid only until Close.
func (m *Mapping) Region(offset, size int) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > len(m.data) {
		return nil, ErrOutOfBounds
	}
	return m.data[offset : offset+size], nil
}

// Advise hints the expected access pattern to the kernel. Best-effort:
// kernels that reject the advice are tolerated.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// Close unmaps the memory and closes the descriptor. It is idempotent and
// safe on a nil mapping.
func (m *Mapping) Close() error {
	if m == nil || m.closed.Swap(true) {
		return nil
	}

	var err error
	if m.data != nil {
		err = osUnmap(m.data)
		m.data = nil
	}
	if closeErr := m.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
