// Package source supplies raw trace bytes from a file-like resource in
// bounded chunks. It is the lowest layer of the decoder: a ByteSource
// answers ranged reads by absolute offset, and a Loader stages those
// bytes for the cursor layer above, strictly in offset order.
package source

import (
	"fmt"
	"io"
)

// ByteSource is the backing-resource contract consumed by a Loader:
// byte-range reads by absolute offset plus a total size query. Opening
// files or URLs is the caller's responsibility, not this package's.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// MemorySource is a ByteSource over an in-memory byte slice. It is
// used for small captures and throughout the tests.
type MemorySource struct {
	data []byte
}

// NewMemorySource creates a memory-backed byte source.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

// ReadAt implements io.ReaderAt.
func (m *MemorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total resource size in bytes.
func (m *MemorySource) Size() int64 {
	return int64(len(m.data))
}

// ReaderAtSource adapts any io.ReaderAt of known size (typically an
// *os.File) to the ByteSource interface.
type ReaderAtSource struct {
	r    io.ReaderAt
	size int64
}

// NewReaderAtSource wraps r, whose total size must be known up front.
func NewReaderAtSource(r io.ReaderAt, size int64) *ReaderAtSource {
	return &ReaderAtSource{r: r, size: size}
}

// ReadAt implements io.ReaderAt.
func (s *ReaderAtSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

// Size returns the total resource size in bytes.
func (s *ReaderAtSource) Size() int64 {
	return s.size
}
