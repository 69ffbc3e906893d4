package source

import (
	"context"
	"fmt"
	"io"
)

// DefaultChunkSize is the load granularity used when none is given.
// It is a performance parameter only: decoding is correct for any
// chunk size >= 1 byte.
const DefaultChunkSize = 4 * 1024 * 1024

// Loader stages bytes from a ByteSource in bounded chunks, strictly in
// resource-offset order, and retains them until the consumer discards
// them. One Loader serves exactly one reader; it is not safe for
// concurrent use and permits a single outstanding load at a time.
type Loader struct {
	src       ByteSource
	chunkSize int

	offset   int64  // next resource offset to load; advances monotonically
	staged   []byte // loaded bytes not yet discarded
	consumed int64  // total bytes discarded so far
	inFlight bool
}

// NewLoader creates a Loader over src with the default chunk size.
func NewLoader(src ByteSource) *Loader {
	return NewLoaderWithChunkSize(src, DefaultChunkSize)
}

// NewLoaderWithChunkSize creates a Loader with an explicit chunk size.
// Sizes < 1 fall back to the default.
func NewLoaderWithChunkSize(src ByteSource, chunkSize int) *Loader {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Loader{src: src, chunkSize: chunkSize}
}

// RequestAtLeast loads chunks until at least n bytes are staged or the
// resource is exhausted, whichever comes first. It blocks the calling
// goroutine; ctx cancels a load between chunks. Only one request may
// be outstanding: overlapping calls are a caller bug and fail.
func (l *Loader) RequestAtLeast(ctx context.Context, n int) error {
	if l.inFlight {
		return fmt.Errorf("source: overlapping load request (single outstanding load only)")
	}
	l.inFlight = true
	defer func() { l.inFlight = false }()

	for len(l.staged) < n && !l.AtEnd() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.loadChunk(); err != nil {
			return err
		}
	}
	return nil
}

// loadChunk reads one chunk at the current resource offset and appends
// it to the staged bytes.
func (l *Loader) loadChunk() error {
	want := int64(l.chunkSize)
	if rest := l.src.Size() - l.offset; rest < want {
		want = rest
	}
	if want <= 0 {
		return nil
	}

	buf := make([]byte, want)
	read := 0
	for read < len(buf) {
		n, err := l.src.ReadAt(buf[read:], l.offset+int64(read))
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("source: read %d bytes at offset %d: %w", len(buf)-read, l.offset+int64(read), err)
		}
		if n == 0 {
			return fmt.Errorf("source: no progress reading at offset %d", l.offset+int64(read))
		}
	}

	if read == 0 {
		// The resource ended before its reported size; without this the
		// request loop could never terminate.
		return fmt.Errorf("source: resource ended at offset %d, expected %d bytes", l.offset, l.src.Size())
	}

	l.staged = append(l.staged, buf[:read]...)
	l.offset += int64(read)
	return nil
}

// CurrentSize returns the number of staged, not yet discarded bytes.
func (l *Loader) CurrentSize() int {
	return len(l.staged)
}

// Bytes exposes the staged bytes. The slice is only valid until the
// next RequestAtLeast or Discard call.
func (l *Loader) Bytes() []byte {
	return l.staged
}

// AtEnd reports whether the resource has been fully consumed up to its
// known size; no further bytes will ever become available.
func (l *Loader) AtEnd() bool {
	return l.offset >= l.src.Size()
}

// Discard permanently releases the first n staged bytes. Callers pass
// only bytes they have finished consuming.
func (l *Loader) Discard(n int) {
	if n <= 0 {
		return
	}
	if n > len(l.staged) {
		n = len(l.staged)
	}
	// Shift in place so the backing array stays bounded to roughly one
	// ready window instead of growing with the whole file.
	rest := copy(l.staged, l.staged[n:])
	l.staged = l.staged[:rest]
	l.consumed += int64(n)
}

// StartOffset returns the absolute resource offset of the first staged
// byte (or of the resource end once everything is consumed). Used for
// diagnostics only.
func (l *Loader) StartOffset() int64 {
	return l.consumed
}
