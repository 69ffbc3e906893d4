package trace

import (
	"context"
	"encoding/binary"

	"bptrace/source"
)

// maxCycleHigh caps the high half of a 64-bit cycle value so the
// reconstructed value stays within 2^53. Downstream visualization
// collaborators exchange these values as float64/JSON numbers, which
// only represent integers exactly up to that ceiling.
const maxCycleHigh = 1 << 21

// CursorBuffer turns the staged byte backlog into typed values and
// arbitrates whether enough data is buffered to attempt a decode.
// All integers are little-endian. Decode primitives advance an
// internal cursor; overrunning the staged region sets a sticky
// BufferOverrunError, observable via Err, and later primitives become
// no-ops. Callers check readiness before decoding, so a set error is a
// bug in the decoding control flow, not malformed input.
type CursorBuffer struct {
	loader *source.Loader
	cursor int
	err    error
}

// NewCursorBuffer creates a cursor buffer over the given loader.
func NewCursorBuffer(loader *source.Loader) *CursorBuffer {
	return &CursorBuffer{loader: loader}
}

// Remaining returns the number of staged bytes beyond the cursor.
func (b *CursorBuffer) Remaining() int {
	return b.loader.CurrentSize() - b.cursor
}

// SourceExhausted reports whether the backing resource has no further
// bytes to offer.
func (b *CursorBuffer) SourceExhausted() bool {
	return b.loader.AtEnd()
}

// Ready reports whether a decode with the given byte budget may be
// attempted: either the budget is fully staged, or the source is
// exhausted and at least one byte remains (the final-record case).
func (b *CursorBuffer) Ready(budget int) bool {
	remaining := b.Remaining()
	return remaining >= budget || (b.SourceExhausted() && remaining > 0)
}

// AwaitReady blocks until Ready(budget) would hold or the source is
// exhausted. Consumed bytes are compacted away first, so memory stays
// bounded to roughly one readiness window.
func (b *CursorBuffer) AwaitReady(ctx context.Context, budget int) error {
	if b.cursor > 0 {
		b.loader.Discard(b.cursor)
		b.cursor = 0
	}
	if b.Remaining() >= budget {
		return nil
	}
	return b.loader.RequestAtLeast(ctx, budget)
}

// Err returns the sticky decode error, if any: a *BufferOverrunError
// after an overrun. Content-level failures (unsupported 64-bit values)
// are returned by the primitive itself, not stored here.
func (b *CursorBuffer) Err() error {
	return b.err
}

// Offset returns the absolute resource offset of the cursor.
func (b *CursorBuffer) Offset() int64 {
	return b.loader.StartOffset() + int64(b.cursor)
}

// take returns width bytes at the cursor and advances it, keeping the
// cursor <= staged invariant. Returns nil once the sticky error is set.
func (b *CursorBuffer) take(width int) []byte {
	if b.err != nil {
		return nil
	}
	staged := b.loader.Bytes()
	if b.cursor+width > len(staged) {
		b.err = &BufferOverrunError{Cursor: b.cursor, Need: width, Staged: len(staged)}
		return nil
	}
	p := staged[b.cursor : b.cursor+width]
	b.cursor += width
	return p
}

// Byte decodes one raw byte (record tags).
func (b *CursorBuffer) Byte() byte {
	p := b.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

// Int8 decodes a two's-complement signed byte.
func (b *CursorBuffer) Int8() int8 {
	return int8(b.Byte())
}

// Int16 decodes a little-endian two's-complement 16-bit value.
func (b *CursorBuffer) Int16() int16 {
	p := b.take(2)
	if p == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(p))
}

// Int32 decodes a little-endian two's-complement 32-bit value.
func (b *CursorBuffer) Int32() int32 {
	p := b.take(4)
	if p == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(p))
}

// Uint32 decodes a little-endian unsigned 32-bit value.
func (b *CursorBuffer) Uint32() uint32 {
	p := b.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

// Uint64 decodes a little-endian 64-bit value as two 32-bit halves.
// The 8 bytes are always consumed, even when the value is rejected, so
// one bad value cannot desynchronize the records that follow. A high
// half with the sign bit set (a negative value in the producer's
// encoding) or above maxCycleHigh yields an *UnsupportedValueError.
func (b *CursorBuffer) Uint64(field string) (uint64, error) {
	p := b.take(8)
	if p == nil {
		return 0, nil
	}
	lo := binary.LittleEndian.Uint32(p)
	hi := binary.LittleEndian.Uint32(p[4:])
	if hi&0x80000000 != 0 || hi > maxCycleHigh {
		return 0, &UnsupportedValueError{Field: field, High: hi, Low: lo}
	}
	return uint64(hi)<<32 | uint64(lo), nil
}
