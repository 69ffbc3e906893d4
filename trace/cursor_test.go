package trace

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"bptrace/source"
)

func newStagedBuffer(t *testing.T, data []byte) *CursorBuffer {
	t.Helper()
	loader := source.NewLoaderWithChunkSize(source.NewMemorySource(data), len(data)+1)
	if err := loader.RequestAtLeast(context.Background(), len(data)); err != nil {
		t.Fatalf("staging test bytes: %v", err)
	}
	return NewCursorBuffer(loader)
}

func TestCursorBuffer_Int8RoundTrip(t *testing.T) {
	for _, want := range []int8{0, 1, -1, 127, -128, 42, -42} {
		buf := newStagedBuffer(t, []byte{byte(want)})
		if got := buf.Int8(); got != want {
			t.Errorf("Int8() = %d, want %d", got, want)
		}
		if err := buf.Err(); err != nil {
			t.Errorf("Err() after Int8(%d) = %v", want, err)
		}
	}
}

func TestCursorBuffer_Int16RoundTrip(t *testing.T) {
	for _, want := range []int16{0, 1, -1, 32767, -32768, 1234, -1234} {
		data := binary.LittleEndian.AppendUint16(nil, uint16(want))
		buf := newStagedBuffer(t, data)
		if got := buf.Int16(); got != want {
			t.Errorf("Int16() = %d, want %d", got, want)
		}
	}
}

func TestCursorBuffer_Int32RoundTrip(t *testing.T) {
	// The sign bit of the top byte must propagate correctly.
	for _, want := range []int32{0, 1, -1, 2147483647, -2147483648, 0x7F000000, -0x7F000000} {
		data := binary.LittleEndian.AppendUint32(nil, uint32(want))
		buf := newStagedBuffer(t, data)
		if got := buf.Int32(); got != want {
			t.Errorf("Int32() = %d, want %d", got, want)
		}
	}
}

func TestCursorBuffer_Uint32RoundTrip(t *testing.T) {
	// Top-byte values >= 0x80 must not corrupt the result.
	for _, want := range []uint32{0, 1, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF, 0xDEADBEEF} {
		data := binary.LittleEndian.AppendUint32(nil, want)
		buf := newStagedBuffer(t, data)
		if got := buf.Uint32(); got != want {
			t.Errorf("Uint32() = %d, want %d", got, want)
		}
	}
}

func TestCursorBuffer_Uint64(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  uint32
		want    uint64
		wantErr bool
	}{
		{"all zero bytes", 0, 0, 0, false},
		{"low half only", 0xDEADBEEF, 0, 0xDEADBEEF, false},
		{"known cycle value", uint32(137977929760125 & 0xFFFFFFFF), uint32(137977929760125 >> 32), 137977929760125, false},
		{"high half at limit", 0, 1 << 21, uint64(1<<21) << 32, false},
		{"high half beyond precision", 0, (1 << 21) + 1, 0, true},
		{"sign bit set", 0xFFFFFFFF, 0x80000000, 0, true},
		{"negative one", 0xFFFFFFFF, 0xFFFFFFFF, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := binary.LittleEndian.AppendUint32(nil, tt.lo)
			data = binary.LittleEndian.AppendUint32(data, tt.hi)
			buf := newStagedBuffer(t, data)

			got, err := buf.Uint64("cycle")
			if tt.wantErr {
				var uve *UnsupportedValueError
				if !errors.As(err, &uve) {
					t.Fatalf("Uint64() error = %v, want *UnsupportedValueError", err)
				}
				if uve.Field != "cycle" {
					t.Errorf("error field = %q, want %q", uve.Field, "cycle")
				}
			} else {
				if err != nil {
					t.Fatalf("Uint64() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("Uint64() = %d, want %d", got, tt.want)
				}
			}
			// The 8 bytes are consumed either way.
			if rem := buf.Remaining(); rem != 0 {
				t.Errorf("Remaining() after Uint64 = %d, want 0", rem)
			}
		})
	}
}

func TestCursorBuffer_MixedSequence(t *testing.T) {
	var data []byte
	data = append(data, 0xFE) // int8 -2
	n16 := int16(-300)
	data = binary.LittleEndian.AppendUint16(data, uint16(n16))
	data = binary.LittleEndian.AppendUint32(data, 0x89ABCDEF)
	n32 := int32(-70000)
	data = binary.LittleEndian.AppendUint32(data, uint32(n32))
	buf := newStagedBuffer(t, data)

	if got := buf.Int8(); got != -2 {
		t.Errorf("Int8() = %d, want -2", got)
	}
	if got := buf.Int16(); got != -300 {
		t.Errorf("Int16() = %d, want -300", got)
	}
	if got := buf.Uint32(); got != 0x89ABCDEF {
		t.Errorf("Uint32() = 0x%X, want 0x89ABCDEF", got)
	}
	if got := buf.Int32(); got != -70000 {
		t.Errorf("Int32() = %d, want -70000", got)
	}
	if err := buf.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestCursorBuffer_Overrun(t *testing.T) {
	buf := newStagedBuffer(t, []byte{0x01, 0x02})

	if got := buf.Int32(); got != 0 {
		t.Errorf("overrunning Int32() = %d, want 0", got)
	}
	var boe *BufferOverrunError
	if !errors.As(buf.Err(), &boe) {
		t.Fatalf("Err() = %v, want *BufferOverrunError", buf.Err())
	}
	if boe.Cursor != 0 || boe.Need != 4 || boe.Staged != 2 {
		t.Errorf("overrun detail = %+v", boe)
	}

	// Sticky: the cursor does not advance and later primitives no-op.
	if got := buf.Remaining(); got != 2 {
		t.Errorf("Remaining() after overrun = %d, want 2", got)
	}
	if got := buf.Int8(); got != 0 {
		t.Errorf("Int8() after sticky error = %d, want 0", got)
	}
}

func TestCursorBuffer_Ready(t *testing.T) {
	data := make([]byte, 16)
	loader := source.NewLoaderWithChunkSize(source.NewMemorySource(data), 4)
	buf := NewCursorBuffer(loader)

	if buf.Ready(1) {
		t.Error("Ready(1) = true with nothing staged")
	}
	if err := buf.AwaitReady(context.Background(), 8); err != nil {
		t.Fatalf("AwaitReady() error = %v", err)
	}
	if !buf.Ready(8) {
		t.Error("Ready(8) = false after awaiting 8")
	}

	// Monotonic: additive loads never turn readiness off.
	if err := buf.AwaitReady(context.Background(), 12); err != nil {
		t.Fatalf("AwaitReady() error = %v", err)
	}
	if !buf.Ready(8) {
		t.Error("Ready(8) turned false after an additive load")
	}
}

func TestCursorBuffer_ReadyAtExhaustion(t *testing.T) {
	buf := newStagedBuffer(t, []byte{0x01, 0x02})

	// Fewer bytes than the budget, but the source is done and bytes
	// remain: ready (final-record case).
	if !buf.Ready(100) {
		t.Error("Ready(100) = false at exhaustion with bytes remaining")
	}

	buf.Byte()
	buf.Byte()
	if buf.Ready(1) {
		t.Error("Ready(1) = true with nothing remaining")
	}
}

func TestCursorBuffer_AwaitReadyCompacts(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	loader := source.NewLoaderWithChunkSize(source.NewMemorySource(data), 8)
	buf := NewCursorBuffer(loader)
	ctx := context.Background()

	if err := buf.AwaitReady(ctx, 8); err != nil {
		t.Fatalf("AwaitReady() error = %v", err)
	}
	for i := 0; i < 6; i++ {
		buf.Byte()
	}
	if err := buf.AwaitReady(ctx, 8); err != nil {
		t.Fatalf("AwaitReady() error = %v", err)
	}

	// Consumed bytes were discarded; the next unread byte is unchanged.
	if got := buf.Offset(); got != 6 {
		t.Errorf("Offset() after compaction = %d, want 6", got)
	}
	if got := buf.Byte(); got != 0x06 {
		t.Errorf("Byte() after compaction = 0x%02X, want 0x06", got)
	}
	if loader.CurrentSize() > 16 {
		t.Errorf("staged %d bytes after compaction, window not bounded", loader.CurrentSize())
	}
}
