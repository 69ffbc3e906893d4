package trace

import "fmt"

// FormatVersionError reports a trace header whose format version is not
// the supported one. It is fatal to the stream: initialization stops
// and the reader is unusable afterward.
type FormatVersionError struct {
	Got int8
}

func (e *FormatVersionError) Error() string {
	return fmt.Sprintf("unsupported trace format version %d (supported: %d)", e.Got, SupportedFormatVersion)
}

// BufferOverrunError reports a decode attempted past the staged bytes.
// This is always a contract violation by the decoding code itself
// (readiness was not awaited), never caused by file content.
type BufferOverrunError struct {
	Cursor int
	Need   int
	Staged int
}

func (e *BufferOverrunError) Error() string {
	return fmt.Sprintf("decode overran staged bytes: cursor %d + %d > %d staged", e.Cursor, e.Need, e.Staged)
}

// UnsupportedValueError reports a 64-bit field whose value cannot be
// represented under the decoder's numeric contract: negative, or above
// the 2^53 exact-integer ceiling required by downstream consumers.
// The record carrying it is consumed but not produced.
type UnsupportedValueError struct {
	Field string
	High  uint32
	Low   uint32
}

func (e *UnsupportedValueError) Error() string {
	if e.High&0x80000000 != 0 {
		return fmt.Sprintf("%s: negative 64-bit value (high half 0x%08X) is unsupported", e.Field, e.High)
	}
	return fmt.Sprintf("%s: 64-bit value 0x%08X_%08X exceeds the exact-integer range", e.Field, e.High, e.Low)
}

// UnknownRecordTypeError reports an unrecognized record tag byte. The
// stream position past the bad byte is not well defined; whether to
// abort or press on is the caller's policy.
type UnknownRecordTypeError struct {
	Tag    byte
	Offset int64
}

func (e *UnknownRecordTypeError) Error() string {
	return fmt.Sprintf("unknown record tag 0x%02X at offset %d", e.Tag, e.Offset)
}
