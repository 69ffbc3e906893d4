package trace

import (
	"context"
	"fmt"
	"io"

	"fortio.org/safecast"

	"bptrace/common"
	"bptrace/source"
)

// ReaderState tracks the reader's lifecycle.
type ReaderState int

const (
	StateUninitialized ReaderState = iota
	StateHeaderRead
	StateStreaming
	StateEnded
)

func (s ReaderState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHeaderRead:
		return "header-read"
	case StateStreaming:
		return "streaming"
	case StateEnded:
		return "ended"
	default:
		return "invalid"
	}
}

// Reader decodes a branch-predictor trace stream: one header, then a
// pull-based sequence of training and weight records. A Reader owns
// its CursorBuffer exclusively and is not safe for concurrent use.
type Reader struct {
	buf *CursorBuffer
	Log common.Logger

	state     ReaderState
	header    Header
	bankCount int32

	trainingSeen uint64 // soft ordering check only
	truncated    int    // bytes dropped from a truncated trailing record
}

// NewReader creates a reader over the given loader.
func NewReader(loader *source.Loader) *Reader {
	return NewReaderWithLogger(loader, common.NewNoOpLogger())
}

// NewReaderWithLogger creates a reader with a custom logger.
func NewReaderWithLogger(loader *source.Loader, logger common.Logger) *Reader {
	return &Reader{
		buf: NewCursorBuffer(loader),
		Log: logger,
	}
}

// Init performs the one-time async initialization: awaits the header's
// fixed width, decodes and validates it. A version mismatch returns a
// *FormatVersionError and leaves the reader unusable.
func (r *Reader) Init(ctx context.Context) error {
	if r.state != StateUninitialized {
		return fmt.Errorf("trace: Init called in state %s", r.state)
	}

	if err := r.buf.AwaitReady(ctx, HeaderSize); err != nil {
		return fmt.Errorf("trace: load header: %w", err)
	}
	if r.buf.Remaining() < HeaderSize {
		return fmt.Errorf("trace: resource ends inside header: %d of %d bytes", r.buf.Remaining(), HeaderSize)
	}

	r.header.Version = r.buf.Int8()
	if r.header.Version != SupportedFormatVersion {
		return &FormatVersionError{Got: r.header.Version}
	}
	r.header.TableCount = r.buf.Uint32()
	r.header.RowCount = r.buf.Uint32()
	r.header.BankCount = r.buf.Uint32()
	if err := r.buf.Err(); err != nil {
		return fmt.Errorf("trace: decode header: %w", err)
	}

	bankCount, err := safecast.Conv[int32](r.header.BankCount)
	if err != nil {
		return fmt.Errorf("trace: header bank count %d: %w", r.header.BankCount, err)
	}
	r.bankCount = bankCount

	r.state = StateHeaderRead
	r.Log.Logf(common.SeverityDebug, "header: version=%d tables=%d rows=%d banks=%d",
		r.header.Version, r.header.TableCount, r.header.RowCount, r.header.BankCount)
	// HeaderRead -> Streaming is immediate; there is nothing between
	// the header and the first record.
	r.state = StateStreaming
	return nil
}

// Header returns the decoded trace header. Valid after Init.
func (r *Reader) Header() Header { return r.header }

// State returns the reader's lifecycle state.
func (r *Reader) State() ReaderState { return r.state }

// TrainingCount returns the number of training records decoded so far.
func (r *Reader) TrainingCount() uint64 { return r.trainingSeen }

// TruncatedTailBytes returns the number of bytes dropped from a
// truncated trailing record, if the stream ended mid-record.
func (r *Reader) TruncatedTailBytes() int { return r.truncated }

// Offset returns the absolute resource offset of the next unread byte.
// Between records this is the offset of the next record's tag.
func (r *Reader) Offset() int64 { return r.buf.Offset() }

// AwaitRecord blocks until enough bytes are staged to decode one
// record (or the source is exhausted). Call before each NextRecord.
func (r *Reader) AwaitRecord(ctx context.Context) error {
	if r.state != StateStreaming && r.state != StateEnded {
		return fmt.Errorf("trace: AwaitRecord called in state %s", r.state)
	}
	return r.buf.AwaitReady(ctx, RecordBudget)
}

// NextRecord decodes one record synchronously. The caller must have
// awaited readiness via AwaitRecord. End of stream is reported as
// io.EOF, a normal return value, and is idempotent; a truncated
// trailing record also ends the stream cleanly. Decode failures are
// typed: *UnknownRecordTypeError for a foreign tag (no resync is
// attempted), *UnsupportedValueError for an unrepresentable cycle
// value (the record is consumed but not produced).
func (r *Reader) NextRecord() (Record, error) {
	switch r.state {
	case StateStreaming:
		// steady state
	case StateEnded:
		return Record{}, io.EOF
	default:
		return Record{}, fmt.Errorf("trace: NextRecord called in state %s", r.state)
	}

	if r.buf.Remaining() == 0 {
		if r.buf.SourceExhausted() {
			r.state = StateEnded
			return Record{}, io.EOF
		}
		return Record{}, &BufferOverrunError{Cursor: 0, Need: 1, Staged: 0}
	}

	tagOffset := r.buf.Offset()
	tag := r.buf.Byte()
	if err := r.buf.Err(); err != nil {
		return Record{}, err
	}

	switch tag {
	case tagTraining:
		if r.endsBeforeBody(TrainingRecordSize) {
			return Record{}, io.EOF
		}
		return r.decodeTraining()
	case tagWeight:
		if r.endsBeforeBody(WeightRecordSize) {
			return Record{}, io.EOF
		}
		return r.decodeWeight()
	default:
		return Record{}, &UnknownRecordTypeError{Tag: tag, Offset: tagOffset}
	}
}

// Next awaits readiness and decodes one record. It is the pull
// iterator collaborators consume.
func (r *Reader) Next(ctx context.Context) (Record, error) {
	if err := r.AwaitRecord(ctx); err != nil {
		return Record{}, err
	}
	return r.NextRecord()
}

// endsBeforeBody reports whether the stream ends before a full record
// body of the given width. A truncated tail is the normal fate of a
// simulation killed without flushing: it ends the stream cleanly
// rather than erroring.
func (r *Reader) endsBeforeBody(width int) bool {
	if r.buf.Remaining() >= width {
		return false
	}
	if !r.buf.SourceExhausted() {
		// Readiness was not awaited; let the decode primitives trip the
		// overrun contract.
		return false
	}
	r.truncated = r.buf.Remaining() + 1 // body fragment plus its tag
	r.state = StateEnded
	r.Log.Logf(common.SeverityWarning, "truncated trailing record: %d bytes dropped", r.truncated)
	return true
}

func (r *Reader) decodeTraining() (Record, error) {
	var tr TrainingRecord
	cycle, cycleErr := r.buf.Uint64("cycle")
	tr.Cycle = cycle
	pcLo := r.buf.Uint32()
	pcHi := r.buf.Uint32()
	tr.PC = uint64(pcHi)<<32 | uint64(pcLo)
	tr.Correct = r.buf.Int8() != 0
	tr.Taken = r.buf.Int8() != 0
	targetLo := r.buf.Uint32()
	targetHi := r.buf.Uint32()
	tr.Target = uint64(targetHi)<<32 | uint64(targetLo)
	tr.Yout = r.buf.Int32()
	tr.BiasAtLookup = r.buf.Int16()
	tr.ThetaAtTraining = r.buf.Int32()
	tr.BiasAtTraining = r.buf.Int16()
	tr.SHPQFound = r.buf.Int8() != 0
	tr.State = DynamicState(r.buf.Int8())
	tr.Indirect = r.buf.Int8() != 0
	tr.Unconditional = r.buf.Int8() != 0

	if err := r.buf.Err(); err != nil {
		return Record{}, err
	}
	if cycleErr != nil {
		// The whole body was consumed above, so the stream stays in
		// sync; only this record is lost.
		return Record{}, cycleErr
	}

	r.trainingSeen++
	return Record{Kind: KindTraining, Training: tr}, nil
}

func (r *Reader) decodeWeight() (Record, error) {
	advisory := ""
	if r.trainingSeen == 0 {
		advisory = "weight record observed before any training record - file may be inconsistent"
		r.Log.Warning(advisory)
	}

	var wr WeightRecord
	wr.Table = r.buf.Int32()
	wr.Row = r.buf.Int32()
	wr.Bank = r.buf.Int32()
	wr.LookupWeight = r.buf.Int16()
	wr.NewWeight = r.buf.Int16()
	wr.DeltaWeight = r.buf.Int16()
	wr.Duplicate = r.buf.Int8() != 0
	wr.Thrash = r.buf.Int8() != 0

	if err := r.buf.Err(); err != nil {
		return Record{}, err
	}

	wr.FlatTableIndex = wr.Table*r.bankCount + wr.Bank
	return Record{Kind: KindWeight, Weight: wr, Advisory: advisory}, nil
}
