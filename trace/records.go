// Package trace decodes the branch-predictor simulator's binary trace
// format: a 13-byte header followed by an unbounded stream of tagged
// fixed-width records, two kinds so far. The format is closed; tag
// dispatch is an explicit enumeration, not open registration.
package trace

// SupportedFormatVersion is the single trace format version this
// decoder understands. Any other header version is a validation
// failure, not a crash.
const SupportedFormatVersion int8 = 4

// Wire sizes. Record bodies are fixed-width with no padding; each is
// preceded by a one-byte tag.
const (
	HeaderSize         = 13 // version int8 + table/row/bank counts uint32
	TrainingRecordSize = 42
	WeightRecordSize   = 20

	// RecordBudget is the readiness budget covering one tag byte plus
	// the larger record body. Awaiting it guarantees NextRecord never
	// overruns on well-formed input.
	RecordBudget = 1 + TrainingRecordSize
)

// Record tag bytes.
const (
	tagTraining byte = 'T'
	tagWeight   byte = 'W'
)

// Header holds the fixed fields read once at stream start. Immutable
// after construction.
type Header struct {
	Version    int8
	TableCount uint32
	RowCount   uint32
	BankCount  uint32
}

// RecordKind discriminates the record union.
type RecordKind int

const (
	KindTraining RecordKind = iota
	KindWeight
)

func (k RecordKind) String() string {
	switch k {
	case KindTraining:
		return "TRAINING"
	case KindWeight:
		return "WEIGHT"
	default:
		return "UNKNOWN"
	}
}

// DynamicState is the 2-bit classification of a branch's observed
// behavior. The decoder treats it as an opaque 0-3 code; the labels
// exist only for display.
type DynamicState uint8

const (
	StateEmpty DynamicState = iota
	StateMostlyTaken
	StateMostlyNotTaken
	StateAlternating
)

func (s DynamicState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateMostlyTaken:
		return "mostly-taken"
	case StateMostlyNotTaken:
		return "mostly-not-taken"
	case StateAlternating:
		return "alternating"
	default:
		return "invalid"
	}
}

// TrainingRecord marks the predictor being trained on the outcome of
// one branch. PC and Target are carried on the wire as 32-bit halves
// and combined here.
type TrainingRecord struct {
	Cycle           uint64
	PC              uint64
	Correct         bool
	Taken           bool
	Target          uint64
	Yout            int32
	BiasAtLookup    int16
	ThetaAtTraining int32
	BiasAtTraining  int16
	SHPQFound       bool
	State           DynamicState
	Indirect        bool
	Unconditional   bool
}

// WeightRecord marks one table-cell weight update. FlatTableIndex is
// table*bankCount + bank, with the bank count taken from the header.
type WeightRecord struct {
	Table          int32
	Row            int32
	Bank           int32
	FlatTableIndex int32
	LookupWeight   int16
	NewWeight      int16
	DeltaWeight    int16
	Duplicate      bool
	Thrash         bool
}

// Record is the tagged union handed to callers. Exactly the field
// selected by Kind is meaningful. Advisory carries a non-fatal
// diagnostic attached to this record (currently only the
// weight-before-training ordering advisory); empty otherwise.
type Record struct {
	Kind     RecordKind
	Training TrainingRecord
	Weight   WeightRecord
	Advisory string
}
