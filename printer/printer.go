// Package printer formats decoded trace records as text lines for
// human inspection.
package printer

import (
	"fmt"
	"strings"

	"bptrace/trace"
)

// FormatHeaderLine formats the trace header summary line.
func FormatHeaderLine(h trace.Header) string {
	return fmt.Sprintf("Header; version=%d; tables=%d; rows=%d; banks=%d",
		h.Version, h.TableCount, h.RowCount, h.BankCount)
}

// FormatRecordLine formats one decoded record with its resource
// offset: "Idx:<offset>; [<kind>]; <fields>".
func FormatRecordLine(offset int64, rec trace.Record) string {
	line := fmt.Sprintf("Idx:%d; [%s]; %s", offset, rec.Kind, recordDescription(rec))
	if rec.Advisory != "" {
		line += "; advisory: " + rec.Advisory
	}
	return line
}

func recordDescription(rec trace.Record) string {
	switch rec.Kind {
	case trace.KindTraining:
		return trainingDescription(rec.Training)
	case trace.KindWeight:
		return weightDescription(rec.Weight)
	default:
		return "unknown record kind"
	}
}

func trainingDescription(tr trace.TrainingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle=%d; pc=0x%X; %s; %s; target=0x%X",
		tr.Cycle, tr.PC, execMark("correct", tr.Correct), execMark("taken", tr.Taken), tr.Target)
	fmt.Fprintf(&b, "; yout=%d; bias=%d/%d; theta=%d; state=%s",
		tr.Yout, tr.BiasAtLookup, tr.BiasAtTraining, tr.ThetaAtTraining, tr.State)
	if tr.SHPQFound {
		b.WriteString("; shpq")
	}
	if tr.Indirect {
		b.WriteString("; indirect")
	}
	if tr.Unconditional {
		b.WriteString("; unconditional")
	}
	return b.String()
}

func weightDescription(wr trace.WeightRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cell=%d (table=%d bank=%d); row=%d; weight %d -> %d (delta %d)",
		wr.FlatTableIndex, wr.Table, wr.Bank, wr.Row, wr.LookupWeight, wr.NewWeight, wr.DeltaWeight)
	if wr.Duplicate {
		b.WriteString("; duplicate")
	}
	if wr.Thrash {
		b.WriteString("; thrash")
	}
	return b.String()
}

func execMark(name string, set bool) string {
	if set {
		return name
	}
	return "not-" + name
}
