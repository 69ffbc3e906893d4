package trace

import "encoding/binary"

// Canonical encoders for building trace byte streams in tests. The
// decoder itself is read-only; these exist so test suites (including
// the integration test) can produce well-formed input without golden
// binary fixtures.

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// BuildHeader encodes a trace header.
func BuildHeader(version int8, tables, rows, banks uint32) []byte {
	b := []byte{byte(version)}
	b = appendUint32(b, tables)
	b = appendUint32(b, rows)
	b = appendUint32(b, banks)
	return b
}

// BuildTraining encodes one tagged training record from its decoded
// form. The 64-bit cycle, PC and target are written as low/high
// 32-bit halves, matching the wire layout.
func BuildTraining(tr TrainingRecord) []byte {
	b := []byte{tagTraining}
	b = appendUint32(b, uint32(tr.Cycle))
	b = appendUint32(b, uint32(tr.Cycle>>32))
	b = appendUint32(b, uint32(tr.PC))
	b = appendUint32(b, uint32(tr.PC>>32))
	b = appendBool(b, tr.Correct)
	b = appendBool(b, tr.Taken)
	b = appendUint32(b, uint32(tr.Target))
	b = appendUint32(b, uint32(tr.Target>>32))
	b = appendUint32(b, uint32(tr.Yout))
	b = appendUint16(b, uint16(tr.BiasAtLookup))
	b = appendUint32(b, uint32(tr.ThetaAtTraining))
	b = appendUint16(b, uint16(tr.BiasAtTraining))
	b = appendBool(b, tr.SHPQFound)
	b = append(b, byte(tr.State))
	b = appendBool(b, tr.Indirect)
	b = appendBool(b, tr.Unconditional)
	return b
}

// BuildWeight encodes one tagged weight record. FlatTableIndex is
// derived at decode time and ignored here.
func BuildWeight(wr WeightRecord) []byte {
	b := []byte{tagWeight}
	b = appendUint32(b, uint32(wr.Table))
	b = appendUint32(b, uint32(wr.Row))
	b = appendUint32(b, uint32(wr.Bank))
	b = appendUint16(b, uint16(wr.LookupWeight))
	b = appendUint16(b, uint16(wr.NewWeight))
	b = appendUint16(b, uint16(wr.DeltaWeight))
	b = appendBool(b, wr.Duplicate)
	b = appendBool(b, wr.Thrash)
	return b
}
