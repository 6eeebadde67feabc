// Package leader decodes and validates the 24-byte Leader, including the
// permissive repairs of spec.md §4.3/§4.6: a base address that disagrees
// with the directory is recomputed rather than rejected outright, and a
// non-digit in one of the two decimal fields is reported through the
// diagnostics.Policy rather than panicking the caller.
package leader

import (
	"github.com/go-marc/marc21/diagnostics"
	"github.com/go-marc/marc21/marcrec"
	"github.com/go-marc/marc21/wire"
)

// Parse decodes buf, the 24 raw Leader bytes, into a marcrec.Leader.
//
// A non-ASCII-digit byte within either decimal field (length or base
// address) is recorded as a MalformedLeader diagnostic; under a
// permissive policy the offending field is treated as zero and decoding
// continues, otherwise Parse returns the diagnostic's error.
func Parse(buf [wire.LeaderLength]byte, pol *diagnostics.Policy) (marcrec.Leader, error) {
	var ld marcrec.Leader

	length, err := parseDecimal(buf[wire.LeaderLengthStart:wire.LeaderLengthEnd], pol, "record length")
	if err != nil {
		return marcrec.Leader{}, err
	}
	ld.Length = length

	baseAddr, err := parseDecimal(buf[wire.BaseAddressStart:wire.BaseAddressEnd], pol, "base address of data")
	if err != nil {
		return marcrec.Leader{}, err
	}
	ld.BaseAddress = baseAddr

	ld.RecordStatus = buf[wire.RecordStatusPos]
	ld.TypeOfRecord = buf[wire.TypeOfRecordPos]
	ld.BibLevel = buf[wire.BibLevelPos]
	ld.CharCodingScheme = buf[wire.CharCodingSchemePos]
	ld.IndicatorCount = buf[wire.IndicatorCountPos]
	ld.SubfieldCodeCount = buf[wire.SubfieldCodeCountPos]
	ld.EncodingLevel = buf[wire.EncodingLevelPos]
	ld.DescriptiveCatalogingForm = buf[wire.DescriptiveCatalogingFormPos]
	ld.MultipartResource = buf[wire.MultipartResourcePos]
	ld.LenOfLength = buf[wire.LenOfLengthPos]
	ld.LenOfStartingCharPos = buf[wire.LenOfStartingCharPos]
	ld.LenOfImplementationDefined = buf[wire.LenOfImplementationDefinedPos]
	ld.Undefined = buf[wire.UndefinedPos]

	return ld, nil
}

// ReconcileBaseAddress compares the Leader's stated base address against
// the base address implied by the end of the directory (directoryEnd,
// the offset of the byte following the directory's field terminator).
// When they disagree, it records a BaseAddressCorrected diagnostic and
// returns the implied value; a permissive policy repairs silently aside
// from the diagnostic, a non-permissive one still repairs but the
// caller may choose to treat the diagnostic as fatal by inspecting its
// Severity (MinorError, never Fatal on its own: spec.md §4.6 lists base
// address mismatch as repairable).
func ReconcileBaseAddress(ld marcrec.Leader, directoryEnd int, pol *diagnostics.Policy) (marcrec.Leader, error) {
	if ld.BaseAddress == directoryEnd {
		return ld, nil
	}
	d := diagnostics.NewDiagnostic(diagnostics.MinorError, diagnostics.KindBaseAddressCorrected,
		"leader base address disagrees with directory end; using directory end")
	if err := pol.Record(d); err != nil {
		return ld, err
	}
	ld.BaseAddress = directoryEnd
	return ld, nil
}

// parseDecimal reads a fixed-width ASCII decimal field, recording a
// MalformedLeader diagnostic (and, under a non-permissive policy,
// failing) if any byte is not an ASCII digit.
func parseDecimal(field []byte, pol *diagnostics.Policy, what string) (int, error) {
	v := 0
	malformed := false
	for _, b := range field {
		if b < '0' || b > '9' {
			malformed = true
			continue
		}
		v = v*10 + int(b-'0')
	}
	if malformed {
		d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindMalformedLeader,
			"leader "+what+" contains a non-digit byte")
		if err := pol.Record(d); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return v, nil
}
