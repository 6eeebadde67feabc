package marcrec

import "github.com/go-marc/marc21/wire"

// Leader is the decoded 24-byte Leader (spec.md §3).
type Leader struct {
	// Length is the stated record length (positions 0-4).
	Length int
	// RecordStatus is the byte at position 5.
	RecordStatus byte
	// TypeOfRecord is the byte at position 6.
	TypeOfRecord byte
	// BibLevel is the byte at position 7.
	BibLevel byte
	// CharCodingScheme is the byte at position 9: ' ' (MARC-8) or 'a'
	// (UCS/Unicode).
	CharCodingScheme byte
	// IndicatorCount is the byte at position 10.
	IndicatorCount byte
	// SubfieldCodeCount is the byte at position 11.
	SubfieldCodeCount byte
	// BaseAddress is the stated base address of data (positions 12-16).
	BaseAddress int
	// EncodingLevel is the byte at position 17.
	EncodingLevel byte
	// DescriptiveCatalogingForm is the byte at position 18.
	DescriptiveCatalogingForm byte
	// MultipartResource is the byte at position 19.
	MultipartResource byte
	// LenOfLength is the byte at position 20.
	LenOfLength byte
	// LenOfStartingCharPos is the byte at position 21.
	LenOfStartingCharPos byte
	// LenOfImplementationDefined is the byte at position 22.
	LenOfImplementationDefined byte
	// Undefined is the byte at position 23.
	Undefined byte
}

// IsUnicode reports whether the Leader declares UTF-8 content.
func (l Leader) IsUnicode() bool {
	return l.CharCodingScheme == wire.CharCodingUnicode
}

// Bytes renders the Leader back to its 24-byte wire form.
func (l Leader) Bytes() [wire.LeaderLength]byte {
	var b [wire.LeaderLength]byte
	putDecimal(b[wire.LeaderLengthStart:wire.LeaderLengthEnd], l.Length)
	b[wire.RecordStatusPos] = l.RecordStatus
	b[wire.TypeOfRecordPos] = l.TypeOfRecord
	b[wire.BibLevelPos] = l.BibLevel
	b[8] = ' '
	b[wire.CharCodingSchemePos] = l.CharCodingScheme
	b[wire.IndicatorCountPos] = l.IndicatorCount
	b[wire.SubfieldCodeCountPos] = l.SubfieldCodeCount
	putDecimal(b[wire.BaseAddressStart:wire.BaseAddressEnd], l.BaseAddress)
	b[wire.EncodingLevelPos] = l.EncodingLevel
	b[wire.DescriptiveCatalogingFormPos] = l.DescriptiveCatalogingForm
	b[wire.MultipartResourcePos] = l.MultipartResource
	b[wire.LenOfLengthPos] = l.LenOfLength
	b[wire.LenOfStartingCharPos] = l.LenOfStartingCharPos
	b[wire.LenOfImplementationDefinedPos] = l.LenOfImplementationDefined
	b[wire.UndefinedPos] = l.Undefined
	return b
}

// String renders the Leader as its raw 24-character form, matching the
// "LEADER " prefix convention of Record.String (spec.md §4.5).
func (l Leader) String() string {
	b := l.Bytes()
	return string(b[:])
}

func putDecimal(dst []byte, v int) {
	if v < 0 {
		v = 0
	}
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
}
