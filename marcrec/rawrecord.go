package marcrec

import (
	"strings"

	farm "github.com/dgryski/go-farm"

	"github.com/go-marc/marc21/wire"
)

// RawRecord owns the contiguous byte buffer of exactly one record
// (Leader through Record Terminator inclusive), as frame.Extract sliced
// it off the byte stream, plus a lazily computed identifier. It wraps
// the same buffer directory.Decode turns into a Record, and is the
// handle the root
// marc package's Combine operates on directly, so two partial records'
// raw bytes can be concatenated without a decode/re-encode round trip.
type RawRecord struct {
	Raw []byte

	id      string
	idKnown bool
}

// NewRawRecord wraps buf, which must run from the Leader through the
// Record Terminator inclusive. It does not copy buf.
func NewRawRecord(buf []byte) *RawRecord {
	return &RawRecord{Raw: buf}
}

// NewRawRecordWithID wraps buf like NewRawRecord, but seeds the cached
// identifier to id instead of computing it from buf. marc.Combine uses
// this so a combined buffer (which contains two leaders back to back,
// and so would scan incorrectly) still reports the first record's "001"
// as its identifier, per spec.md §8 invariant 6.
func NewRawRecordWithID(buf []byte, id string) *RawRecord {
	return &RawRecord{Raw: buf, id: id, idKnown: true}
}

// ID returns the trimmed data of the record's "001" field, or "" if
// none is present. Per spec.md §9 DESIGN NOTES, this walks the
// directory structurally rather than decoding the whole record into a
// string first — the directory and lengths are pure ASCII digits, so
// no charset conversion is needed to find the field.
func (r *RawRecord) ID() string {
	if r.idKnown {
		return r.id
	}
	r.idKnown = true
	r.id = scanControlNumber(r.Raw)
	return r.id
}

// scanControlNumber walks raw's directory entries looking for tag
// "001", returning its trimmed field data or "" if not found or if the
// buffer is too short to contain a well-formed leader and directory.
func scanControlNumber(raw []byte) string {
	if len(raw) < wire.LeaderLength+1 {
		return ""
	}
	base, ok := parseASCIIDecimal(raw[wire.BaseAddressStart:wire.BaseAddressEnd])
	if !ok || base < wire.LeaderLength+1 || base > len(raw) {
		return ""
	}
	dir := raw[wire.LeaderLength : base-1]
	for off := 0; off+wire.DirectoryEntryWidth <= len(dir); off += wire.DirectoryEntryWidth {
		entry := dir[off : off+wire.DirectoryEntryWidth]
		tag := string(entry[:wire.TagWidth])
		if tag != wire.ControlNumberTag {
			continue
		}
		length, lok := parseASCIIDecimal(entry[wire.TagWidth : wire.TagWidth+wire.LengthWidth])
		offset, ook := parseASCIIDecimal(entry[wire.TagWidth+wire.LengthWidth:])
		if !lok || !ook {
			return ""
		}
		start := base + offset
		end := start + length
		if start < 0 || end > len(raw) || start > end {
			return ""
		}
		field := raw[start:end]
		if len(field) > 0 && field[len(field)-1] == wire.FieldTerminator {
			field = field[:len(field)-1]
		}
		return strings.TrimSpace(string(field))
	}
	return ""
}

func parseASCIIDecimal(b []byte) (int, bool) {
	v := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}

// Fingerprint returns a stable, non-cryptographic 64-bit hash of the
// record's raw bytes, suitable for deduplication or change detection
// across a large corpus. Two RawRecords with byte-identical content
// always hash equal; this does not hold across decode/re-encode
// (Record.String produces different bytes than the original wire
// form).
func (r *RawRecord) Fingerprint() uint64 {
	return farm.Hash64(r.Raw)
}
