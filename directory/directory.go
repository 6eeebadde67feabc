// Package directory implements the Directory/field decoder of spec.md
// §4.4: it turns a RawRecord's Leader and raw bytes into a fully
// decoded marcrec.Record, splitting the data area into control and
// data fields via the Directory, then splitting each data field into
// indicators and subfields.
package directory

import (
	"bytes"

	"github.com/go-marc/marc21/charset"
	"github.com/go-marc/marc21/diagnostics"
	"github.com/go-marc/marc21/leader"
	"github.com/go-marc/marc21/marcrec"
	"github.com/go-marc/marc21/wire"
)

// entry is one decoded 12-byte Directory entry.
type entry struct {
	tag    string
	length int
	offset int
}

// Options controls how Decode applies charset conversion.
type Options struct {
	// Converter performs field-data decoding. If nil, charset.Standard{}
	// is used.
	Converter charset.Converter
	// DefaultEncoding names the encoding to feed the converter when the
	// leader declares MARC-8 (position 9 is not 'a').
	DefaultEncoding string
	// ForceUTF8, when true, converts every field to UTF-8 regardless of
	// the leader's declared encoding, and rewrites the resulting
	// record's leader to declare 'a' (spec.md §4.4 step 6).
	ForceUTF8 bool
}

// Decode turns raw (the full record buffer, Leader through Record
// Terminator) plus its already-parsed Leader into a Record.
func Decode(raw []byte, ld marcrec.Leader, opts Options, pol *diagnostics.Policy) (*marcrec.Record, error) {
	conv := opts.Converter
	if conv == nil {
		conv = charset.Standard{}
	}

	base := ld.BaseAddress
	entries, base, err := scanDirectory(raw, base, pol)
	if err != nil {
		return nil, err
	}

	outLeader, err := leader.ReconcileBaseAddress(ld, base, pol)
	if err != nil {
		return nil, err
	}
	if opts.ForceUTF8 {
		outLeader.CharCodingScheme = wire.CharCodingUnicode
	}

	encoding := opts.DefaultEncoding
	if encoding == "" {
		encoding = charset.ISO88591
	}
	sourceIsUTF8 := ld.IsUnicode()

	rec := marcrec.NewRecord(outLeader)

	var control []marcrec.Field
	var data []marcrec.Field

	for _, e := range entries {
		start := base + e.offset
		end := start + e.length
		if start < 0 || end > len(raw) || start > end {
			d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindDirectoryMisaligned,
				"directory entry for tag "+e.tag+" points outside the record buffer").WithTag(e.tag)
			if err := pol.Record(d); err != nil {
				return nil, err
			}
			continue
		}
		slice := raw[start:end]
		if len(slice) == 0 || slice[len(slice)-1] != wire.FieldTerminator {
			d := diagnostics.NewDiagnostic(diagnostics.MinorError, diagnostics.KindMissingTerminator,
				"field data for tag "+e.tag+" is missing its terminator").WithTag(e.tag)
			if err := pol.Record(d); err != nil {
				return nil, err
			}
		} else {
			slice = slice[:len(slice)-1]
		}

		text := decodeField(slice, sourceIsUTF8, conv, encoding, opts.ForceUTF8, e.tag, pol)

		if wire.IsControlTag(e.tag) {
			control = append(control, &marcrec.ControlField{TagValue: e.tag, Data: text})
			continue
		}
		data = append(data, decodeDataField(e.tag, []byte(text), pol))
	}

	control = reorderControlNumberFirst(control)
	for _, f := range control {
		rec.AddField(f)
	}
	for _, f := range data {
		rec.AddField(f)
	}

	return rec, nil
}

// scanDirectory reads successive 12-byte entries starting at position
// wire.LeaderLength, stopping at the Field Terminator expected at
// base-1. If it is missing, it takes the first Field Terminator after
// the Leader as the end of the directory and realigns there, returning
// the corrected base; it does not search around the declared base for
// the terminator nearest to it.
func scanDirectory(raw []byte, base int, pol *diagnostics.Policy) ([]entry, int, error) {
	if base < wire.LeaderLength+1 || base > len(raw) || raw[base-1] != wire.FieldTerminator {
		found := bytes.IndexByte(raw[wire.LeaderLength:], wire.FieldTerminator)
		if found < 0 {
			d := diagnostics.NewDiagnostic(diagnostics.Fatal, diagnostics.KindDirectoryMisaligned,
				"no field terminator found to close the directory")
			return nil, 0, pol.Record(d)
		}
		newBase := wire.LeaderLength + found + 1
		d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindDirectoryMisaligned,
			"directory terminator not found at the leader-declared base address; realigned")
		if err := pol.Record(d); err != nil {
			return nil, 0, err
		}
		base = newBase
	}

	raw64 := raw[wire.LeaderLength : base-1]
	if len(raw64)%wire.DirectoryEntryWidth != 0 {
		d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindDirectoryMisaligned,
			"directory length is not a multiple of the entry width")
		if err := pol.Record(d); err != nil {
			return nil, 0, err
		}
	}

	var entries []entry
	for off := 0; off+wire.DirectoryEntryWidth <= len(raw64); off += wire.DirectoryEntryWidth {
		chunk := raw64[off : off+wire.DirectoryEntryWidth]
		tag := string(chunk[:wire.TagWidth])
		length, lok := parseDigits(chunk[wire.TagWidth : wire.TagWidth+wire.LengthWidth])
		offset, ook := parseDigits(chunk[wire.TagWidth+wire.LengthWidth:])
		if !lok || !ook {
			d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindDirectoryMisaligned,
				"directory entry for tag "+tag+" has a non-digit length or offset").WithTag(tag)
			if err := pol.Record(d); err != nil {
				return nil, 0, err
			}
			continue
		}
		entries = append(entries, entry{tag: tag, length: length, offset: offset})
	}
	return entries, base, nil
}

// decodeDataField splits a data field's terminator-stripped bytes into
// two indicators and subfields, per spec.md §4.4 step 5.
func decodeDataField(tag string, data []byte, pol *diagnostics.Policy) *marcrec.DataField {
	df := &marcrec.DataField{TagValue: tag}
	if len(data) < 2 {
		df.Indicator1, df.Indicator2 = ' ', ' '
		return df
	}
	df.Indicator1, df.Indicator2 = data[0], data[1]
	for _, c := range []byte{df.Indicator1, df.Indicator2} {
		if c != ' ' && (c < '0' || c > '9') {
			d := diagnostics.NewDiagnostic(diagnostics.Typo, diagnostics.KindNonStandardIndicator,
				"non-standard indicator byte on tag "+tag).WithTag(tag)
			pol.Record(d) // Typo never aborts; error intentionally ignored.
		}
	}
	rest := data[2:]
	for len(rest) > 0 {
		if rest[0] != wire.SubfieldDelimiter {
			// Stray bytes before the first delimiter: fold them into an
			// unlabeled leading subfield rather than dropping them.
			end := bytes.IndexByte(rest, wire.SubfieldDelimiter)
			if end < 0 {
				end = len(rest)
			}
			df.Subfields = append(df.Subfields, marcrec.Subfield{Code: 0, Data: string(rest[:end])})
			rest = rest[end:]
			continue
		}
		rest = rest[1:]
		if len(rest) == 0 {
			df.Subfields = append(df.Subfields, marcrec.Subfield{Code: 0})
			break
		}
		code := rest[0]
		rest = rest[1:]
		end := bytes.IndexByte(rest, wire.SubfieldDelimiter)
		if end < 0 {
			end = len(rest)
		}
		df.Subfields = append(df.Subfields, marcrec.Subfield{Code: code, Data: string(rest[:end])})
		rest = rest[end:]
	}
	return df
}

// decodeField applies charset conversion to a field's raw bytes,
// recording a CharsetConversionFailed diagnostic when bytes could not
// be converted cleanly.
func decodeField(raw []byte, sourceIsUTF8 bool, conv charset.Converter, defaultEncoding string, forceUTF8 bool, tag string, pol *diagnostics.Policy) string {
	if sourceIsUTF8 && !forceUTF8 {
		return string(raw)
	}
	res := conv.Convert(raw, defaultEncoding)
	if defaultEncoding == charset.BestGuess {
		d := diagnostics.NewDiagnostic(diagnostics.Info, diagnostics.KindEncodingGuessed,
			"declared encoding was ambiguous; picked the decoder with fewer replacement characters").WithTag(tag)
		pol.Record(d) // Info never aborts; error intentionally ignored.
	}
	if len(res.Failed) > 0 {
		d := diagnostics.NewDiagnostic(diagnostics.MinorError, diagnostics.KindCharsetConversionFailed,
			"some bytes in field could not be converted and were replaced").WithTag(tag)
		pol.Record(d) // always recoverable per spec.md §7; error intentionally ignored.
	}
	return res.Text
}

// reorderControlNumberFirst moves the "001" field, if present, to the
// front of the control-field list without otherwise reordering,
// per spec.md §3 (Record invariants) and §4.5 (add_field contract).
func reorderControlNumberFirst(control []marcrec.Field) []marcrec.Field {
	for i, f := range control {
		if f.Tag() == wire.ControlNumberTag && i != 0 {
			out := make([]marcrec.Field, 0, len(control))
			out = append(out, f)
			out = append(out, control[:i]...)
			out = append(out, control[i+1:]...)
			return out
		}
	}
	return control
}

func parseDigits(b []byte) (int, bool) {
	v := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}
