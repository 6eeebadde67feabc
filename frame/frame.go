// Package frame implements the Frame extractor of spec.md §4.2: it pulls
// exactly one record's raw bytes off a bytestream.Stream, recovering
// from a declared length that disagrees with the actual Record
// Terminator position rather than failing the whole stream.
package frame

import (
	"bytes"
	"io"

	"github.com/go-marc/marc21/bytestream"
	"github.com/go-marc/marc21/diagnostics"
	"github.com/go-marc/marc21/wire"
)

// Extract consumes one record's bytes from s, returning the Leader
// bytes and the full record buffer (Leader through Record Terminator
// inclusive). Recoverable anomalies are reported through pol. A declared
// length that runs past the Record Terminator (StatedLengthTooLong) is a
// MajorError: repaired under a permissive policy, surfaced as an error
// under a non-permissive one. A declared length that stops short of the
// terminator (StatedLengthTooShort), or that runs past the end of the
// stream after a terminator was read (TruncatedDeclaredLength), is a
// MinorError and is repaired under either policy.
//
// On a clean end of stream (zero bytes available for the Leader), it
// returns io.EOF. Any other failure is a per-record error: the caller
// is responsible for resynchronizing (scanning ahead to the next
// Record Terminator) before calling Extract again, per spec.md §4.2's
// closing paragraph.
func Extract(s *bytestream.Stream, pol *diagnostics.Policy) (leaderBuf [wire.LeaderLength]byte, buf []byte, err error) {
	s.Mark(wire.LeaderLength)
	n, rerr := s.ReadExact(leaderBuf[:])
	if rerr != nil {
		if n == 0 {
			pol.Record(diagnostics.NewDiagnostic(diagnostics.Info, diagnostics.KindEndOfStream,
				"clean end of stream before the next record's leader"))
			return leaderBuf, nil, io.EOF
		}
		d := diagnostics.NewDiagnostic(diagnostics.Fatal, diagnostics.KindTruncatedLeader,
			"stream ended while reading the leader")
		return leaderBuf, nil, pol.Record(d)
	}

	length, ok := parseLength(leaderBuf[wire.LeaderLengthStart:wire.LeaderLengthEnd])
	if !ok {
		d := diagnostics.NewDiagnostic(diagnostics.Fatal, diagnostics.KindMalformedLeader,
			"leader record length is not an ASCII decimal")
		return leaderBuf, nil, pol.Record(d)
	}

	if err := s.Reset(); err != nil {
		return leaderBuf, nil, err
	}
	s.Mark(length * 2)

	record := make([]byte, length)
	n, rerr = s.ReadExact(record)
	switch {
	case rerr == nil:
		return caseA(s, pol, leaderBuf, record, length)
	case n < length:
		return caseB(s, pol, leaderBuf, length)
	default:
		return leaderBuf, nil, rerr
	}
}

// caseA implements spec.md §4.2 step 4: read_exact succeeded, but the
// final byte may not be the Record Terminator.
func caseA(s *bytestream.Stream, pol *diagnostics.Policy, leaderBuf [wire.LeaderLength]byte, record []byte, length int) ([wire.LeaderLength]byte, []byte, error) {
	if record[length-1] == wire.RecordTerminator {
		return leaderBuf, record, nil
	}

	p := bytes.IndexByte(record, wire.RecordTerminator)
	if p >= 0 && p < length-1 {
		// Declared length too long: the terminator arrived early.
		d := diagnostics.NewDiagnostic(diagnostics.MajorError, diagnostics.KindStatedLengthTooLong,
			"declared record length exceeds actual terminator position")
		if err := pol.Record(d); err != nil {
			return leaderBuf, nil, err
		}
		if err := s.Reset(); err != nil {
			return leaderBuf, nil, err
		}
		truncated := make([]byte, p+1)
		if _, err := s.ReadExact(truncated); err != nil {
			return leaderBuf, nil, err
		}
		return leaderBuf, truncated, nil
	}

	// Declared length too short: no terminator within the declared
	// window. Keep reading one byte at a time until the terminator
	// appears or the stream ends.
	d := diagnostics.NewDiagnostic(diagnostics.MinorError, diagnostics.KindStatedLengthTooShort,
		"declared record length is shorter than the actual record")
	if err := pol.Record(d); err != nil {
		return leaderBuf, nil, err
	}
	if err := s.Reset(); err != nil {
		return leaderBuf, nil, err
	}
	extended := make([]byte, length)
	if _, err := s.ReadExact(extended); err != nil {
		return leaderBuf, nil, err
	}
	for {
		b, ok := s.ReadByte()
		if !ok {
			d := diagnostics.NewDiagnostic(diagnostics.Fatal, diagnostics.KindMissingTerminator,
				"stream ended before a record terminator was found")
			return leaderBuf, nil, pol.Record(d)
		}
		extended = append(extended, b)
		if b == wire.RecordTerminator {
			return leaderBuf, extended, nil
		}
	}
}

// caseB implements spec.md §4.2 step 5: read_exact failed with EOF
// after fewer than length bytes were available.
func caseB(s *bytestream.Stream, pol *diagnostics.Policy, leaderBuf [wire.LeaderLength]byte, length int) ([wire.LeaderLength]byte, []byte, error) {
	if err := s.Reset(); err != nil {
		return leaderBuf, nil, err
	}
	var got []byte
	for {
		b, ok := s.ReadByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if p := bytes.IndexByte(got, wire.RecordTerminator); p >= 0 {
		d := diagnostics.NewDiagnostic(diagnostics.MinorError, diagnostics.KindTruncatedDeclaredLength,
			"stream ended before the declared record length, but a terminator was found")
		if err := pol.Record(d); err != nil {
			return leaderBuf, nil, err
		}
		return leaderBuf, got[:p+1], nil
	}
	d := diagnostics.NewDiagnostic(diagnostics.Fatal, diagnostics.KindUnexpectedEOF,
		"stream ended before the declared record length, with no terminator")
	return leaderBuf, nil, pol.Record(d)
}

// parseLength decodes a 5-byte ASCII decimal field, reporting ok=false
// if any byte is not an ASCII digit.
func parseLength(field []byte) (int, bool) {
	v := 0
	for _, b := range field {
		if b < '0' || b > '9' {
			return 0, false
		}
		v = v*10 + int(b-'0')
	}
	return v, true
}
