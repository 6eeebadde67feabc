// Package marc provides a permissive reader and in-memory model for
// ISO 2709 / MARC21 bibliographic records.
//
// # Quick start
//
//	f, err := os.Open("catalog.mrc")
//	if err != nil { ... }
//	defer f.Close()
//
//	r := marc.NewReader(f, marc.ReaderOptions{Permissive: true})
//	for r.HasNext() {
//	    rec, err := r.Next()
//	    if err != nil { ... }
//	    fmt.Println(rec.ControlNumber(), rec.String())
//	    for _, d := range r.Diagnostics() {
//	        fmt.Println(d.Severity, d.Kind, d.Message)
//	    }
//	}
//
// # Recovery
//
// A malformed record never stops the reader: in permissive mode the
// reader repairs what it can (a misstated length, a missing
// terminator, a misaligned directory) and otherwise resynchronizes by
// scanning ahead to the next Record Terminator and continuing with the
// following record. [Reader.Diagnostics] reports what happened to the
// most recently decoded record; it is cleared each time the reader
// starts decoding a record, which [Reader.HasNext] does when it buffers
// the following record ahead.
//
// # Gzip-compressed input
//
// The marcgz subpackage wraps this reader for ".mrc.gz" files.
package marc

import (
	"io"

	"go.uber.org/zap"

	"github.com/go-marc/marc21/bytestream"
	"github.com/go-marc/marc21/charset"
	"github.com/go-marc/marc21/diagnostics"
	"github.com/go-marc/marc21/directory"
	"github.com/go-marc/marc21/frame"
	"github.com/go-marc/marc21/leader"
	"github.com/go-marc/marc21/marcrec"
	"github.com/go-marc/marc21/wire"
)

// ReaderOptions configures a Reader, per spec.md §6's enumerated reader
// configuration.
type ReaderOptions struct {
	// Permissive enables the repairs of spec.md §4.6. When false, the
	// first MajorError or Fatal diagnostic aborts the current record
	// (the reader still resynchronizes and continues with the next
	// one).
	Permissive bool
	// ToUTF8 forces every field to be converted to UTF-8 regardless of
	// the leader's declared encoding, and rewrites each emitted
	// record's leader to declare 'a'.
	ToUTF8 bool
	// DefaultEncoding names the encoding fed to Converter when a
	// record's leader declares MARC-8 (charset.MARC8, charset.ISO88591,
	// charset.UTF8, or charset.BestGuess). Defaults to charset.ISO88591.
	DefaultEncoding string
	// Converter performs field-data charset conversion. Defaults to
	// charset.Standard{}.
	Converter charset.Converter
	// CombinePartials, when non-empty, names field tags that should be
	// harvested from a "partial" continuation record (one with no "001"
	// field of its own) immediately following a decoded record, and
	// appended to that record's field list. The partial itself is then
	// suppressed from iteration.
	CombinePartials map[string]bool
	// Logger, if set, is attached to the diagnostics policy so every
	// recorded anomaly is also emitted as a structured log line.
	Logger *zap.Logger
}

// Reader iterates decoded Records from a byte stream.
type Reader struct {
	src    io.Reader
	stream *bytestream.Stream
	pol    *diagnostics.Policy
	opts   ReaderOptions

	pending    *marcrec.Record
	pendingRaw *marcrec.RawRecord
	pendingErr error
	havePend   bool
	done       bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	pol := diagnostics.NewPolicy(opts.Permissive)
	pol.Logger = opts.Logger
	return &Reader{
		src:    r,
		stream: bytestream.New(r),
		pol:    pol,
		opts:   opts,
	}
}

// Close releases the underlying reader if it implements io.Closer, and
// is a no-op otherwise — the same "no-op when opened via a non-owning
// reader" rule workbook.Workbook.Close follows for its OpenReader path.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// HasNext reports whether another record is available, buffering one
// record ahead as needed. It does not consume the buffered record;
// call Next to retrieve it.
func (r *Reader) HasNext() bool {
	if r.havePend {
		return true
	}
	if r.done {
		return false
	}
	rec, raw, err := r.advance()
	if err != nil {
		r.done = true
		if err == io.EOF {
			return false
		}
		r.pendingErr = err
		r.havePend = true
		return true
	}
	r.pending, r.pendingRaw, r.havePend = rec, raw, true
	return true
}

// Next returns the next decoded Record, or io.EOF once the stream has
// ended. A record that fails to decode is not reported by Next: the
// reader resynchronizes past it and returns the following record.
func (r *Reader) Next() (*marcrec.Record, error) {
	if !r.HasNext() {
		return nil, io.EOF
	}
	rec, err := r.pending, r.pendingErr
	r.pending, r.pendingRaw, r.pendingErr, r.havePend = nil, nil, nil, false
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Diagnostics returns the diagnostics recorded for the most recently
// decoded record. They are cleared when the reader starts decoding the
// following record, in Next or in a HasNext call that buffers it.
func (r *Reader) Diagnostics() []diagnostics.Diagnostic {
	return r.pol.Diagnostics()
}

// advance decodes the next non-suppressed record, applying
// CombinePartials and resynchronizing past any record that fails to
// decode.
func (r *Reader) advance() (*marcrec.Record, *marcrec.RawRecord, error) {
	for {
		rec, raw, err := r.decodeOne()
		if err == io.EOF {
			return nil, nil, io.EOF
		}
		if err != nil {
			if !r.resync() {
				return nil, nil, io.EOF
			}
			continue
		}
		if len(r.opts.CombinePartials) > 0 {
			r.absorbPartials(rec)
		}
		return rec, raw, nil
	}
}

// absorbPartials repeatedly peeks at the next record; while it looks
// like a continuation (no "001" of its own), it harvests any fields
// whose tag is in CombinePartials into rec and discards the rest,
// suppressing the partial from iteration, per spec.md §6.
func (r *Reader) absorbPartials(rec *marcrec.Record) {
	for {
		next, _, err := r.decodeOne()
		if err != nil {
			if err != io.EOF {
				r.resync()
				continue
			}
			return
		}
		if next.ControlNumber() != "" {
			// Not a partial: put it back as the buffered next record by
			// re-decoding is not possible, so stash it directly.
			r.pending, r.pendingRaw, r.havePend = next, nil, true
			return
		}
		for _, f := range next.AllFields() {
			if r.opts.CombinePartials[f.Tag()] {
				rec.AddField(f)
			}
		}
	}
}

// decodeOne extracts and fully decodes a single record, with no
// resynchronization or partial-combining logic of its own.
func (r *Reader) decodeOne() (*marcrec.Record, *marcrec.RawRecord, error) {
	r.pol.Reset()
	leaderBuf, buf, err := frame.Extract(r.stream, r.pol)
	if err != nil {
		return nil, nil, err
	}

	ld, err := leader.Parse(leaderBuf, r.pol)
	if err != nil {
		return nil, nil, err
	}

	opts := directory.Options{
		Converter:       r.opts.Converter,
		DefaultEncoding: r.opts.DefaultEncoding,
		ForceUTF8:       r.opts.ToUTF8,
	}
	rec, err := directory.Decode(buf, ld, opts, r.pol)
	if err != nil {
		return nil, nil, err
	}
	return rec, marcrec.NewRawRecord(buf), nil
}

// resync advances the stream past the remainder of a failed record by
// scanning for the next Record Terminator, so the reader can attempt
// the following record. It reports whether a terminator was found; if
// not, the stream is exhausted.
func (r *Reader) resync() bool {
	for {
		b, ok := r.stream.ReadByte()
		if !ok {
			return false
		}
		if b == wire.RecordTerminator {
			return true
		}
	}
}

// Combine concatenates two RawRecords' raw bytes, per spec.md §8
// invariant 6: the result's bytes are exactly a's bytes followed by
// b's, and its identifier is a's. This operates below the decoded
// Record level, so partial records can be stitched together without a
// decode/re-encode round trip; the result is not itself a single
// well-formed record unless the caller knows the two inputs are meant
// to be read back to back.
func Combine(a, b *marcrec.RawRecord) *marcrec.RawRecord {
	buf := make([]byte, 0, len(a.Raw)+len(b.Raw))
	buf = append(buf, a.Raw...)
	buf = append(buf, b.Raw...)
	return marcrec.NewRawRecordWithID(buf, a.ID())
}
