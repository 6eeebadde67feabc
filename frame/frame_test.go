package frame

import (
	"io"
	"testing"

	"github.com/go-marc/marc21/bytestream"
	"github.com/go-marc/marc21/diagnostics"
	"github.com/go-marc/marc21/wire"
)

// buildValidRecord assembles a single well-formed record: a leader, one
// "001" control field, and a correct Record Terminator.
func buildValidRecord(t *testing.T, id string) []byte {
	t.Helper()
	fieldData := append([]byte(id), wire.FieldTerminator)
	base := wire.LeaderLength + wire.DirectoryEntryWidth + 1
	total := base + len(fieldData) + 1

	buf := make([]byte, total)
	putDigits(buf[0:5], total)
	buf[9] = 'a'
	putDigits(buf[12:17], base)

	dir := buf[wire.LeaderLength : base-1]
	copy(dir[0:3], "001")
	putDigits(dir[3:7], len(fieldData))
	putDigits(dir[7:12], 0)
	buf[base-1] = wire.FieldTerminator

	copy(buf[base:], fieldData)
	buf[total-1] = wire.RecordTerminator
	return buf
}

func putDigits(dst []byte, v int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
}

func TestExtractCleanRecord(t *testing.T) {
	raw := buildValidRecord(t, "12345")
	s := bytestream.New(newReaderFrom(raw))
	pol := diagnostics.NewPolicy(true)
	_, buf, err := Extract(s, pol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf) != string(raw) {
		t.Fatalf("got %q, want %q", buf, raw)
	}
	if len(pol.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", pol.Diagnostics())
	}
}

func TestExtractEndOfStream(t *testing.T) {
	s := bytestream.New(newReaderFrom(nil))
	pol := diagnostics.NewPolicy(true)
	_, _, err := Extract(s, pol)
	if err != io.EOF {
		t.Fatalf("got err=%v, want io.EOF", err)
	}
	found := false
	for _, d := range pol.Diagnostics() {
		if d.Kind == diagnostics.KindEndOfStream {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an EndOfStream diagnostic on a clean terminus")
	}
}

func TestExtractStatedLengthTooLong(t *testing.T) {
	raw := buildValidRecord(t, "12345")
	// Append a stray byte after the real terminator, then declare a
	// length that includes it, so the real terminator sits strictly
	// before the declared window's last byte.
	withExtra := append(append([]byte{}, raw...), 'X')
	putDigits(withExtra[0:5], len(withExtra))

	s := bytestream.New(newReaderFrom(withExtra))
	pol := diagnostics.NewPolicy(true)
	_, buf, err := Extract(s, pol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf[len(buf)-1] != wire.RecordTerminator {
		t.Fatalf("expected buffer to end at the real terminator")
	}
	if len(pol.Diagnostics()) != 1 || pol.Diagnostics()[0].Kind != diagnostics.KindStatedLengthTooLong {
		t.Fatalf("expected a single StatedLengthTooLong diagnostic, got %v", pol.Diagnostics())
	}
}

func TestExtractStatedLengthTooShort(t *testing.T) {
	raw := buildValidRecord(t, "12345")
	putDigits(raw[0:5], len(raw)-5) // understate the length

	s := bytestream.New(newReaderFrom(raw))
	pol := diagnostics.NewPolicy(true)
	_, buf, err := Extract(s, pol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf[len(buf)-1] != wire.RecordTerminator {
		t.Fatalf("expected the extended buffer to still end at the terminator")
	}
	if len(pol.Diagnostics()) != 1 || pol.Diagnostics()[0].Kind != diagnostics.KindStatedLengthTooShort {
		t.Fatalf("expected a single StatedLengthTooShort diagnostic, got %v", pol.Diagnostics())
	}
}

func TestExtractNoTerminatorBeforeEOFFailsFatally(t *testing.T) {
	raw := buildValidRecord(t, "12345")
	raw[len(raw)-1] = wire.FieldTerminator // no Record Terminator anywhere

	s := bytestream.New(newReaderFrom(raw))
	pol := diagnostics.NewPolicy(true)
	_, _, err := Extract(s, pol)
	if err == nil {
		t.Fatal("expected an error when the stream ends with no terminator")
	}
}

func TestExtractTwoConcatenatedRecords(t *testing.T) {
	r1 := buildValidRecord(t, "111")
	r2 := buildValidRecord(t, "222")
	s := bytestream.New(newReaderFrom(append(append([]byte{}, r1...), r2...)))
	pol := diagnostics.NewPolicy(true)

	_, buf1, err := Extract(s, pol)
	if err != nil {
		t.Fatalf("unexpected error on first record: %v", err)
	}
	if string(buf1) != string(r1) {
		t.Fatalf("first record mismatch")
	}
	_, buf2, err := Extract(s, pol)
	if err != nil {
		t.Fatalf("unexpected error on second record: %v", err)
	}
	if string(buf2) != string(r2) {
		t.Fatalf("second record mismatch")
	}
	if _, _, err := Extract(s, pol); err != io.EOF {
		t.Fatalf("got err=%v, want io.EOF after both records", err)
	}
}

// newReaderFrom avoids importing bytes in every test just for a Reader.
func newReaderFrom(b []byte) io.Reader {
	return &sliceReader{data: b}
}

type sliceReader struct {
	data []byte
	pos  int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
