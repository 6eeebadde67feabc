// Package marcgz wraps the root marc package for gzip-compressed MARC
// streams (conventionally ".mrc.gz"), using klauspost/compress/gzip in
// place of the standard library's compress/gzip for its faster
// decompression path.
package marcgz

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	marc "github.com/go-marc/marc21"
)

// Open opens the named gzip-compressed file and returns a marc.Reader
// over its decompressed contents. Calling Close on the returned Reader
// releases both the gzip reader and the underlying file, mirroring
// workbook.Open's file-handle-owning pattern.
func Open(path string, opts marc.ReaderOptions) (*marc.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "marcgz: open %q", path)
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "marcgz: %q is not gzip-compressed", path)
	}
	return marc.NewReader(&fileSource{f: f, zr: zr}, opts), nil
}

// NewReader wraps r, an arbitrary gzip-compressed io.Reader, as a
// marc.Reader. The returned Reader's Close method closes the gzip
// reader but not r itself, since r was not opened by this package.
func NewReader(r io.Reader, opts marc.ReaderOptions) (*marc.Reader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "marcgz: not gzip-compressed")
	}
	return marc.NewReader(zr, opts), nil
}

// fileSource composes an os.File and the gzip.Reader decompressing it
// into a single io.ReadCloser, so marc.Reader.Close releases both
// resources Open acquired in the right order (gzip reader first, then
// the file it reads from).
type fileSource struct {
	f  *os.File
	zr *gzip.Reader
}

func (s *fileSource) Read(p []byte) (int, error) { return s.zr.Read(p) }

func (s *fileSource) Close() error {
	zerr := s.zr.Close()
	ferr := s.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
