package archive

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"protobag.io/errors"
)

// newGzipWriter wraps w for the tgz backend. Grounded on
// superleo-aistore/cmn/archive/write.go's tgzWriter, which layers
// gzip under archive/tar the same way; klauspost/compress's gzip is a
// drop-in, faster encoder for the same format, already part of the
// example pack's domain stack (mdzesseis-log_capturer_go).
func newGzipWriter(w io.Writer) *gzip.Writer {
	return gzip.NewWriter(w)
}

// tarReaderFor returns the reader a tar.Reader should be built on top
// of, transparently gunzipping when gzipped is set. The returned close
// func (nil when gzipped is false) must be called after the caller is
// done reading.
func tarReaderFor(f io.Reader, gzipped bool) (io.Reader, func(), error) {
	if !gzipped {
		return f, nil, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, errors.E(errors.IoError, err)
	}
	return gz, func() { gz.Close() }, nil
}
