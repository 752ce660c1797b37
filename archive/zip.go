package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"

	"protobag.io/errors"
)

func init() {
	Register(FormatZip, newZip)
}

// newZip opens a zip-file backed Archive. Grounded on
// superleo-aistore/cmn/archive/write.go's zipWriter (archive/zip.Writer
// over an open file) and the stdlib archive/zip reader, which needs
// random access so read mode holds the file open for the Archive's
// lifetime rather than reopening per call like the tar backend does.
func newZip(ctx context.Context, spec Spec) (Archive, error) {
	const op = "archive.newZip"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}

	path := spec.Path
	if spec.Mode == ModeWrite && (path == "" || path == TempfilePath) {
		f, err := os.CreateTemp("", "protobag-*.zip")
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		path = f.Name()
		f.Close()
	}
	if path == "" {
		return nil, errors.E(op, errors.MissingRequired, errors.Str("spec.Path must be set"))
	}

	z := &zipArchive{path: path}
	if spec.Mode == ModeWrite {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		z.file = f
		z.zw = zip.NewWriter(f)
	} else {
		rc, err := zip.OpenReader(path)
		if err != nil {
			return nil, errors.E(op, errors.NotFound, err)
		}
		z.zr = rc
	}
	return z, nil
}

type zipArchive struct {
	path string

	file   *os.File
	zw     *zip.Writer
	zr     *zip.ReadCloser
	closed bool
}

var _ Archive = (*zipArchive)(nil)

func (z *zipArchive) Namelist(ctx context.Context) ([]string, error) {
	const op = "archive.zipArchive.Namelist"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	if z.zr == nil {
		return nil, errors.E(op, errors.Str("archive is not open for reading"))
	}
	var names []string
	for _, f := range z.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, DisplayName(f.Name))
	}
	return names, nil
}

func (z *zipArchive) ReadAsString(ctx context.Context, name string) ([]byte, error) {
	const op = "archive.zipArchive.ReadAsString"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	if z.zr == nil {
		return nil, errors.E(op, errors.Str("archive is not open for reading"))
	}
	want := CanonicalizeName(name)
	for _, f := range z.zr.File {
		if CanonicalizeName(f.Name) != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		return data, nil
	}
	return nil, errors.E(op, errors.NotFound, errors.Str(name))
}

func (z *zipArchive) Write(ctx context.Context, name string, data []byte) error {
	const op = "archive.zipArchive.Write"
	if err := ctxErr(ctx); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	if z.zw == nil {
		return errors.E(op, errors.Str("archive is not open for writing"))
	}
	w, err := z.zw.Create(CanonicalizeName(name))
	if err != nil {
		return errors.E(op, errors.IoError, err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	return nil
}

func (z *zipArchive) Close(ctx context.Context) error {
	if z.closed {
		return nil
	}
	if err := ctxErr(ctx); err != nil {
		return errors.E("archive.zipArchive.Close", errors.IoError, err)
	}
	z.closed = true
	var err error
	if z.zw != nil {
		if e := z.zw.Close(); e != nil {
			err = e
		}
		if e := z.file.Close(); e != nil && err == nil {
			err = e
		}
	}
	if z.zr != nil {
		if e := z.zr.Close(); e != nil && err == nil {
			err = e
		}
	}
	if err != nil {
		return errors.E("archive.zipArchive.Close", errors.IoError, err)
	}
	return nil
}
