package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"

	"protobag.io/errors"
)

func init() {
	Register(FormatTar, newTar)
	Register(FormatTarGz, newTarGz)
}

// newTar opens a tar-file backed Archive. Write mode keeps a single
// tar.Writer open for the life of the session (entries cannot be
// rewritten); read mode re-opens the file fresh for every operation
// since tar has no indexed random access (spec.md §4.1's tar/zip design
// notes).
func newTar(ctx context.Context, spec Spec) (Archive, error) {
	return newTarLike(ctx, spec, false)
}

func newTarGz(ctx context.Context, spec Spec) (Archive, error) {
	return newTarLike(ctx, spec, true)
}

func newTarLike(ctx context.Context, spec Spec, gzipped bool) (Archive, error) {
	const op = "archive.newTar"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}

	path := spec.Path
	if spec.Mode == ModeWrite && (path == "" || path == TempfilePath) {
		f, err := os.CreateTemp("", "protobag-*.tar")
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		path = f.Name()
		f.Close()
	}
	if path == "" {
		return nil, errors.E(op, errors.MissingRequired, errors.Str("spec.Path must be set"))
	}

	t := &tarArchive{path: path, gzipped: gzipped}
	if spec.Mode == ModeWrite {
		if err := t.openForWrite(); err != nil {
			return nil, errors.E(op, err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.E(op, errors.NotFound, errors.Errorf("no tar file at %q", path))
	}
	return t, nil
}

type tarArchive struct {
	path    string
	gzipped bool

	file   *os.File
	gzw    interface{ Close() error }
	tw     *tar.Writer
	closed bool
}

var _ Archive = (*tarArchive)(nil)

func (t *tarArchive) openForWrite() error {
	f, err := os.Create(t.path)
	if err != nil {
		return errors.E(errors.IoError, err)
	}
	t.file = f
	var w io.Writer = f
	if t.gzipped {
		gz := newGzipWriter(f)
		t.gzw = gz
		w = gz
	}
	t.tw = tar.NewWriter(w)
	return nil
}

func (t *tarArchive) eachHeader(path string, visit func(*tar.Reader, *tar.Header) (stop bool, err error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.E(errors.IoError, err)
	}
	defer f.Close()

	r, closeR, err := tarReaderFor(f, t.gzipped)
	if err != nil {
		return err
	}
	if closeR != nil {
		defer closeR()
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.E(errors.IoError, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		stop, err := visit(tr, hdr)
		if err != nil || stop {
			return err
		}
	}
}

func (t *tarArchive) Namelist(ctx context.Context) ([]string, error) {
	const op = "archive.tarArchive.Namelist"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	if t.tw != nil {
		return nil, errors.E(op, errors.Str("archive is open for writing"))
	}
	var names []string
	err := t.eachHeader(t.path, func(_ *tar.Reader, hdr *tar.Header) (bool, error) {
		names = append(names, DisplayName(hdr.Name))
		return false, nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	return names, nil
}

func (t *tarArchive) ReadAsString(ctx context.Context, name string) ([]byte, error) {
	const op = "archive.tarArchive.ReadAsString"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	want := CanonicalizeName(name)
	var data []byte
	found := false
	err := t.eachHeader(t.path, func(tr *tar.Reader, hdr *tar.Header) (bool, error) {
		if CanonicalizeName(hdr.Name) != want {
			return false, nil
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return true, errors.E(errors.IoError, err)
		}
		data, found = b, true
		return true, nil
	})
	if err != nil {
		return nil, errors.E(op, err)
	}
	if !found {
		return nil, errors.E(op, errors.NotFound, errors.Str(name))
	}
	return data, nil
}

func (t *tarArchive) Write(ctx context.Context, name string, data []byte) error {
	const op = "archive.tarArchive.Write"
	if err := ctxErr(ctx); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	if t.tw == nil {
		return errors.E(op, errors.Str("archive is not open for writing"))
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     CanonicalizeName(name),
		Size:     int64(len(data)),
		Mode:     0o644,
	}
	if err := t.tw.WriteHeader(hdr); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(t.tw, newByteReader(data), buf); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	return nil
}

func (t *tarArchive) Close(ctx context.Context) error {
	if t.closed {
		return nil
	}
	if err := ctxErr(ctx); err != nil {
		return errors.E("archive.tarArchive.Close", errors.IoError, err)
	}
	t.closed = true
	if t.tw == nil {
		return nil
	}
	var err error
	if e := t.tw.Close(); e != nil {
		err = e
	}
	if t.gzw != nil {
		if e := t.gzw.Close(); e != nil && err == nil {
			err = e
		}
	}
	if e := t.file.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E("archive.tarArchive.Close", errors.IoError, err)
	}
	return nil
}

func newByteReader(b []byte) io.Reader { return &byteReader{b: b} }

type byteReader struct {
	b []byte
}

func (r *byteReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}
