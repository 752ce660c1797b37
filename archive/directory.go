package archive

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"protobag.io/errors"
)

func init() {
	Register(FormatDirectory, newDirectory)
}

// newDirectory opens (creating in write mode) a directory-tree backed
// Archive. Grounded on upspin.io/cloud/storage/disk's New: a required
// base path, MkdirAll on write, base64-free here since filesystem paths
// are already safe relative names.
func newDirectory(ctx context.Context, spec Spec) (Archive, error) {
	const op = "archive.newDirectory"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}

	base := spec.Path
	if spec.Mode == ModeWrite && (base == "" || base == TempfilePath) {
		dir, err := os.MkdirTemp("", "protobag-"+uuid.NewString())
		if err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
		base = dir
	}
	if base == "" {
		return nil, errors.E(op, errors.MissingRequired, errors.Str("spec.Path must be set"))
	}

	if spec.Mode == ModeWrite {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, errors.E(op, errors.IoError, err)
		}
	} else {
		if info, err := os.Stat(base); err != nil || !info.IsDir() {
			return nil, errors.E(op, errors.NotFound, errors.Errorf("no directory at %q", base))
		}
	}

	return &directoryArchive{base: base}, nil
}

type directoryArchive struct {
	base string
}

var _ Archive = (*directoryArchive)(nil)

func (d *directoryArchive) Namelist(ctx context.Context) ([]string, error) {
	const op = "archive.directoryArchive.Namelist"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	var names []string
	err := filepath.Walk(d.base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.base, p)
		if err != nil {
			return err
		}
		names = append(names, DisplayName(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	return names, nil
}

func (d *directoryArchive) ReadAsString(ctx context.Context, name string) ([]byte, error) {
	const op = "archive.directoryArchive.ReadAsString"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	b, err := os.ReadFile(d.path(name))
	if os.IsNotExist(err) {
		return nil, errors.E(op, errors.NotFound, errors.Str(name))
	} else if err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	return b, nil
}

func (d *directoryArchive) Write(ctx context.Context, name string, data []byte) error {
	const op = "archive.directoryArchive.Write"
	if err := ctxErr(ctx); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	full := d.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.E(op, errors.IoError, err)
	}
	return nil
}

func (d *directoryArchive) Close(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return errors.E("archive.directoryArchive.Close", errors.IoError, err)
	}
	return nil
}

func (d *directoryArchive) path(name string) string {
	return filepath.Join(d.base, filepath.FromSlash(CanonicalizeName(name)))
}
