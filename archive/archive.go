// Package archive implements the byte-level container abstraction that
// every bag is built on: a narrow list/read/write/close capability over
// memory, a directory tree, or a tar/zip file (spec.md §4.1).
//
// The interface is deliberately as small as upspin.io/cloud/storage's
// Storage: a handful of verbs over named byte blobs, with backends
// registered by format name and selected by Open, the same dial-by-name
// shape disk.New/gcs.New use for upspin.io/cloud/storage.
package archive

import (
	"context"
	"path"
	"strings"

	"protobag.io/errors"
)

// Mode selects whether an Archive is opened for reading or writing.
type Mode int

const (
	// ModeRead opens an existing archive for read-only access.
	ModeRead Mode = iota
	// ModeWrite opens (or creates) an archive for append-only writes.
	ModeWrite
)

// Format names a container backend.
type Format string

const (
	FormatMemory    Format = "memory"
	FormatDirectory Format = "directory"
	FormatTar       Format = "tar"
	FormatZip       Format = "zip"
	FormatTarGz     Format = "targz"
)

// TempfilePath is the sentinel spec.Path value requesting that a
// write-mode backend allocate its own unique path rather than use a
// caller-supplied one.
const TempfilePath = "<tempfile>"

// Spec describes how to open an Archive.
type Spec struct {
	Mode Mode
	Path string
	// Format is inferred from Path's extension when empty.
	Format Format
}

// Archive is the abstract contract every container backend satisfies:
// list, read-by-name, write-by-name, close. Implementations must be safe
// under the same single-writer-or-many-readers discipline as the session
// types built on top of them (spec.md's thread-safety note); Archive
// itself does not add locking.
type Archive interface {
	// Namelist returns all regular entries currently stored, each
	// re-emitted with its leading path separator. Order is unspecified
	// but stable within a single call.
	Namelist(ctx context.Context) ([]string, error)

	// ReadAsString returns the bytes stored under name. It returns an
	// error satisfying errors.Is(err, ErrNotFound) if name is absent —
	// NotFound is a first-class outcome, not a generic failure
	// (spec.md §4.1's "Result-with-special-sentinels" note).
	ReadAsString(ctx context.Context, name string) ([]byte, error)

	// Write stores data under name, creating any intermediate
	// containers (subdirectories, tar member headers) as needed.
	// Writing the same name twice is implementation-defined: the memory
	// and directory backends replace the stored bytes, while the tar and
	// zip backends add a second member and ReadAsString returns the
	// first one.
	Write(ctx context.Context, name string, data []byte) error

	// Close flushes pending state. It must be idempotent: a second
	// call is a no-op returning nil.
	Close(ctx context.Context) error
}

// ErrNotFound is the sentinel matched via errors.Is/errors.As by
// ReadAsString when name is absent.
var ErrNotFound = errors.E(errors.NotFound, errors.Str("archive: entry not found"))

// Factory opens a backend of one Format from a Spec.
type Factory func(context.Context, Spec) (Archive, error)

var factories = map[Format]Factory{}

// Register installs a Factory under name, so Open can dispatch to it.
// Mirrors upspin.io/cloud/storage.Register's init()-time dialer
// registration.
func Register(name Format, f Factory) {
	factories[name] = f
}

// Open dials the backend named by spec.Format (or inferred from
// spec.Path's extension) and opens it per spec.Mode. ctx bounds only the
// open call itself (e.g. backends that need to stat or create a file);
// it is not retained.
func Open(ctx context.Context, spec Spec) (Archive, error) {
	const op = "archive.Open"
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(op, errors.IoError, err)
	}
	format := spec.Format
	if format == "" {
		format = inferFormat(spec.Path)
	}
	f, ok := factories[format]
	if !ok {
		return nil, errors.E(op, errors.UnsupportedFormat,
			errors.Errorf("no archive backend registered for format %q", format))
	}
	a, err := f(ctx, spec)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return a, nil
}

// ctxErr returns a non-nil error when ctx has already been canceled or
// has expired, so every I/O entry point can fail fast the same way
// (spec.md §7's "a canceled context surfaces as IoError").
func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func inferFormat(p string) Format {
	switch {
	case strings.HasSuffix(p, ".tar.gz") || strings.HasSuffix(p, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(p, ".tar"):
		return FormatTar
	case strings.HasSuffix(p, ".zip"):
		return FormatZip
	default:
		return FormatDirectory
	}
}

// CanonicalizeName strips a leading separator so both the directory and
// memory backends use identical internal keys; namelist() re-adds it
// (spec.md §4.1's canonicalization invariant).
func CanonicalizeName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// DisplayName re-adds the leading separator CanonicalizeName strips.
func DisplayName(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}
