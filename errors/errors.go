// Package errors defines the error handling used throughout protobag.
package errors

import (
	"bytes"
	"fmt"
	"runtime"
)

// Error is the type returned by every protobag operation that fails.
// It contains a number of fields, each of different type; an Error value
// may leave some of them unset.
type Error struct {
	// EntryName is the archive entry-name involved in the failure, if any.
	EntryName string
	// Op is the operation being performed, usually the package-qualified
	// name of the function or method being invoked (archive.Open,
	// protobag.ReadSession.Next, etc).
	Op string
	// Kind is the class of error; see the Kind constants below.
	Kind Kind
	// Err is the underlying error that triggered this one, if any.
	Err error
}

var _ error = (*Error)(nil)

// Separator joins nested errors. A caller may change it to keep errors
// on one line, e.g. by setting it to ": ".
var Separator = ":\n\t"

// Kind classifies an Error for callers that must branch on error class
// without string-matching, mirroring the taxonomy of kinds (not types)
// from the format specification.
type Kind uint8

// Kinds of errors. Other is the zero value and is never printed.
const (
	Other Kind = iota
	IoError
	NotFound
	InvalidEntry
	DecodeError
	UnsupportedSelection
	MissingRequired
	IndexAbsent
	UnsupportedFormat
	EndOfSequence
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case IoError:
		return "I/O error"
	case NotFound:
		return "entry not found"
	case InvalidEntry:
		return "invalid entry"
	case DecodeError:
		return "decode error"
	case UnsupportedSelection:
		return "unsupported selection"
	case MissingRequired:
		return "missing required entries"
	case IndexAbsent:
		return "bag has no index"
	case UnsupportedFormat:
		return "unsupported archive format"
	case EndOfSequence:
		return "end of sequence"
	}
	return "unknown error kind"
}

// E builds an error value from its arguments. The type of each argument
// determines its meaning:
//
//	string       the operation being performed (Op)
//	errors.Kind  the class of error
//	error        the underlying error that triggered this one
//
// If more than one argument of a given type is given, only the last one
// is recorded. If Kind is unset (Other) and the wrapped error is itself
// an *Error, the inner Kind is pulled up so that KindOf(err) still works
// through a chain of wraps.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case *Error:
			cp := *arg
			e.Err = &cp
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			return Errorf("errors.E: bad call from %s:%d: %v", file, line, args)
		}
	}

	if prev, ok := e.Err.(*Error); ok {
		// Suppress duplicate Kind in the message when nesting our own
		// errors.
		if e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		} else if prev.Kind == e.Kind {
			prev.Kind = Other
		}
	}
	return e
}

// WithEntryName attaches an entry-name to err if err is (or wraps) an
// *Error; otherwise it wraps err in a new *Error carrying the name.
func WithEntryName(name string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.EntryName = name
		return &cp
	}
	return &Error{EntryName: name, Err: err}
}

func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.EntryName != "" {
		pad(b, ": ")
		b.WriteString(e.EntryName)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if prevErr, ok := e.Err.(*Error); ok && *prevErr != (Error{}) {
			pad(b, Separator)
			b.WriteString(e.Err.Error())
		} else if !ok {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Unwrap lets errors.Is / errors.As see through an *Error to its cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, errors.E(errors.NotFound)) style sentinel checks work
// without constructing identical EntryName/Op values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != Other && t.Kind != e.Kind {
		return false
	}
	return true
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else Other.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Other
}

// Str returns an error that formats as the given text. It is intended
// to be used as the error-typed argument to E.
func Str(text string) error {
	return &errorString{text}
}

type errorString struct{ s string }

func (e *errorString) Error() string { return e.s }

// Errorf is equivalent to fmt.Errorf, but lets callers that otherwise
// only import this package format ad hoc errors.
func Errorf(format string, args ...interface{}) error {
	return &errorString{fmt.Sprintf(format, args...)}
}
