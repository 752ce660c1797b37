// Package plog exports the logging primitives used across protobag. All
// core packages log through here rather than the standard library
// directly, so a host process can redirect or structure the output
// (e.g. to logrus) without protobag depending on a concrete backend.
package plog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is the interface for logging messages.
type Logger interface {
	Debugf(format string, v ...interface{})
	Printf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Level represents the severity of a log line.
type Level int

// Severities, lowest first.
const (
	DebugLevel Level = iota
	InfoLevel
	ErrorLevel
	DisabledLevel
)

// The set of default loggers for each log level.
var (
	Debug = &leveled{DebugLevel}
	Info  = &leveled{InfoLevel}
	Error = &leveled{ErrorLevel}
)

var (
	currentLevel         = InfoLevel
	defaultLogger Logger = newStdLogger(os.Stderr)
)

// SetLevel changes the minimum level that is actually emitted.
func SetLevel(l Level) { currentLevel = l }

// SetLogger replaces the default backend (e.g. with a logrus adapter).
// Passing nil disables logging entirely.
func SetLogger(l Logger) { defaultLogger = l }

// SetOutput replaces the current backend, including one installed by
// SetLogger, with a stdlib-backed logger writing to w. A nil w disables
// logging.
func SetOutput(w io.Writer) {
	if w == nil {
		defaultLogger = nil
		return
	}
	defaultLogger = newStdLogger(w)
}

// Flush is a no-op for the stdlib and logrus backends, which write
// synchronously; it exists so shutdown.Handle(plog.Flush) has something to
// register as the last-in-first-out shutdown step.
func Flush() {}

type leveled struct{ level Level }

func (l *leveled) enabled() bool { return l.level >= currentLevel && defaultLogger != nil }

func (l *leveled) Printf(format string, v ...interface{}) {
	if !l.enabled() {
		return
	}
	switch l.level {
	case DebugLevel:
		defaultLogger.Debugf(format, v...)
	case ErrorLevel:
		defaultLogger.Errorf(format, v...)
	default:
		defaultLogger.Printf(format, v...)
	}
}

func (l *leveled) Print(v ...interface{}) { l.Printf("%s", fmt.Sprint(v...)) }

// stdLogger adapts the standard library "log" package to the Logger
// interface; it is the default backend until SetLogger is called.
type stdLogger struct{ l *log.Logger }

func newStdLogger(w io.Writer) Logger {
	return &stdLogger{l: log.New(w, "", log.LstdFlags|log.Lshortfile)}
}

func (s *stdLogger) Debugf(format string, v ...interface{}) { s.l.Output(3, "DEBUG "+fmt.Sprintf(format, v...)) }
func (s *stdLogger) Printf(format string, v ...interface{}) { s.l.Output(3, "INFO  "+fmt.Sprintf(format, v...)) }
func (s *stdLogger) Errorf(format string, v ...interface{}) { s.l.Output(3, "ERROR "+fmt.Sprintf(format, v...)) }
