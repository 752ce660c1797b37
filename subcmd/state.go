// Package subcmd provides the common state and flag-parsing helpers
// shared by cmd/protobag's subcommands.
package subcmd

import (
	"fmt"
	"io"
	"os"

	"protobag.io/shutdown"
)

// State describes the state of a subcommand.
type State struct {
	Name        string // Name of the subcommand we are running.
	Interactive bool   // Whether the command is line-by-line.
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	ExitCode    int
}

// NewState returns a new State for the named subcommand.
func NewState(name string) *State {
	s := &State{Name: name}
	s.DefaultIO()
	return s
}

func (s *State) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	s.Stdin = stdin
	s.Stdout = stdout
	s.Stderr = stderr
}

func (s *State) DefaultIO() {
	s.SetIO(os.Stdin, os.Stdout, os.Stderr)
}

// Exitf prints the error and exits the program. If s.Interactive is set,
// it panics with "exit" instead, for the caller to recover from.
func (s *State) Exitf(format string, args ...interface{}) {
	format = fmt.Sprintf("protobag: %s: %s\n", s.Name, format)
	fmt.Fprintf(s.Stderr, format, args...)
	if s.Interactive {
		panic("exit")
	}
	s.ExitCode = 1
	s.ExitNow()
}

// Exit calls s.Exitf with the error.
func (s *State) Exit(err error) {
	s.Exitf("%s", err)
}

// ExitNow terminates the process with the current ExitCode.
func (s *State) ExitNow() {
	shutdown.Now(s.ExitCode)
}

// Failf logs the error and sets the exit code without exiting.
func (s *State) Failf(format string, args ...interface{}) {
	format = fmt.Sprintf("protobag: %s: %s\n", s.Name, format)
	fmt.Fprintf(s.Stderr, format, args...)
	s.ExitCode = 1
}

// Fail calls s.Failf with the error.
func (s *State) Fail(err error) {
	s.Failf("%v", err)
}
