// Local file helpers shared by cmd/protobag's subcommands.

package subcmd

import (
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

var userLookup = user.Lookup

var home string // Main user's home directory.

func homeDir(who string) string {
	if who == "" {
		if home == "" {
			u, err := userLookup("")
			if err != nil {
				return "~" // What else can we do?
			}
			home = u.HomeDir
		}
		return home
	}
	u, err := userLookup(who)
	if err != nil {
		return "~" + who // Again, what else can we do?
	}
	return u.HomeDir
}

// Tilde processes a leading tilde, if any, in the local file name.
// If the file name does not begin with a tilde, Tilde returns the argument
// unchanged. This special processing (only) is applied to all local file
// names passed to functions in this package.
// If the target user does not exist, it returns the original string.
func Tilde(file string) string {
	if file == "" || file[0] != '~' {
		return file
	}
	if file == "~" {
		return homeDir("")
	}
	slash := strings.IndexByte(file, '/')
	if slash < 0 {
		return homeDir(file[1:])
	}
	return filepath.Join(homeDir(file[1:slash]), file[slash+1:])
}

// ReadAll reads all contents from a local input file, or from stdin if the
// input file name is empty.
func (s *State) ReadAll(fileName string) []byte {
	var input *os.File
	fileName = Tilde(fileName)
	if fileName == "" {
		input = os.Stdin
	} else {
		input = s.OpenLocal(fileName)
		defer input.Close()
	}

	data, err := ioutil.ReadAll(input)
	if err != nil {
		s.Exit(err)
	}
	return data
}

// OpenLocal opens a file on local disk.
func (s *State) OpenLocal(path string) *os.File {
	f, err := os.Open(Tilde(path))
	if err != nil {
		s.Exit(err)
	}
	return f
}

// CreateLocal creates a file on local disk.
func (s *State) CreateLocal(path string) *os.File {
	f, err := os.Create(Tilde(path))
	if err != nil {
		s.Exit(err)
	}
	return f
}

// MkdirAllLocal creates a directory on local disk, creating as much of the
// path as is necessary.
func (s *State) MkdirAllLocal(path string) {
	err := os.MkdirAll(Tilde(path), 0700)
	if err != nil {
		s.Exit(err)
	}
}

// HasGlobChar reports whether the string contains a Glob metacharacter.
// A character escaped by a backslash is not a metacharacter.
func HasGlobChar(pattern string) bool {
	esc := false
	for _, r := range pattern {
		if esc {
			esc = false
			continue
		}
		switch r {
		case '\\':
			esc = true
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// GlobLocal glob-expands the argument, which should be a syntactically
// valid Glob pattern (including a plain file name).
func (s *State) GlobLocal(pattern string) []string {
	pattern = Tilde(pattern)
	// If it has no metacharacters, leave it alone.
	if !HasGlobChar(pattern) {
		return []string{pattern}
	}
	strs, err := filepath.Glob(pattern)
	if err != nil {
		// Bad pattern, so treat as a literal.
		return []string{pattern}
	}
	return strs
}
