package subcmd

import (
	"fmt"
	"os/user"
	"path/filepath"
	"testing"
)

func testingUserLookup(who string) (*user.User, error) {
	switch who {
	case "":
		return &user.User{
			HomeDir: filepath.Join("/usr", "default"),
		}, nil
	case "ann":
		return &user.User{
			HomeDir: filepath.Join("/usr", "ann"),
		}, nil
	}
	return nil, fmt.Errorf("no such user")
}

var tildeTests = []struct{ in, out string }{
	{"", ""},
	{"~", filepath.Join("/usr", "default")},
	{"~/", filepath.Join("/usr", "default")},
	{"~/x", filepath.Join("/usr", "default", "x")},
	{"~ann", filepath.Join("/usr", "ann")},
	{"~ann/", filepath.Join("/usr", "ann")},
	{"~ann/x", filepath.Join("/usr", "ann", "x")},
	{"~xxx", "~xxx"},
	{"~xxx/", "~xxx"},
	{"~xxx/x", filepath.Join("~xxx", "x")},
}

func TestTilde(t *testing.T) {
	userLookup = testingUserLookup
	defer func() {
		userLookup = user.Lookup
	}()
	for _, test := range tildeTests {
		out := Tilde(test.in)
		if out != test.out {
			t.Errorf("Tilde(%q) = %q; expected %q", test.in, out, test.out)
		}
	}
}

func TestHasGlobChar(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`foo*`, true},
		{`fo?`, true},
		{`foo`, false},
		{`f\*oo`, false},
		{`f\[o]o`, false},
		{`foo\\`, false},
		{`foo\/a`, false},
	}
	for _, c := range cases {
		got := HasGlobChar(c.in)
		if got != c.want {
			t.Errorf("HasGlobChar(%q) = %t, want %t", c.in, got, c.want)
		}
	}
}

func TestReadWriteLocalRoundTrip(t *testing.T) {
	s := NewState("test")
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	s.MkdirAllLocal(filepath.Dir(path))
	f := s.CreateLocal(path)
	if _, err := f.WriteString("payload"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got := s.ReadAll(path)
	if string(got) != "payload" {
		t.Errorf("ReadAll(%q) = %q; expected %q", path, got, "payload")
	}
}

func TestGlobLocal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		s := NewState("test")
		f := s.CreateLocal(filepath.Join(dir, name))
		f.Close()
	}

	s := NewState("test")
	got := s.GlobLocal(filepath.Join(dir, "*.txt"))
	if len(got) != 2 {
		t.Errorf("GlobLocal(%q) = %v; expected 2 matches", filepath.Join(dir, "*.txt"), got)
	}

	literal := s.GlobLocal(filepath.Join(dir, "a.txt"))
	if len(literal) != 1 || literal[0] != filepath.Join(dir, "a.txt") {
		t.Errorf("GlobLocal with no metacharacters = %v; expected the literal path alone", literal)
	}
}
