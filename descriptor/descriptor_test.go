package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosureVisitsEachFileOnce(t *testing.T) {
	files := map[string]File{
		"a.proto": {Name: "a.proto", Deps: []string{"b.proto", "c.proto"}},
		"b.proto": {Name: "b.proto", Deps: []string{"c.proto"}},
		"c.proto": {Name: "c.proto"},
	}
	lookup := func(name string) (File, bool) {
		f, ok := files[name]
		return f, ok
	}

	fs := Closure(files["a.proto"], lookup)

	names := make([]string, 0, len(fs.Files))
	for _, f := range fs.Files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a.proto", "b.proto", "c.proto"}, names)
}

func TestClosureBreaksCycles(t *testing.T) {
	files := map[string]File{
		"a.proto": {Name: "a.proto", Deps: []string{"b.proto"}},
		"b.proto": {Name: "b.proto", Deps: []string{"a.proto"}},
	}
	lookup := func(name string) (File, bool) {
		f, ok := files[name]
		return f, ok
	}

	fs := Closure(files["a.proto"], lookup)
	assert.Len(t, fs.Files, 2)
}

func TestStaticProvider(t *testing.T) {
	want := FileSet{Files: []File{{Name: "x.proto"}}}
	p := StaticProvider(want)
	got, err := p.Closure()
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
