// Package descriptor models the "schema file closure" that the bag index
// stores per type URL, so a reader without the producer's type
// definitions compiled in can still decode a payload (spec.md §3.3).
//
// The message-encoding schema library itself is out of scope for this
// module (spec.md §1), so a File here is an opaque, producer-supplied
// blob plus the names of the files it depends on — not a
// protobuf-reflection FileDescriptor. This package only owns the BFS
// closure algorithm and the write-time capability that supplies it.
package descriptor

// File is one schema file definition: its name, opaque serialized form,
// and the names of files it directly depends on.
type File struct {
	Name string
	Data []byte
	Deps []string
}

// FileSet is a type URL's full dependency closure: the file defining the
// type and every file it transitively depends on, each appearing once.
type FileSet struct {
	Files []File
}

// Provider supplies the FileSet closure for a type at write time. It
// replaces a raw, borrowed descriptor pointer (the design note "Raw
// pointer-to-schema-descriptor context" calls out this exact hazard):
// callers hand protobag an owned value, or a capability that can lazily
// compute one, rather than a pointer that might outlive its owner.
type Provider interface {
	Closure() (FileSet, error)
}

// StaticProvider is a Provider that already holds its materialized
// FileSet, e.g. one built once by Closure and reused for every Entry of
// the same type.
type StaticProvider FileSet

// Closure implements Provider.
func (p StaticProvider) Closure() (FileSet, error) { return FileSet(p), nil }

// Lookup resolves a file by name to its definition, for use by Closure's
// breadth-first traversal. It returns false if the file is unknown.
type Lookup func(name string) (File, bool)

// Closure performs a breadth-first traversal of root's dependency graph
// using lookup to resolve each dependency name, visiting every file at
// most once (the visited set is what makes the result cycle-free even
// if the input graph is not, per spec.md §3.3's invariant and the
// "Descriptor cycles" design note).
func Closure(root File, lookup Lookup) FileSet {
	visited := make(map[string]bool)
	var order []File

	queue := []File{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.Name] {
			continue
		}
		visited[cur.Name] = true
		order = append(order, cur)

		for _, dep := range cur.Deps {
			if visited[dep] {
				continue
			}
			if f, ok := lookup(dep); ok {
				queue = append(queue, f)
			}
		}
	}

	return FileSet{Files: order}
}
