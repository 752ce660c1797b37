package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"protobag.io/subcmd"
)

// runCmd runs fn(s, args...) and captures its stdout/stderr. It recovers
// from the panic("exit") that s.Exitf raises in interactive mode, the same
// pattern cmd/upspin's test runner uses around State.Exitf.
func runCmd(fn func(*State, ...string), args ...string) (stdout, stderr string) {
	s := &State{State: subcmd.NewState("test")}
	s.Interactive = true
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	s.SetIO(strings.NewReader(""), out, errOut)

	func() {
		defer func() {
			if rec := recover(); rec != nil && rec != "exit" {
				panic(rec)
			}
		}()
		fn(s, args...)
	}()
	return out.String(), errOut.String()
}

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcFile := writeTempFile(t, dir, "hello.txt", "hello, protobag")
	bagPath := filepath.Join(dir, "bag")

	_, stderr := runCmd((*State).write, bagPath, srcFile)
	if stderr != "" {
		t.Fatalf("write: unexpected stderr: %q", stderr)
	}

	outDir := filepath.Join(dir, "out")
	_, stderr = runCmd((*State).read, "-out", outDir, bagPath)
	if stderr != "" {
		t.Fatalf("read: unexpected stderr: %q", stderr)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello, protobag" {
		t.Fatalf("got %q, want %q", got, "hello, protobag")
	}
}

func TestWriteTopicThenTopicsAndIndex(t *testing.T) {
	dir := t.TempDir()
	srcFile := writeTempFile(t, dir, "frame.bin", "framedata")
	bagPath := filepath.Join(dir, "bag")

	_, stderr := runCmd((*State).write, "-topic", "/cam/front", bagPath, srcFile)
	if stderr != "" {
		t.Fatalf("write: unexpected stderr: %q", stderr)
	}

	stdout, stderr := runCmd((*State).topics, bagPath)
	if stderr != "" {
		t.Fatalf("topics: unexpected stderr: %q", stderr)
	}
	if !strings.Contains(stdout, "/cam/front") {
		t.Fatalf("topics output missing /cam/front: %q", stdout)
	}

	stdout, stderr = runCmd((*State).index, bagPath)
	if stderr != "" {
		t.Fatalf("index: unexpected stderr: %q", stderr)
	}
	if !strings.Contains(stdout, "/cam/front") || !strings.Contains(stdout, "1 messages") {
		t.Fatalf("index output missing topic stats: %q", stdout)
	}
}

func TestReadRejectsMissingBag(t *testing.T) {
	dir := t.TempDir()
	_, stderr := runCmd((*State).read, filepath.Join(dir, "does-not-exist"))
	if stderr == "" {
		t.Fatal("expected an error reading a missing bag")
	}
}

func TestSyncRequiresTopics(t *testing.T) {
	dir := t.TempDir()
	bagPath := filepath.Join(dir, "bag")
	_, stderr := runCmd((*State).write, bagPath, writeTempFile(t, dir, "a.txt", "a"))
	if stderr != "" {
		t.Fatalf("write: unexpected stderr: %q", stderr)
	}

	_, stderr = runCmd((*State).sync, bagPath)
	if !strings.Contains(stderr, "-topics is required") {
		t.Fatalf("expected -topics is required error, got %q", stderr)
	}
}
