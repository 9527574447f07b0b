package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunWritesOutputFileAndExitsZero(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.brink")
	if err := os.WriteFile(src, []byte(`section foo { wrs "hi"; } output foo;`), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.bin")

	code := run([]string{"-o", out, src})
	if code != exitOK {
		t.Fatalf("run returned %d, want %d", code, exitOK)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

func TestRunReturnsParseExitCodeOnSyntaxError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.brink")
	if err := os.WriteFile(src, []byte(`section foo { $ } output foo;`), 0o644); err != nil {
		t.Fatal(err)
	}
	code := run([]string{"-o", filepath.Join(dir, "out.bin"), src})
	if code != exitParse {
		t.Fatalf("run returned %d, want %d (exitParse)", code, exitParse)
	}
}

func TestRunReturnsSemanticExitCodeOnAssertionFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fails.brink")
	if err := os.WriteFile(src, []byte(`section foo { assert 0; } output foo;`), 0o644); err != nil {
		t.Fatal(err)
	}
	code := run([]string{"-o", filepath.Join(dir, "out.bin"), src})
	if code != exitSemantic {
		t.Fatalf("run returned %d, want %d (exitSemantic)", code, exitSemantic)
	}
}

func TestRunReturnsUsageExitCodeOnMissingFile(t *testing.T) {
	code := run([]string{"/nonexistent/path/does-not-exist.brink"})
	if code != exitUsage {
		t.Fatalf("run returned %d, want %d (exitUsage)", code, exitUsage)
	}
}
