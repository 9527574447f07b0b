// Command brink compiles a .brink source file into a binary image, per
// spec.md §6: `brink <source.brink> [-o <output_path>]`.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/brinklang/brinkc/internal/core"
	"github.com/brinklang/brinkc/internal/diag"
	"github.com/brinklang/brinkc/internal/parser"
)

const versionString = "brink 0.1.0"

const defaultOutputFilename = "output.bin"

// Exit codes: 0 success, 2 parse failure, 1 any compile diagnostic
// (semantic/layout/assertion, including a `wrf` file-io diagnostic), 3 a
// CLI-usage failure or failing to read the source or write the output file
// (SPEC_FULL.md §3).
const (
	exitOK       = 0
	exitSemantic = 1
	exitParse    = 2
	exitUsage    = 3
)

var dbg = log.New(io.Discard, term.MagentaBold("brink:")+" ", 0)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("brink", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("o", defaultOutputFilename, "output binary path")
	verbose := fs.Bool("v", false, "verbose mode (enable debug logging)")
	version := fs.Bool("version", false, "print version information and exit")
	dumpLayout := fs.Bool("dump-layout", false, "under -v, dump the console lines produced by print")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *version {
		fmt.Println(versionString)
		return exitOK
	}
	if *verbose {
		dbg.SetOutput(os.Stderr)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: brink <source.brink> [-o <output_path>]\n")
		return exitUsage
	}
	srcPath := fs.Arg(0)

	source, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "reading source file"))
		return exitUsage
	}
	dbg.Printf("read %d bytes from %s", len(source), srcPath)

	prog, bag := parser.Parse(srcPath, string(source))
	if bag.HasErrors() {
		printDiagnostics(bag, string(source))
		return exitParse
	}
	dbg.Printf("parsed %d section(s), %d output statement(s)", len(prog.Sections), len(prog.Outputs))

	result := core.Compile(prog, core.Options{BaseDir: filepath.Dir(srcPath)})
	if result.Diagnostics.HasErrors() {
		printDiagnostics(result.Diagnostics, string(source))
		return exitSemantic
	}

	if *verbose && *dumpLayout {
		dbg.Printf("console lines:\n%s", pretty.Sprint(result.ConsoleLines))
	}

	for _, line := range result.ConsoleLines {
		fmt.Print(line)
	}

	if err := os.WriteFile(*out, result.Bytes, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "writing output file"))
		return exitUsage
	}
	dbg.Printf("wrote %d bytes to %s", len(result.Bytes), *out)

	return exitOK
}

func printDiagnostics(bag *diag.Bag, source string) {
	for _, d := range bag.Diagnostics() {
		fmt.Fprintln(os.Stderr, diag.Render(source, d))
	}
}
