// Package diag collects user-visible compile diagnostics. It deliberately
// does not try to be the pretty source-span renderer spec.md §1 calls an
// external collaborator — Render below is the simple, single-style
// formatter an actual CLI ships with; a richer renderer is a drop-in
// replacement behind the same Diagnostic values.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brinklang/brinkc/internal/ast"
)

// Kind is one of the stable error codes spec.md §7 enumerates.
type Kind string

const (
	Parse               Kind = "parse"
	DuplicateName       Kind = "duplicate-name"
	MissingOutput       Kind = "missing-output"
	MultipleOutput      Kind = "multiple-output"
	UndefinedIdentifier Kind = "undefined-identifier"
	OutOfScope          Kind = "out-of-scope"
	Cycle               Kind = "cycle"
	TypeMismatch        Kind = "type-mismatch"
	ArithOverflow       Kind = "arith-overflow"
	DivZero             Kind = "div-zero"
	BackwardMotion      Kind = "backward-motion"
	BadAlignment        Kind = "bad-alignment"
	FileIO              Kind = "file-io"
	AssertionFailed     Kind = "assertion-failed"
	UnresolvedReference Kind = "unresolved-reference"
)

// Diagnostic is one reported problem, always anchored to the offending
// expression or statement's source span.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    ast.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: error[%s]: %s", d.Span, d.Kind, d.Message)
}

// Bag accumulates diagnostics across a single compile so the compiler can
// report as many independent problems as possible in one run, per spec.md
// §7. Callers that just want a go/no-go signal can use AsError, which turns
// the bag into an error value (nil when empty), while callers that want the
// structured list use Diagnostics directly.
type Bag struct {
	items []Diagnostic
}

// Add appends one diagnostic.
func (b *Bag) Add(kind Kind, span ast.Span, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// HasErrors reports whether any diagnostic has been recorded.
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// Diagnostics returns the accumulated diagnostics sorted by source position
// (file, then offset), with ties broken by insertion order so output is
// stable across runs given identical input — spec.md §8's determinism
// requirement extended to diagnostics.
func (b *Bag) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Span, out[j].Span
		if si.File != sj.File {
			return si.File < sj.File
		}
		return si.StartOffset < sj.StartOffset
	})
	return out
}

// AsError returns nil if the bag is empty, otherwise an error whose message
// is every diagnostic rendered one per line.
func (b *Bag) AsError() error {
	if !b.HasErrors() {
		return nil
	}
	return bagError{b.Diagnostics()}
}

type bagError struct{ items []Diagnostic }

func (e bagError) Error() string {
	var sb strings.Builder
	for i, d := range e.items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(Render("", d))
	}
	return sb.String()
}

// Render formats one diagnostic in the rustc-ish style the teacher's own
// parser.formatError uses: a location line followed by the offending source
// line and a caret underline, when source is available. source may be empty
// (e.g. for diagnostics raised after the originating file's text has gone
// out of scope), in which case Render falls back to the single line
// "file:line:col: error[kind]: message".
func Render(source string, d Diagnostic) string {
	if source == "" {
		return fmt.Sprintf("%s: error[%s]: %s", d.Span, d.Kind, d.Message)
	}
	lines := strings.Split(source, "\n")
	line := d.Span.StartLine
	if line < 1 || line > len(lines) {
		return fmt.Sprintf("%s: error[%s]: %s", d.Span, d.Kind, d.Message)
	}
	src := lines[line-1]
	gutter := fmt.Sprintf("%4d | ", line)
	col := d.Span.StartColumn
	if col < 1 {
		col = 1
	}
	marker := strings.Repeat(" ", len(gutter)+col-1) + "^"
	return fmt.Sprintf("%s: error[%s]: %s\n%s%s\n%s", d.Span, d.Kind, d.Message, gutter, src, marker)
}
