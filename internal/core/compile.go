package core

import (
	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
)

// Options configures one Compile invocation. BaseDir is the directory `wrf`
// paths are resolved relative to — normally the source file's own directory
// (spec.md §4.3).
type Options struct {
	BaseDir string
}

// Result is the core's output contract (spec.md §6):
// compile(ast, options) -> { bytes, console_lines, diagnostics }.
type Result struct {
	Bytes        []byte
	ConsoleLines []string
	Diagnostics  *diag.Bag
}

// Compile runs the semantic resolver, linear lowering, and the layout &
// evaluation engine over prog, in that order, stopping early whenever an
// earlier phase already reported diagnostics a later phase could not safely
// build on (a cyclic section graph would recurse forever in lowering; a
// missing output section has nothing to lower from).
func Compile(prog *ast.Program, opts Options) Result {
	bag := &diag.Bag{}

	rp := Resolve(prog, bag)
	if bag.HasErrors() {
		return Result{Diagnostics: bag}
	}

	lw := Lower(rp)
	eng := newEngine(rp, lw, bag, opts.BaseDir, 0)

	// The start address must be a closed-form expression (constants and
	// arithmetic over them) — it seeds abs_addr before anything else is
	// known, so it cannot itself reference a section or label position.
	if rp.OutputStartAddr != nil {
		v, ok, blocked := eng.eval(rp.OutputStartAddr, lw.Root, Triple{})
		if !ok {
			if blocked {
				bag.Add(diag.UnresolvedReference, rp.OutputSpan, "output start address must be a constant expression")
			}
			return Result{Diagnostics: bag}
		}
		eng.startAddr = v.AsU64()
	}

	if !eng.layoutPass() {
		return Result{Diagnostics: bag}
	}
	if bag.HasErrors() {
		return Result{Diagnostics: bag}
	}
	eng.effectsPass()

	return Result{Bytes: eng.image, ConsoleLines: eng.console, Diagnostics: bag}
}
