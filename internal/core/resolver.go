package core

import (
	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
)

// ResolvedProgram is the semantic resolver's output (spec.md §4.1): sections
// and labels assigned stable ids, the output target validated, every
// identifier reference checked to exist. It still carries the original AST —
// lowering walks that directly, using these tables to resolve names.
type ResolvedProgram struct {
	Sections      map[SectionID]*sectionInfo
	SectionByName map[string]SectionID
	LabelByName   map[string]LabelID

	OutputSection   SectionID
	OutputStartAddr ast.Expr
	OutputSpan      ast.Span
}

// Resolve validates prog against spec.md §4.1's rules, reporting every
// independent problem it can rather than stopping at the first.
func Resolve(prog *ast.Program, bag *diag.Bag) *ResolvedProgram {
	rp := &ResolvedProgram{
		Sections:      make(map[SectionID]*sectionInfo),
		SectionByName: make(map[string]SectionID),
		LabelByName:   make(map[string]LabelID),
	}

	for _, sec := range prog.Sections {
		if _, dup := rp.SectionByName[sec.Name]; dup {
			bag.Add(diag.DuplicateName, sec.Span, "section %q is already defined", sec.Name)
			continue
		}
		id := SectionID(len(rp.Sections))
		rp.SectionByName[sec.Name] = id
		rp.Sections[id] = &sectionInfo{id: id, name: sec.Name, span: sec.Span, decl: sec}
	}

	var nextLabel LabelID
	for _, sec := range prog.Sections {
		for _, st := range sec.Stmts {
			if ld, ok := st.(*ast.LabelDef); ok {
				if _, dup := rp.LabelByName[ld.Name]; dup {
					bag.Add(diag.DuplicateName, ld.Span, "label %q is already defined", ld.Name)
					continue
				}
				rp.LabelByName[ld.Name] = nextLabel
				nextLabel++
			}
		}
	}

	switch len(prog.Outputs) {
	case 0:
		bag.Add(diag.MissingOutput, ast.Span{}, "program has no output statement")
	case 1:
		out := prog.Outputs[0]
		id, ok := rp.SectionByName[out.Target]
		if !ok {
			bag.Add(diag.UndefinedIdentifier, out.Span, "output target %q is not a defined section", out.Target)
		} else {
			rp.OutputSection = id
		}
		rp.OutputStartAddr = out.StartAddr
		rp.OutputSpan = out.Span
	default:
		for _, out := range prog.Outputs[1:] {
			bag.Add(diag.MultipleOutput, out.Span, "program has more than one output statement")
		}
	}

	for _, sec := range prog.Sections {
		for _, st := range sec.Stmts {
			resolveStmt(st, rp, bag)
		}
	}

	detectCycles(prog, rp, bag)

	return rp
}

func resolveStmt(st ast.Stmt, rp *ResolvedProgram, bag *diag.Bag) {
	switch s := st.(type) {
	case *ast.WriteSection:
		if _, ok := rp.SectionByName[s.Name]; !ok {
			bag.Add(diag.UndefinedIdentifier, s.Span, "%q is not a defined section", s.Name)
		}
	case *ast.WriteString:
		for _, e := range s.Parts {
			resolveExpr(e, rp, bag)
		}
	case *ast.WriteInt:
		resolveExpr(s.Value, rp, bag)
		if s.Repeat != nil {
			resolveExpr(s.Repeat, rp, bag)
		}
	case *ast.AlignStmt:
		resolveExpr(s.Alignment, rp, bag)
		if s.PadByte != nil {
			resolveExpr(s.PadByte, rp, bag)
		}
	case *ast.SetStmt:
		resolveExpr(s.Target, rp, bag)
		if s.PadByte != nil {
			resolveExpr(s.PadByte, rp, bag)
		}
	case *ast.AssertStmt:
		resolveExpr(s.Expr, rp, bag)
	case *ast.PrintStmt:
		for _, e := range s.Args {
			resolveExpr(e, rp, bag)
		}
	}
}

func resolveExpr(e ast.Expr, rp *ResolvedProgram, bag *diag.Bag) {
	switch x := e.(type) {
	case *ast.Call:
		if x.Kind == ast.BuiltinSizeof && !x.HasArg {
			bag.Add(diag.UndefinedIdentifier, x.Span, "sizeof requires a section argument")
		}
		if x.HasArg && x.ArgName != "" {
			_, isSection := rp.SectionByName[x.ArgName]
			_, isLabel := rp.LabelByName[x.ArgName]
			switch x.Kind {
			case ast.BuiltinSizeof, ast.BuiltinSec:
				if !isSection {
					bag.Add(diag.UndefinedIdentifier, x.Span, "%q is not a defined section", x.ArgName)
				}
			case ast.BuiltinImg, ast.BuiltinAbs:
				if !isSection && !isLabel {
					bag.Add(diag.UndefinedIdentifier, x.Span, "%q is not a defined section or label", x.ArgName)
				}
			}
		}
		if x.Arg != nil {
			resolveExpr(x.Arg, rp, bag)
		}
	case *ast.BinOp:
		resolveExpr(x.Left, rp, bag)
		resolveExpr(x.Right, rp, bag)
	case *ast.UnaryOp:
		resolveExpr(x.Operand, rp, bag)
	}
}

// detectCycles builds the static section "writes" graph from `wr` statements
// and rejects any section that transitively writes itself (spec.md §4.1,
// §9's "cycle rejection" note).
func detectCycles(prog *ast.Program, rp *ResolvedProgram, bag *diag.Bag) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[SectionID]int)

	var visit func(id SectionID) bool
	visit = func(id SectionID) bool {
		info, ok := rp.Sections[id]
		if !ok {
			return false
		}
		color[id] = gray
		for _, st := range info.decl.Stmts {
			ws, ok := st.(*ast.WriteSection)
			if !ok {
				continue
			}
			childID, ok := rp.SectionByName[ws.Name]
			if !ok {
				continue
			}
			switch color[childID] {
			case white:
				if visit(childID) {
					return true
				}
			case gray:
				bag.Add(diag.Cycle, ws.Span, "section %q transitively writes itself through %q", info.name, ws.Name)
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range rp.Sections {
		if color[id] == white {
			visit(id)
		}
	}
}
