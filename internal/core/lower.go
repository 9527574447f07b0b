package core

import "github.com/brinklang/brinkc/internal/ast"

// Op is one entry of the "linear DB" spec.md §3/§4.2 describes: the
// flattened, occurrence-annotated operation stream the layout engine walks.
type Op interface {
	opNode()
	occOf() OccID
}

type opBase struct {
	Occ  OccID
	Span ast.Span
}

func (o opBase) occOf() OccID { return o.Occ }

type EnterSectionOp struct{ opBase }
type LeaveSectionOp struct{ opBase }

func (EnterSectionOp) opNode() {}
func (LeaveSectionOp) opNode() {}

// EmitLiteralOp carries already-decoded, already-concatenated bytes: a
// `wrs` statement's length never depends on layout, so lowering resolves it
// immediately (spec.md §4.2's structural-determinism invariant).
type EmitLiteralOp struct {
	opBase
	Bytes []byte
}

func (EmitLiteralOp) opNode() {}

// EmitFileOp defers reading Path until the layout pass, since file contents
// aren't needed to decide lowering structure but I/O belongs in the engine
// proper (spec.md §4.3's file-io error).
type EmitFileOp struct {
	opBase
	Path string
}

func (EmitFileOp) opNode() {}

// EmitIntOp is `wrN value, repeat?`. Value and Repeat ride along as
// expression trees because their values (and, for Repeat, the byte count
// itself) may depend on layout.
type EmitIntOp struct {
	opBase
	Width  int
	Value  ast.Expr
	Repeat ast.Expr // nil means literal 1
}

func (EmitIntOp) opNode() {}

type PadToOp struct {
	opBase
	Kind    ast.PadKind
	Target  ast.Expr
	PadByte ast.Expr // nil means literal 0
}

func (PadToOp) opNode() {}

type AlignOp struct {
	opBase
	Alignment ast.Expr
	PadByte   ast.Expr
}

func (AlignOp) opNode() {}

type AssertOp struct {
	opBase
	Expr ast.Expr
}

func (AssertOp) opNode() {}

type PrintOp struct {
	opBase
	Args []ast.Expr
}

func (PrintOp) opNode() {}

type LabelDefOp struct {
	opBase
	Label LabelID
}

func (LabelDefOp) opNode() {}

// Lowered is the flattened program: the linear op stream plus the
// occurrence table lowering minted while walking it.
type Lowered struct {
	Ops         []Op
	Occurrences map[OccID]*occurrence
	Root        OccID
}

// Lower walks the section tree from rp.OutputSection in source order,
// depth-first, minting a fresh occurrence for every `wr` encountered and
// inlining its statements (spec.md §4.2). rp must already be free of
// resolver errors — a cyclic "writes" graph would otherwise recurse forever.
func Lower(rp *ResolvedProgram) *Lowered {
	lw := &Lowered{Occurrences: make(map[OccID]*occurrence)}
	lw.Root = lw.lowerSection(rp, rp.OutputSection, noOcc)
	return lw
}

func (lw *Lowered) lowerSection(rp *ResolvedProgram, sectionID SectionID, parent OccID) OccID {
	info := rp.Sections[sectionID]
	occID := OccID(len(lw.Occurrences))
	lw.Occurrences[occID] = &occurrence{id: occID, section: sectionID, parent: parent}

	lw.Ops = append(lw.Ops, EnterSectionOp{opBase{Occ: occID, Span: info.span}})
	for _, st := range info.decl.Stmts {
		lw.lowerStmt(rp, st, occID)
	}
	lw.Ops = append(lw.Ops, LeaveSectionOp{opBase{Occ: occID, Span: info.span}})
	return occID
}

func (lw *Lowered) lowerStmt(rp *ResolvedProgram, st ast.Stmt, occID OccID) {
	switch s := st.(type) {
	case *ast.LabelDef:
		labelID := rp.LabelByName[s.Name]
		lw.Ops = append(lw.Ops, LabelDefOp{opBase{Occ: occID, Span: s.Span}, labelID})

	case *ast.WriteString:
		var bytes []byte
		for _, p := range s.Parts {
			if lit, ok := p.(*ast.StringLit); ok {
				bytes = append(bytes, lit.Value...)
			}
		}
		lw.Ops = append(lw.Ops, EmitLiteralOp{opBase{Occ: occID, Span: s.Span}, bytes})

	case *ast.WriteSection:
		childID, ok := rp.SectionByName[s.Name]
		if !ok {
			return // already reported by the resolver
		}
		lw.lowerSection(rp, childID, occID)

	case *ast.WriteFile:
		lw.Ops = append(lw.Ops, EmitFileOp{opBase{Occ: occID, Span: s.Span}, s.Path})

	case *ast.WriteInt:
		lw.Ops = append(lw.Ops, EmitIntOp{opBase{Occ: occID, Span: s.Span}, s.Width, s.Value, s.Repeat})

	case *ast.AlignStmt:
		lw.Ops = append(lw.Ops, AlignOp{opBase{Occ: occID, Span: s.Span}, s.Alignment, s.PadByte})

	case *ast.SetStmt:
		lw.Ops = append(lw.Ops, PadToOp{opBase{Occ: occID, Span: s.Span}, s.Kind, s.Target, s.PadByte})

	case *ast.AssertStmt:
		lw.Ops = append(lw.Ops, AssertOp{opBase{Occ: occID, Span: s.Span}, s.Expr})

	case *ast.PrintStmt:
		lw.Ops = append(lw.Ops, PrintOp{opBase{Occ: occID, Span: s.Span}, s.Args})
	}
}
