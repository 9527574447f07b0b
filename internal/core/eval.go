package core

import (
	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
)

// eval evaluates expr in the context of occID (the occurrence the statement
// containing expr belongs to, for sec()'s scope rule) and lc (the live
// location counter at this point in the walk, for the zero-arg positional
// queries). Three outcomes: a resolved value (ok); a block on a symbol not
// yet known (blocked, no diagnostic — the caller decides whether that's
// fatal); or a hard error, already appended to e.bag.
func (e *engine) eval(expr ast.Expr, occID OccID, lc Triple) (val Value, ok bool, blocked bool) {
	switch x := expr.(type) {
	case *ast.IntLit:
		return Value{Kind: kindOfSuffix(x.Suffix), Bits: x.Value}, true, false

	case *ast.StringLit:
		return MakeString(x.Value), true, false

	case *ast.Call:
		return e.evalCall(x, occID, lc)

	case *ast.UnaryOp:
		operand, ok, blocked := e.eval(x.Operand, occID, lc)
		if !ok {
			return Value{}, false, blocked
		}
		res, err := UnaryOp(x.Op, operand)
		if err != nil {
			e.reportOpError(x.Span, err)
			return Value{}, false, false
		}
		return res, true, false

	case *ast.BinOp:
		return e.evalBinOp(x, occID, lc)

	default:
		panic("core: unsupported expression node in evaluator")
	}
}

func kindOfSuffix(s ast.LitSuffix) Kind {
	switch s {
	case ast.SuffixUnsigned:
		return KindU64
	case ast.SuffixSigned:
		return KindI64
	default:
		return KindInteger
	}
}

func (e *engine) evalBinOp(x *ast.BinOp, occID OccID, lc Triple) (Value, bool, bool) {
	if x.Op == "&&" || x.Op == "||" {
		left, ok, blocked := e.eval(x.Left, occID, lc)
		if !ok {
			return Value{}, false, blocked
		}
		if left.Kind == KindString {
			e.reportOpError(x.Span, typeMismatch(x.Op, left, left))
			return Value{}, false, false
		}
		if x.Op == "&&" && !left.Truthy() {
			return MakeInteger(0), true, false
		}
		if x.Op == "||" && left.Truthy() {
			return MakeInteger(1), true, false
		}
		right, ok, blocked := e.eval(x.Right, occID, lc)
		if !ok {
			return Value{}, false, blocked
		}
		if right.Kind == KindString {
			e.reportOpError(x.Span, typeMismatch(x.Op, right, right))
			return Value{}, false, false
		}
		return MakeInteger(boolBit(right.Truthy())), true, false
	}

	left, ok, blocked := e.eval(x.Left, occID, lc)
	if !ok {
		return Value{}, false, blocked
	}
	right, ok, blocked := e.eval(x.Right, occID, lc)
	if !ok {
		return Value{}, false, blocked
	}
	res, err := BinaryOp(x.Op, left, right)
	if err != nil {
		e.reportOpError(x.Span, err)
		return Value{}, false, false
	}
	return res, true, false
}

func (e *engine) reportOpError(span ast.Span, err *opError) {
	kind := diag.TypeMismatch
	switch err.kind {
	case "arith-overflow":
		kind = diag.ArithOverflow
	case "div-zero":
		kind = diag.DivZero
	}
	e.bag.Add(kind, span, "%s", err.Error())
}

func (e *engine) evalCall(x *ast.Call, occID OccID, lc Triple) (Value, bool, bool) {
	switch x.Kind {
	case ast.BuiltinToU64, ast.BuiltinToI64:
		v, ok, blocked := e.eval(x.Arg, occID, lc)
		if !ok {
			return Value{}, false, blocked
		}
		if v.Kind == KindString {
			e.reportOpError(x.Span, typeMismatch(x.Kind.String(), v, v))
			return Value{}, false, false
		}
		if x.Kind == ast.BuiltinToU64 {
			return Value{Kind: KindU64, Bits: v.Bits}, true, false
		}
		return Value{Kind: KindI64, Bits: v.Bits}, true, false

	case ast.BuiltinSizeof:
		secID := e.rp.SectionByName[x.ArgName]
		size, known := e.sectionSize[secID]
		if !known {
			return Value{}, false, true
		}
		return MakeU64(size), true, false

	case ast.BuiltinSec:
		if !x.HasArg {
			return MakeU64(lc.SecOff), true, false
		}
		secID, isSection := e.rp.SectionByName[x.ArgName]
		if !isSection {
			e.bag.Add(diag.OutOfScope, x.Span, "%q is not a section", x.ArgName)
			return Value{}, false, false
		}
		target, count := e.findDescendant(secID, occID)
		if count == 0 {
			e.bag.Add(diag.OutOfScope, x.Span, "section %q is not written within the current section's occurrence", x.ArgName)
			return Value{}, false, false
		}
		if count > 1 {
			e.bag.Add(diag.OutOfScope, x.Span, "section %q occurs more than once within the current section's occurrence", x.ArgName)
			return Value{}, false, false
		}
		if !target.startKnown {
			return Value{}, false, true
		}
		cur := e.lw.Occurrences[occID]
		if !cur.startKnown {
			return Value{}, false, true
		}
		return MakeU64(target.start.ImgOff - cur.start.ImgOff), true, false

	case ast.BuiltinImg, ast.BuiltinAbs:
		return e.evalImgAbs(x, lc)

	default:
		panic("core: unknown builtin")
	}
}

func (e *engine) evalImgAbs(x *ast.Call, lc Triple) (Value, bool, bool) {
	component := func(t Triple) uint64 {
		if x.Kind == ast.BuiltinImg {
			return t.ImgOff
		}
		return t.AbsAddr
	}
	if !x.HasArg {
		return MakeU64(component(lc)), true, false
	}
	if labelID, isLabel := e.rp.LabelByName[x.ArgName]; isLabel {
		lbl := e.labels[labelID]
		if !lbl.resolved {
			return Value{}, false, true
		}
		return MakeU64(component(lbl.pos)), true, false
	}
	secID, isSection := e.rp.SectionByName[x.ArgName]
	if !isSection {
		e.bag.Add(diag.OutOfScope, x.Span, "%q is not a defined section or label", x.ArgName)
		return Value{}, false, false
	}
	var match *occurrence
	count := 0
	for _, occ := range e.lw.Occurrences {
		if occ.section == secID {
			count++
			match = occ
		}
	}
	if count == 0 {
		e.bag.Add(diag.OutOfScope, x.Span, "section %q is never reachable from the output root", x.ArgName)
		return Value{}, false, false
	}
	if count > 1 {
		e.bag.Add(diag.OutOfScope, x.Span, "section %q has more than one occurrence reachable from the output root", x.ArgName)
		return Value{}, false, false
	}
	if !match.startKnown {
		return Value{}, false, true
	}
	return MakeU64(component(match.start)), true, false
}

// findDescendant returns the single occurrence of section secID nested
// (transitively) inside occID's subtree, and how many such occurrences
// exist (0, 1, or >1 — ambiguous).
func (e *engine) findDescendant(secID SectionID, occID OccID) (*occurrence, int) {
	var match *occurrence
	count := 0
	for _, occ := range e.lw.Occurrences {
		if occ.section != secID {
			continue
		}
		if e.isDescendant(occ.id, occID) && occ.id != occID {
			count++
			match = occ
		}
	}
	return match, count
}

func (e *engine) isDescendant(candidate, ancestor OccID) bool {
	for cur := candidate; cur != noOcc; {
		if cur == ancestor {
			return true
		}
		occ, ok := e.lw.Occurrences[cur]
		if !ok {
			return false
		}
		cur = occ.parent
	}
	return false
}
