package core

import (
	"os"
	"path/filepath"

	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
)

// pendingInt is an EmitIntOp whose width*repeat byte span is reserved in the
// image during layout, but whose actual value is only known once the effects
// pass can evaluate it against a fully-resolved symbol table.
type pendingInt struct {
	imgOffset uint64
	width     int
	repeat    uint64
	value     ast.Expr
	occ       OccID
	span      ast.Span
}

// pendingFill is a PadTo/Align span: the byte count is already known from
// layout, but the fill byte's expression is evaluated in the effects pass.
type pendingFill struct {
	imgOffset uint64
	length    uint64
	padByte   ast.Expr
	occ       OccID
	span      ast.Span
}

// engine is the layout & evaluation engine of spec.md §4.3. One engine
// handles exactly one compile.
type engine struct {
	rp *ResolvedProgram
	lw *Lowered

	bag *diag.Bag

	baseDir  string
	readFile func(string) ([]byte, error)

	labels      map[LabelID]*label
	sectionSize map[SectionID]uint64

	image        []byte
	pendingInts  []pendingInt
	pendingFills []pendingFill

	console []string

	startAddr uint64
}

func newEngine(rp *ResolvedProgram, lw *Lowered, bag *diag.Bag, baseDir string, startAddr uint64) *engine {
	labels := make(map[LabelID]*label, len(rp.LabelByName))
	for name, id := range rp.LabelByName {
		labels[id] = &label{id: id, name: name}
	}
	return &engine{
		rp:          rp,
		lw:          lw,
		bag:         bag,
		baseDir:     baseDir,
		readFile:    os.ReadFile,
		labels:      labels,
		sectionSize: make(map[SectionID]uint64),
		startAddr:   startAddr,
	}
}

// occFrame tracks sec_off bookkeeping across nested EnterSection/
// LeaveSection pairs (spec.md §4.3: "sec_off resets at each EnterSection...
// and restores + adds child size on LeaveSection").
type occFrame struct {
	outerSecOff uint64
}

// layoutPass walks the linear op stream once, resolving every occurrence's
// start/end triple and every label's triple, and reserving (but not
// necessarily filling) every byte the image will contain. Returns false if
// it had to abort on an unresolved layout-affecting reference.
func (e *engine) layoutPass() bool {
	lc := Triple{SecOff: 0, ImgOff: 0, AbsAddr: e.startAddr}
	var stack []occFrame

	for _, op := range e.lw.Ops {
		switch o := op.(type) {
		case EnterSectionOp:
			occ := e.lw.Occurrences[o.Occ]
			if !occ.startKnown {
				occ.start = lc
				occ.startKnown = true
			}
			stack = append(stack, occFrame{outerSecOff: lc.SecOff})
			lc.SecOff = 0

		case LeaveSectionOp:
			childSize := lc.SecOff
			occ := e.lw.Occurrences[o.Occ]
			if !occ.endKnown {
				occ.end = lc
				occ.end.SecOff = childSize
				occ.endKnown = true
				if _, have := e.sectionSize[occ.section]; !have {
					e.sectionSize[occ.section] = childSize
				}
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			lc.SecOff = frame.outerSecOff + childSize

		case EmitLiteralOp:
			e.image = append(e.image, o.Bytes...)
			lc = advance(lc, uint64(len(o.Bytes)))

		case EmitFileOp:
			data, err := e.readFileBytes(o.Path)
			if err != nil {
				e.bag.Add(diag.FileIO, o.Span, "reading %q: %s", o.Path, err)
				break
			}
			e.image = append(e.image, data...)
			lc = advance(lc, uint64(len(data)))

		case EmitIntOp:
			repeat := uint64(1)
			if o.Repeat != nil {
				v, ok, blocked := e.eval(o.Repeat, o.Occ, lc)
				if !ok {
					if blocked {
						e.bag.Add(diag.UnresolvedReference, o.Span, "repeat count for wr%d could not be resolved", o.Width*8)
						return false
					}
					break
				}
				if v.Kind == KindI64 && v.AsI64() < 0 {
					e.bag.Add(diag.ArithOverflow, o.Span, "repeat count must be non-negative")
					break
				}
				repeat = v.AsU64()
			}
			n := repeat * uint64(o.Width)
			if n > 0 {
				e.pendingInts = append(e.pendingInts, pendingInt{
					imgOffset: uint64(len(e.image)), width: o.Width, repeat: repeat,
					value: o.Value, occ: o.Occ, span: o.Span,
				})
				e.image = append(e.image, make([]byte, n)...)
			}
			lc = advance(lc, n)

		case PadToOp:
			target, ok, blocked := e.eval(o.Target, o.Occ, lc)
			if !ok {
				if blocked {
					e.bag.Add(diag.UnresolvedReference, o.Span, "pad target could not be resolved")
					return false
				}
				break
			}
			current := lc.component(o.Kind)
			targetU := target.AsU64()
			if targetU < current {
				e.bag.Add(diag.BackwardMotion, o.Span, "set_%s target 0x%x is behind the current position 0x%x", o.Kind, targetU, current)
				break
			}
			n := targetU - current
			if n > 0 {
				e.pendingFills = append(e.pendingFills, pendingFill{
					imgOffset: uint64(len(e.image)), length: n, padByte: o.PadByte, occ: o.Occ, span: o.Span,
				})
				e.image = append(e.image, make([]byte, n)...)
			}
			lc = advance(lc, n)

		case AlignOp:
			alignment, ok, blocked := e.eval(o.Alignment, o.Occ, lc)
			if !ok {
				if blocked {
					e.bag.Add(diag.UnresolvedReference, o.Span, "alignment could not be resolved")
					return false
				}
				break
			}
			a := alignment.AsU64()
			if a == 0 {
				e.bag.Add(diag.BadAlignment, o.Span, "align 0 is not allowed")
				break
			}
			var n uint64
			if a != 1 {
				n = (a - (lc.AbsAddr % a)) % a
			}
			if n > 0 {
				e.pendingFills = append(e.pendingFills, pendingFill{
					imgOffset: uint64(len(e.image)), length: n, padByte: o.PadByte, occ: o.Occ, span: o.Span,
				})
				e.image = append(e.image, make([]byte, n)...)
			}
			lc = advance(lc, n)

		case LabelDefOp:
			lbl := e.labels[o.Label]
			if !lbl.resolved {
				lbl.pos = lc
				lbl.resolved = true
			}

		case AssertOp, PrintOp:
			// Deferred entirely to the effects pass.
		}
	}
	return true
}

// advance moves all three LC components forward by n, preserving the
// abs_addr - img_off invariant (spec.md §3) and the forward-motion
// invariant (spec.md §4.3) since n is always non-negative here.
func advance(lc Triple, n uint64) Triple {
	lc.SecOff += n
	lc.ImgOff += n
	lc.AbsAddr += n
	return lc
}

func (e *engine) readFileBytes(path string) ([]byte, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(e.baseDir, path)
	}
	return e.readFile(full)
}

// effectsPass re-walks the op stream now that every occurrence and label is
// fully resolved, finalising pending EmitBytes values and pad fills and
// evaluating Assert/Print (spec.md §4.3, §4.5).
func (e *engine) effectsPass() {
	lc := Triple{SecOff: 0, ImgOff: 0, AbsAddr: e.startAddr}
	var stack []occFrame
	intIdx, fillIdx := 0, 0

	for _, op := range e.lw.Ops {
		switch o := op.(type) {
		case EnterSectionOp:
			stack = append(stack, occFrame{outerSecOff: lc.SecOff})
			lc.SecOff = 0

		case LeaveSectionOp:
			childSize := lc.SecOff
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			lc.SecOff = frame.outerSecOff + childSize

		case EmitLiteralOp:
			lc = advance(lc, uint64(len(o.Bytes)))

		case EmitFileOp:
			n := uint64(0)
			if data, err := e.readFileBytes(o.Path); err == nil {
				n = uint64(len(data))
			}
			lc = advance(lc, n)

		case EmitIntOp:
			if intIdx < len(e.pendingInts) && e.pendingInts[intIdx].span == o.Span && e.pendingInts[intIdx].occ == o.Occ {
				p := e.pendingInts[intIdx]
				intIdx++
				e.finalizeInt(p, lc)
				lc = advance(lc, p.repeat*uint64(p.width))
			}

		case PadToOp, AlignOp:
			var length uint64
			if fillIdx < len(e.pendingFills) {
				var span ast.Span
				var occ OccID
				if pt, ok := op.(PadToOp); ok {
					span, occ = pt.Span, pt.Occ
				} else {
					al := op.(AlignOp)
					span, occ = al.Span, al.Occ
				}
				if e.pendingFills[fillIdx].span == span && e.pendingFills[fillIdx].occ == occ {
					f := e.pendingFills[fillIdx]
					fillIdx++
					e.finalizeFill(f, lc)
					length = f.length
				}
			}
			lc = advance(lc, length)

		case LabelDefOp:
			// Position already recorded in the layout pass.

		case AssertOp:
			v, ok, blocked := e.eval(o.Expr, o.Occ, lc)
			if !ok {
				if blocked {
					e.bag.Add(diag.UnresolvedReference, o.Span, "assertion expression could not be resolved")
				}
				continue
			}
			if v.Kind == KindString {
				e.bag.Add(diag.TypeMismatch, o.Span, "assert requires an integer expression")
				continue
			}
			if !v.Truthy() {
				e.bag.Add(diag.AssertionFailed, o.Span, "assertion failed")
			}

		case PrintOp:
			line := ""
			ok := true
			for _, arg := range o.Args {
				v, argOK, blocked := e.eval(arg, o.Occ, lc)
				if !argOK {
					ok = false
					if blocked {
						e.bag.Add(diag.UnresolvedReference, o.Span, "print argument could not be resolved")
					}
					break
				}
				line += v.Format()
			}
			if ok {
				e.console = append(e.console, line)
			}
		}
	}
}

func (e *engine) finalizeInt(p pendingInt, lc Triple) {
	v, ok, blocked := e.eval(p.value, p.occ, lc)
	if !ok {
		if blocked {
			e.bag.Add(diag.UnresolvedReference, p.span, "write value could not be resolved")
		}
		return
	}
	if v.Kind == KindString {
		e.bag.Add(diag.TypeMismatch, p.span, "wr%d requires an integer expression", p.width*8)
		return
	}
	bits := v.AsU64()
	if p.width < 8 {
		bits &= (uint64(1) << (uint(p.width) * 8)) - 1
	}
	one := make([]byte, p.width)
	for i := 0; i < p.width; i++ {
		one[i] = byte(bits >> (uint(i) * 8))
	}
	for i := uint64(0); i < p.repeat; i++ {
		copy(e.image[p.imgOffset+i*uint64(p.width):], one)
	}
}

func (e *engine) finalizeFill(f pendingFill, lc Triple) {
	fillByte := byte(0)
	if f.padByte != nil {
		v, ok, blocked := e.eval(f.padByte, f.occ, lc)
		if !ok {
			if blocked {
				e.bag.Add(diag.UnresolvedReference, f.span, "pad byte could not be resolved")
			}
			return
		}
		if v.Kind == KindString {
			e.bag.Add(diag.TypeMismatch, f.span, "pad byte must be an integer expression")
			return
		}
		fillByte = byte(v.AsU64() & 0xFF)
	}
	for i := uint64(0); i < f.length; i++ {
		e.image[f.imgOffset+i] = fillByte
	}
}
