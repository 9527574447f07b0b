// Package ast defines the syntax tree produced by internal/parser and
// consumed by internal/core. Every node carries a Span so diagnostics can
// point back at source text.
package ast

import "fmt"

// Span is a half-open byte range in one source file, plus the line/column of
// its start for human-readable messages.
type Span struct {
	File        string
	StartLine   int
	StartColumn int
	StartOffset int
	EndOffset   int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartColumn)
}

// Program is the root of a parsed brink source file: a set of section
// definitions and exactly one (expected) output statement.
type Program struct {
	Sections []*Section
	Outputs  []*OutputStmt // normally length 1; resolver enforces exactly one
}

// Section is a named, reusable sequence of statements. It is not byte-valued
// on its own; it produces bytes only when reached through the output root at
// a specific occurrence (see core.Occurrence).
type Section struct {
	Name  string
	Span  Span
	Stmts []Stmt
}

// OutputStmt names the section that roots the image and, optionally, the
// starting absolute address (default 0).
type OutputStmt struct {
	Span       Span
	Target     string
	StartAddr  Expr // nil means 0
}

// Stmt is any statement that can appear inside a section body.
type Stmt interface {
	stmtNode()
	SpanOf() Span
}

// LabelDef binds Name to the current position the first time the linear
// stream reaches it. Label names have program-global scope.
type LabelDef struct {
	Span Span
	Name string
}

func (*LabelDef) stmtNode()      {}
func (s *LabelDef) SpanOf() Span { return s.Span }

// WriteString emits the UTF-8 bytes of one or more quoted strings
// (escape-decoded), concatenated in order. `wrs "a", "b";`
type WriteString struct {
	Span  Span
	Parts []Expr // each must be a StringLit
}

func (*WriteString) stmtNode()      {}
func (s *WriteString) SpanOf() Span { return s.Span }

// WriteSection inlines one occurrence of a named section. `wr foo;`
type WriteSection struct {
	Span Span
	Name string
}

func (*WriteSection) stmtNode()      {}
func (s *WriteSection) SpanOf() Span { return s.Span }

// WriteFile embeds the raw bytes of a file, resolved relative to the
// defining source file's directory (or absolute). `wrf "blob.bin";`
type WriteFile struct {
	Span Span
	Path string
}

func (*WriteFile) stmtNode()      {}
func (s *WriteFile) SpanOf() Span { return s.Span }

// WriteInt emits Value truncated to Width bytes, little-endian, Repeat times
// (default 1). `wr32 0x1122, 4;`
type WriteInt struct {
	Span   Span
	Width  int // 1..8
	Value  Expr
	Repeat Expr // nil means 1
}

func (*WriteInt) stmtNode()      {}
func (s *WriteInt) SpanOf() Span { return s.Span }

// PadKind selects which location-counter component a PadStmt or SetStmt
// targets.
type PadKind int

const (
	PadSec PadKind = iota
	PadImg
	PadAbs
)

func (k PadKind) String() string {
	switch k {
	case PadSec:
		return "sec"
	case PadImg:
		return "img"
	case PadAbs:
		return "abs"
	default:
		return "?"
	}
}

// AlignStmt pads until abs_addr % Alignment == 0. `align 16;` / `align 16, 0xFF;`
type AlignStmt struct {
	Span      Span
	Alignment Expr
	PadByte   Expr // nil means 0
}

func (*AlignStmt) stmtNode()      {}
func (s *AlignStmt) SpanOf() Span { return s.Span }

// SetStmt pads the named coordinate forward to Target (no-op if already
// there, error if Target is strictly behind). `set_sec 24, 0xFF;`
type SetStmt struct {
	Span    Span
	Kind    PadKind
	Target  Expr
	PadByte Expr // nil means 0
}

func (*SetStmt) stmtNode()      {}
func (s *SetStmt) SpanOf() Span { return s.Span }

// AssertStmt records a failure if Expr evaluates to zero.
type AssertStmt struct {
	Span Span
	Expr Expr
}

func (*AssertStmt) stmtNode()      {}
func (s *AssertStmt) SpanOf() Span { return s.Span }

// PrintStmt appends the formatted concatenation of Args to the console log.
type PrintStmt struct {
	Span Span
	Args []Expr
}

func (*PrintStmt) stmtNode()      {}
func (s *PrintStmt) SpanOf() Span { return s.Span }

// Expr is any expression: literals, identifier queries, built-ins, and
// binary/unary operators.
type Expr interface {
	exprNode()
	SpanOf() Span
}

// IntLit is a number literal with optional u/i suffix. Unsuffixed literals
// are flexible (core.Integer) until they meet a typed operand.
type IntLit struct {
	Span   Span
	Value  uint64 // bit pattern; sign only matters when Signed
	Suffix LitSuffix
}

// LitSuffix records whether a number literal was written with a u/i suffix.
type LitSuffix int

const (
	SuffixNone LitSuffix = iota
	SuffixUnsigned
	SuffixSigned
)

func (*IntLit) exprNode()      {}
func (e *IntLit) SpanOf() Span { return e.Span }

// StringLit is a quoted string with escapes already decoded.
type StringLit struct {
	Span  Span
	Value string
}

func (*StringLit) exprNode()      {}
func (e *StringLit) SpanOf() Span { return e.Span }

// BuiltinKind enumerates the built-in functions spec.md §4.4 names.
type BuiltinKind int

const (
	BuiltinToU64 BuiltinKind = iota
	BuiltinToI64
	BuiltinSizeof
	BuiltinAbs
	BuiltinImg
	BuiltinSec
)

func (k BuiltinKind) String() string {
	switch k {
	case BuiltinToU64:
		return "to_u64"
	case BuiltinToI64:
		return "to_i64"
	case BuiltinSizeof:
		return "sizeof"
	case BuiltinAbs:
		return "abs"
	case BuiltinImg:
		return "img"
	case BuiltinSec:
		return "sec"
	default:
		return "?"
	}
}

// Call is a built-in function invocation. Arg is nil for the zero-arg forms
// of abs/img/sec; to_u64/to_i64 always require exactly one argument
// syntactically. sizeof() also parses with no argument (HasArg false) and is
// rejected by the resolver; its argument is a bare section name rather than
// a general expression, carried in ArgName.
type Call struct {
	Span    Span
	Kind    BuiltinKind
	Arg     Expr   // to_u64(e), to_i64(e)
	ArgName string // sizeof(name), sec(name), img(name), abs(name); empty for zero-arg abs/img/sec
	HasArg  bool   // false for the zero-arg abs()/img()/sec() forms
}

func (*Call) exprNode()      {}
func (e *Call) SpanOf() Span { return e.Span }

// BinOp is a binary operator application. Op is one of the textual operators
// from spec.md §4.4's precedence table.
type BinOp struct {
	Span  Span
	Op    string
	Left  Expr
	Right Expr
}

func (*BinOp) exprNode()      {}
func (e *BinOp) SpanOf() Span { return e.Span }

// UnaryOp is a prefix operator: "-" (negate) or "!" (logical not).
type UnaryOp struct {
	Span    Span
	Op      string
	Operand Expr
}

func (*UnaryOp) exprNode()      {}
func (e *UnaryOp) SpanOf() Span { return e.Span }
