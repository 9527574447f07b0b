package parser

import (
	"testing"

	"github.com/brinklang/brinkc/internal/ast"
	"github.com/brinklang/brinkc/internal/diag"
)

func TestParseProgramShape(t *testing.T) {
	prog, bag := Parse("t.brink", `
		section foo {
			wrs "hi";
			wr8 1, 2;
			align 4, 0xFF;
			set_sec 16;
			done:
			assert sizeof(foo) > 0;
			print abs();
		}
		output foo 0x1000;
	`)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Diagnostics())
	}
	if len(prog.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(prog.Sections))
	}
	if len(prog.Outputs) != 1 {
		t.Fatalf("got %d outputs, want 1", len(prog.Outputs))
	}
	sec := prog.Sections[0]
	if len(sec.Stmts) != 7 {
		t.Fatalf("got %d statements, want 7", len(sec.Stmts))
	}
	if _, ok := sec.Stmts[0].(*ast.WriteString); !ok {
		t.Fatalf("stmt 0: got %T, want *ast.WriteString", sec.Stmts[0])
	}
	wi, ok := sec.Stmts[1].(*ast.WriteInt)
	if !ok {
		t.Fatalf("stmt 1: got %T, want *ast.WriteInt", sec.Stmts[1])
	}
	if wi.Width != 1 {
		t.Fatalf("wr8 width = %d, want 1", wi.Width)
	}
	if _, ok := sec.Stmts[5].(*ast.AssertStmt); !ok {
		t.Fatalf("stmt 5: got %T, want *ast.AssertStmt", sec.Stmts[5])
	}
}

func TestOperatorPrecedence(t *testing.T) {
	prog, bag := Parse("t.brink", `section foo { assert 1 + 2 * 3 == 7; } output foo;`)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", bag.Diagnostics())
	}
	st := prog.Sections[0].Stmts[0].(*ast.AssertStmt)
	top, ok := st.Expr.(*ast.BinOp)
	if !ok || top.Op != "==" {
		t.Fatalf("top-level op = %+v, want ==", st.Expr)
	}
	left, ok := top.Left.(*ast.BinOp)
	if !ok || left.Op != "+" {
		t.Fatalf("left side = %+v, want +", top.Left)
	}
	if _, ok := left.Right.(*ast.BinOp); !ok {
		t.Fatalf("right operand of + should itself be a * expression, got %T", left.Right)
	}
}

func TestSizeofZeroArgIsRejectedByTheResolverNotTheParser(t *testing.T) {
	prog, bag := Parse("t.brink", `section foo { assert sizeof() == 0; } output foo;`)
	if bag.HasErrors() {
		t.Fatalf("parser should accept sizeof() syntactically, got errors: %v", bag.Diagnostics())
	}
	st := prog.Sections[0].Stmts[0].(*ast.AssertStmt)
	call := st.Expr.(*ast.BinOp).Left.(*ast.Call)
	if call.HasArg {
		t.Fatalf("expected HasArg=false for sizeof()")
	}
}

func TestUnknownTokenReportsParseDiagnostic(t *testing.T) {
	_, bag := Parse("t.brink", `section foo { @ } output foo;`)
	if !bag.HasErrors() {
		t.Fatalf("expected a parse error for stray '@'")
	}
}

// An illegal byte between top-level declarations must not truncate parsing:
// the output statement after it should still be reached and a parse
// diagnostic reported at the offending character, not a misleading
// missing-output error.
func TestIllegalByteBetweenSectionsDoesNotTruncateTheProgram(t *testing.T) {
	prog, bag := Parse("t.brink", `section foo {} $ output foo;`)
	if !bag.HasErrors() {
		t.Fatalf("expected a parse error for the stray '$'")
	}
	for _, d := range bag.Diagnostics() {
		if d.Kind != diag.Parse {
			t.Fatalf("got diagnostic kind %v, want parse", d.Kind)
		}
	}
	if len(prog.Outputs) != 1 {
		t.Fatalf("got %d outputs, want 1 (output statement must still be parsed)", len(prog.Outputs))
	}
}
