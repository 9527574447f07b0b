package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinklang/brinkc/internal/diag"
	"github.com/brinklang/brinkc/internal/parser"
)

func mustCompile(t *testing.T, source string) Result {
	t.Helper()
	prog, bag := parser.Parse("test.brink", source)
	require.False(t, bag.HasErrors(), "parse errors: %v", bag.Diagnostics())
	return Compile(prog, Options{})
}

// S1 (Hello): spec.md §8.
func TestScenarioHello(t *testing.T) {
	res := mustCompile(t, `section foo { wrs "Hello World!\n"; assert sizeof(foo) == 13; } output foo;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte("Hello World!\n"), res.Bytes)
	assert.Empty(t, res.ConsoleLines)
}

// S2 (Nested offsets): spec.md §8, extended with explicit assertions for the
// img()/sec()/abs() values the scenario narrates.
func TestScenarioNestedOffsets(t *testing.T) {
	res := mustCompile(t, `
		section fiz { wrs "fiz"; }
		section bar {
			wrs "bar";
			wr fiz;
			assert abs() == 0x1009;
			assert sec(fiz) == 3;
			assert img(fiz) == 6;
		}
		section foo {
			wrs "foo";
			wr bar;
			assert sec(bar) == 3;
			assert img(bar) == 3;
		}
		output foo 0x1000;
	`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte("foobarfiz"), res.Bytes)
}

// S3 (Multi-width writes): spec.md §8.
func TestScenarioMultiWidthWrites(t *testing.T) {
	res := mustCompile(t, `section foo { wr8 0xAA; wr32 0x11223344; wr16 0xFF00, 3; } output foo;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	want := []byte{0xAA, 0x44, 0x33, 0x22, 0x11, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
	assert.Equal(t, want, res.Bytes)
}

// S4 (set_sec padding): spec.md §8.
func TestScenarioSetSecPadding(t *testing.T) {
	res := mustCompile(t, `
		section foo {
			wr8 1; wr8 2; wr8 3; wr8 4; wr8 5;
			set_sec 16;
			wr8 0xAA, 3;
			set_sec 24, 0xFF;
			assert sizeof(foo) == 24;
		}
		output foo;
	`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	want := append([]byte{1, 2, 3, 4, 5}, make([]byte, 11)...)
	want = append(want, 0xAA, 0xAA, 0xAA)
	want = append(want, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	assert.Equal(t, want, res.Bytes)
}

// S5 (Type mismatch): spec.md §8.
func TestScenarioTypeMismatch(t *testing.T) {
	res := mustCompile(t, `section foo { assert 42u == 42i; } output foo;`)
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.TypeMismatch, ds[0].Kind)
}

// S6 (Print formatting): spec.md §8.
func TestScenarioPrintFormatting(t *testing.T) {
	res := mustCompile(t, `section foo { print abs(), " ", to_i64(sizeof(foo)), "\n"; wrs "ab"; } output foo 0x10;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte{0x61, 0x62}, res.Bytes)
	assert.Equal(t, []string{"0x10 2\n"}, res.ConsoleLines)
}

func TestSetSecBackwardMotionIsAnError(t *testing.T) {
	res := mustCompile(t, `section foo { wr8 1; wr8 2; set_sec 1; } output foo;`)
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.BackwardMotion, ds[0].Kind)
}

func TestSetSecEqualToCurrentIsANoOp(t *testing.T) {
	res := mustCompile(t, `section foo { wr8 1; set_sec 1; wr8 2; } output foo;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte{1, 2}, res.Bytes)
}

func TestAlignPadsToBoundary(t *testing.T) {
	res := mustCompile(t, `section foo { wr8 1; align 4; assert abs() & 3 == 0; } output foo;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte{1, 0, 0, 0}, res.Bytes)
}

func TestAlignZeroIsRejected(t *testing.T) {
	res := mustCompile(t, `section foo { align 0; } output foo;`)
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.BadAlignment, ds[0].Kind)
}

func TestForwardReferenceInAssertResolvesInEffectsPass(t *testing.T) {
	res := mustCompile(t, `
		section foo {
			assert abs(done_label) == abs(done_label);
			wr8 0xAA;
			done_label:
		}
		output foo;
	`)
	require.Empty(t, res.Diagnostics.Diagnostics())
}

func TestForwardReferenceInPadTargetIsUnresolved(t *testing.T) {
	res := mustCompile(t, `
		section foo {
			set_sec sizeof(foo);
			wr8 1;
		}
		output foo;
	`)
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.UnresolvedReference, ds[0].Kind)
}

func TestSizeofRequiresAnArgument(t *testing.T) {
	prog, bag := parser.Parse("test.brink", `section foo { assert sizeof() == 0; } output foo;`)
	require.False(t, bag.HasErrors())
	res := Compile(prog, Options{})
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.UndefinedIdentifier, ds[0].Kind)
}

func TestDuplicateSectionNameIsRejected(t *testing.T) {
	prog, bag := parser.Parse("test.brink", `section foo {} section foo {} output foo;`)
	require.False(t, bag.HasErrors())
	res := Compile(prog, Options{})
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.DuplicateName, ds[0].Kind)
}

func TestMissingOutputIsRejected(t *testing.T) {
	prog, bag := parser.Parse("test.brink", `section foo {}`)
	require.False(t, bag.HasErrors())
	res := Compile(prog, Options{})
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.MissingOutput, ds[0].Kind)
}

func TestSectionCycleIsRejected(t *testing.T) {
	prog, bag := parser.Parse("test.brink", `section a { wr b; } section b { wr a; } output a;`)
	require.False(t, bag.HasErrors())
	res := Compile(prog, Options{})
	ds := res.Diagnostics.Diagnostics()
	require.NotEmpty(t, ds)
	assert.Equal(t, diag.Cycle, ds[0].Kind)
}

func TestUnreachableSectionProducesNoOccurrences(t *testing.T) {
	res := mustCompile(t, `
		section dead { wrs "never"; }
		section foo { wrs "ok"; }
		output foo;
	`)
	require.Empty(t, res.Diagnostics.Diagnostics())
	assert.Equal(t, []byte("ok"), res.Bytes)
}

func TestRoundTripIsDeterministic(t *testing.T) {
	src := `section foo { wrs "ab"; wr16 0x1234; print sizeof(foo); } output foo 0x100;`
	prog1, bag1 := parser.Parse("test.brink", src)
	require.False(t, bag1.HasErrors())
	prog2, bag2 := parser.Parse("test.brink", src)
	require.False(t, bag2.HasErrors())

	r1 := Compile(prog1, Options{})
	r2 := Compile(prog2, Options{})
	assert.Equal(t, r1.Bytes, r2.Bytes)
	assert.Equal(t, r1.ConsoleLines, r2.ConsoleLines)
}
