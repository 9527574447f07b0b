package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinklang/brinkc/internal/diag"
	"github.com/brinklang/brinkc/internal/parser"
)

func TestAbsOnSectionWithMultipleOccurrencesIsOutOfScope(t *testing.T) {
	res := mustCompile(t, `
		section leaf { wr8 1; }
		section foo {
			wr leaf;
			wr leaf;
			assert abs(leaf) == 0;
		}
		output foo;
	`)
	ds := res.Diagnostics.Diagnostics()
	require.NotEmpty(t, ds)
	assert.Equal(t, diag.OutOfScope, ds[0].Kind)
}

func TestSecOnSectionNotReachableIsOutOfScope(t *testing.T) {
	res := mustCompile(t, `
		section unrelated { wr8 1; }
		section foo {
			assert sec(unrelated) == 0;
		}
		output foo;
	`)
	ds := res.Diagnostics.Diagnostics()
	require.NotEmpty(t, ds)
	assert.Equal(t, diag.OutOfScope, ds[0].Kind)
}

func TestSecZeroArgReturnsCurrentSectionOffset(t *testing.T) {
	res := mustCompile(t, `section foo { wr8 1; wr8 2; assert sec() == 2; } output foo;`)
	require.Empty(t, res.Diagnostics.Diagnostics())
}

func TestToU64AndToI64Reinterpret(t *testing.T) {
	res := mustCompile(t, `
		section foo {
			assert to_u64(-1) == 18446744073709551615u;
			assert to_i64(0xFFFFFFFFFFFFFFFFu) == -1i;
		}
		output foo;
	`)
	require.Empty(t, res.Diagnostics.Diagnostics())
}

func TestSizeofNeverInstantiatedStaysUnresolved(t *testing.T) {
	prog, bag := parser.Parse("test.brink", `
		section never { wr8 1; }
		section foo { assert sizeof(never) == 1; }
		output foo;
	`)
	require.False(t, bag.HasErrors())
	res := Compile(prog, Options{})
	ds := res.Diagnostics.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, diag.UnresolvedReference, ds[0].Kind)
}
