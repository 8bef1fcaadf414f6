package layouts

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixpoint/internal/ir"
)

func compileString(t *testing.T, src string) (ir.LayoutTable, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileTable(v)
}

func TestCompileTable_Basic(t *testing.T) {
	table, err := compileString(t, `
layout: {
	"Point": {size: 8, align: 4, zero_valid: true, uninit_valid: true}
	"*const Point": {size: 8, align: 8, pointee: "Point"}
}
`)
	require.NoError(t, err)
	require.Len(t, table, 2)

	point, ok := table.Lookup("Point")
	require.True(t, ok)
	assert.Equal(t, "Point", point.Type)
	assert.Equal(t, uint64(8), point.Size)
	assert.Equal(t, uint64(4), point.Align)
	assert.True(t, point.ZeroValid)
	assert.Equal(t, int64(-1), point.Variants, "variants default to unknown")

	ptr, ok := table.Lookup("*const Point")
	require.True(t, ok)
	assert.True(t, ptr.IsPointer())
	assert.Equal(t, "Point", ptr.Pointee)
}

func TestCompileTable_AllFields(t *testing.T) {
	table, err := compileString(t, `
layout: {
	"Weird": {
		size: 16, align: 8, pref_align: 16
		signed: true, uninhabited: false
		zero_valid: false, uninit_valid: false
		needs_drop: true, variants: 3
	}
}
`)
	require.NoError(t, err)
	l, ok := table.Lookup("Weird")
	require.True(t, ok)
	assert.Equal(t, uint64(16), l.PreferredAlign())
	assert.True(t, l.Signed)
	assert.True(t, l.NeedsDrop)
	assert.Equal(t, int64(3), l.Variants)
}

func TestCompileTable_Extern(t *testing.T) {
	table, err := compileString(t, `
layout: {
	"Opaque": {extern: true}
}
`)
	require.NoError(t, err)
	l, ok := table.Lookup("Opaque")
	require.True(t, ok)
	assert.True(t, l.Extern)
	assert.Equal(t, uint64(0), l.Size)
}

func TestCompileTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing layout struct", `other: {}`, "layout struct is required"},
		{"missing size", `layout: {"T": {align: 4}}`, "size is required"},
		{"missing align", `layout: {"T": {size: 4}}`, "align is required"},
		{"align not power of two", `layout: {"T": {size: 6, align: 3}}`, "not a power of two"},
		{"size not multiple of align", `layout: {"T": {size: 5, align: 4}}`, "not a multiple"},
		{"negative variants", `layout: {"T": {size: 4, align: 4, variants: -1}}`, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileTable_MergesOverBuiltin(t *testing.T) {
	table, err := compileString(t, `
layout: {
	"u32": {size: 4, align: 2}
	"Custom": {size: 2, align: 2}
}
`)
	require.NoError(t, err)

	merged := Builtin().Merge(table)
	u32, ok := merged.Lookup("u32")
	require.True(t, ok)
	assert.Equal(t, uint64(2), u32.Align, "scenario table wins over built-ins")
	_, ok = merged.Lookup("usize")
	assert.True(t, ok, "built-ins survive the merge")
	_, ok = merged.Lookup("Custom")
	assert.True(t, ok)
}

func TestBuiltin(t *testing.T) {
	t.Parallel()
	table := Builtin()

	for _, name := range []string{"u8", "u16", "u32", "u64", "u128", "i8", "i128", "usize", "isize", "bool", "char", "()"} {
		l, ok := table.Lookup(name)
		require.True(t, ok, name)
		require.NoError(t, l.Validate(), name)
	}

	usize, _ := table.Lookup("usize")
	assert.Equal(t, uint64(8), usize.Size, "target pointers are 8 bytes")

	i64l, _ := table.Lookup("i64")
	assert.True(t, i64l.Signed)

	ptr, ok := table.Lookup("*const u8")
	require.True(t, ok)
	assert.True(t, ptr.IsPointer())
	assert.Equal(t, uint64(8), ptr.Size)

	unit, _ := table.Lookup("()")
	assert.True(t, unit.IsZeroSized())
	assert.True(t, unit.UninitValid)
}
