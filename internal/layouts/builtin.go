package layouts

import "github.com/roach88/fixpoint/internal/ir"

// Builtin returns the layout table for the primitive types every target
// program can rely on. The target has 8-byte pointers; integers are
// naturally aligned.
//
// Variants is -1 throughout: primitives have no variant notion, so
// variant_count on them defers rather than answering.
func Builtin() ir.LayoutTable {
	t := ir.LayoutTable{}

	ints := []struct {
		name string
		size uint64
	}{
		{"8", 1}, {"16", 2}, {"32", 4}, {"64", 8}, {"128", 16},
	}
	for _, i := range ints {
		t["u"+i.name] = ir.Layout{
			Type: "u" + i.name, Size: i.size, Align: i.size,
			ZeroValid: true, UninitValid: false, Variants: -1,
		}
		t["i"+i.name] = ir.Layout{
			Type: "i" + i.name, Size: i.size, Align: i.size, Signed: true,
			ZeroValid: true, UninitValid: false, Variants: -1,
		}
	}
	t["usize"] = ir.Layout{Type: "usize", Size: 8, Align: 8, ZeroValid: true, Variants: -1}
	t["isize"] = ir.Layout{Type: "isize", Size: 8, Align: 8, Signed: true, ZeroValid: true, Variants: -1}
	t["bool"] = ir.Layout{Type: "bool", Size: 1, Align: 1, ZeroValid: true, Variants: -1}
	t["char"] = ir.Layout{Type: "char", Size: 4, Align: 4, ZeroValid: true, Variants: -1}
	t["()"] = ir.Layout{Type: "()", Size: 0, Align: 1, ZeroValid: true, UninitValid: true, Variants: -1}

	for _, pointee := range []string{"u8", "u16", "u32", "u64", "()"} {
		for _, mut := range []string{"*const ", "*mut "} {
			name := mut + pointee
			t[name] = ir.Layout{
				Type: name, Size: 8, Align: 8, Pointee: pointee, Variants: -1,
			}
		}
	}
	return t
}
