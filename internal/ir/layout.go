package ir

import (
	"fmt"
	"math/bits"
)

// Layout describes how a type is represented on the target machine.
// Layouts are computed by an external layout engine and are read-only
// inputs to the evaluator; the evaluator never derives them itself.
type Layout struct {
	// Type is the fully qualified type path, e.g. "u32" or
	// "core::option::Option<u8>".
	Type string `json:"type"`

	// Size is the type's size in bytes.
	Size uint64 `json:"size"`

	// Align is the type's ABI alignment in bytes (a power of two).
	Align uint64 `json:"align"`

	// PrefAlign is the preferred alignment; defaults to Align.
	PrefAlign uint64 `json:"pref_align,omitempty"`

	// Signed marks integer types interpreted as two's complement.
	Signed bool `json:"signed,omitempty"`

	// Uninhabited marks types with no valid values at all.
	Uninhabited bool `json:"uninhabited,omitempty"`

	// ZeroValid reports whether the all-zero bit pattern is a valid value.
	ZeroValid bool `json:"zero_valid,omitempty"`

	// UninitValid reports whether the type may be left uninitialized.
	UninitValid bool `json:"uninit_valid,omitempty"`

	// NeedsDrop reports whether dropping a value runs user code.
	NeedsDrop bool `json:"needs_drop,omitempty"`

	// Variants is the number of enum variants, or -1 when the type has no
	// variant notion (or it cannot be determined yet).
	Variants int64 `json:"variants,omitempty"`

	// Pointee names the pointed-to type for pointer types, "" otherwise.
	Pointee string `json:"pointee,omitempty"`

	// Extern marks opaque foreign types whose size and alignment are
	// unknown. Operations needing the layout report Unsupported.
	Extern bool `json:"extern,omitempty"`
}

// Validate checks structural invariants of a layout.
func (l Layout) Validate() error {
	if l.Type == "" {
		return fmt.Errorf("layout has no type name")
	}
	if l.Extern {
		return nil
	}
	if l.Align == 0 || bits.OnesCount64(l.Align) != 1 {
		return fmt.Errorf("layout %s: alignment %d is not a power of two", l.Type, l.Align)
	}
	if l.PrefAlign != 0 && bits.OnesCount64(l.PrefAlign) != 1 {
		return fmt.Errorf("layout %s: preferred alignment %d is not a power of two", l.Type, l.PrefAlign)
	}
	if l.Size%l.Align != 0 {
		return fmt.Errorf("layout %s: size %d is not a multiple of alignment %d", l.Type, l.Size, l.Align)
	}
	return nil
}

// PreferredAlign returns PrefAlign, falling back to Align.
func (l Layout) PreferredAlign() uint64 {
	if l.PrefAlign != 0 {
		return l.PrefAlign
	}
	return l.Align
}

// IsPointer reports whether the layout describes a pointer type.
func (l Layout) IsPointer() bool {
	return l.Pointee != ""
}

// IsZeroSized reports whether the type occupies no bytes.
func (l Layout) IsZeroSized() bool {
	return !l.Extern && l.Size == 0
}

// ValidityRequirement selects which validity invariant an assertion
// intrinsic checks for a type.
type ValidityRequirement int

const (
	// ValidityInhabited requires that the type has at least one value.
	ValidityInhabited ValidityRequirement = iota

	// ValidityZero requires that the all-zero bit pattern is valid.
	ValidityZero

	// ValidityUninit requires that uninitialized memory is valid.
	ValidityUninit
)

// String returns the requirement's name for diagnostics.
func (r ValidityRequirement) String() string {
	switch r {
	case ValidityInhabited:
		return "inhabited"
	case ValidityZero:
		return "zero_valid"
	case ValidityUninit:
		return "uninit_valid"
	default:
		return fmt.Sprintf("ValidityRequirement(%d)", int(r))
	}
}

// LayoutTable is an in-memory type name to layout mapping. It is the
// concrete form every layout source (built-in primitives, compiled CUE
// specs) reduces to.
type LayoutTable map[string]Layout

// Lookup returns the layout for a type name. A miss means the type is not
// resolved in this table; callers decide whether that is a deferral
// (generic parameter) or an error.
func (t LayoutTable) Lookup(ty string) (Layout, bool) {
	l, ok := t[ty]
	return l, ok
}

// LayoutOf is Lookup under the name the evaluator's provider interface
// uses, so a table can serve as a layout source directly.
func (t LayoutTable) LayoutOf(ty string) (Layout, bool) {
	return t.Lookup(ty)
}

// Merge returns a new table with entries from both; entries in other win.
func (t LayoutTable) Merge(other LayoutTable) LayoutTable {
	merged := make(LayoutTable, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
