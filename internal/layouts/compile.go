package layouts

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fixpoint/internal/ir"
)

// CompileTable parses a CUE value into a layout table.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the whole document; the table lives under `layout`:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`layout: {"u32": {size: 4, align: 4}}`)
//	table, err := layouts.CompileTable(v)
func CompileTable(v cue.Value) (ir.LayoutTable, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	layoutVal := v.LookupPath(cue.ParsePath("layout"))
	if !layoutVal.Exists() {
		return nil, &CompileError{
			Field:   "layout",
			Message: "top-level layout struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := layoutVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	table := ir.LayoutTable{}
	for iter.Next() {
		name := iter.Label()
		layout, err := compileLayout(name, iter.Value())
		if err != nil {
			return nil, err
		}
		if err := layout.Validate(); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("layout.%q", name),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		table[name] = layout
	}
	return table, nil
}

// compileLayout parses one layout descriptor. The type path comes from the
// struct label, never from a field, so a descriptor cannot disagree with
// its key.
func compileLayout(name string, v cue.Value) (ir.Layout, error) {
	layout := ir.Layout{Type: name, Variants: -1}

	extern, err := boolField(v, "extern", false)
	if err != nil {
		return ir.Layout{}, err
	}
	layout.Extern = extern

	if !extern {
		size, ok, err := uintField(v, "size")
		if err != nil {
			return ir.Layout{}, err
		}
		if !ok {
			return ir.Layout{}, &CompileError{
				Field:   fmt.Sprintf("layout.%q.size", name),
				Message: "size is required for non-extern layouts",
				Pos:     v.Pos(),
			}
		}
		layout.Size = size

		align, ok, err := uintField(v, "align")
		if err != nil {
			return ir.Layout{}, err
		}
		if !ok {
			return ir.Layout{}, &CompileError{
				Field:   fmt.Sprintf("layout.%q.align", name),
				Message: "align is required for non-extern layouts",
				Pos:     v.Pos(),
			}
		}
		layout.Align = align

		prefAlign, ok, err := uintField(v, "pref_align")
		if err != nil {
			return ir.Layout{}, err
		}
		if ok {
			layout.PrefAlign = prefAlign
		}
	}

	for _, f := range []struct {
		path string
		dst  *bool
	}{
		{"signed", &layout.Signed},
		{"uninhabited", &layout.Uninhabited},
		{"zero_valid", &layout.ZeroValid},
		{"uninit_valid", &layout.UninitValid},
		{"needs_drop", &layout.NeedsDrop},
	} {
		b, err := boolField(v, f.path, false)
		if err != nil {
			return ir.Layout{}, err
		}
		*f.dst = b
	}

	variantsVal := v.LookupPath(cue.ParsePath("variants"))
	if variantsVal.Exists() {
		variants, err := variantsVal.Int64()
		if err != nil {
			return ir.Layout{}, formatCUEError(err)
		}
		if variants < 0 {
			return ir.Layout{}, &CompileError{
				Field:   fmt.Sprintf("layout.%q.variants", name),
				Message: "variants must be non-negative when given",
				Pos:     variantsVal.Pos(),
			}
		}
		layout.Variants = variants
	}

	pointeeVal := v.LookupPath(cue.ParsePath("pointee"))
	if pointeeVal.Exists() {
		pointee, err := pointeeVal.String()
		if err != nil {
			return ir.Layout{}, formatCUEError(err)
		}
		layout.Pointee = pointee
	}

	return layout, nil
}

// uintField reads an optional non-negative integer field.
func uintField(v cue.Value, path string) (uint64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return 0, false, nil
	}
	u, err := fv.Uint64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return u, true, nil
}

// boolField reads an optional boolean field with a default.
func boolField(v cue.Value, path string, def bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return def, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return def, formatCUEError(err)
	}
	return b, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
