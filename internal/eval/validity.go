package eval

import (
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// assertValidity implements the compile-time validity assertions. The
// requirement says which kind of value the caller is about to produce;
// the layout says whether the type can tolerate it. A failed assertion
// does not unwind, so it is routed through the machine's non-unwinding
// panic hook rather than reported as undefined behavior.
func (ev *Evaluator) assertValidity(req ir.ValidityRequirement, layout ir.Layout) error {
	// An uninhabited type fails every assertion, with a message that
	// takes precedence over the more specific ones below.
	if layout.Uninhabited {
		return ev.Machine.PanicNoUnwind(fmt.Sprintf(
			"aborted execution: attempted to instantiate uninhabited type `%s`", layout.Type))
	}
	switch req {
	case ir.ValidityInhabited:
		return nil
	case ir.ValidityZero:
		if layout.ZeroValid {
			return nil
		}
		return ev.Machine.PanicNoUnwind(fmt.Sprintf(
			"aborted execution: attempted to zero-initialize type `%s`, which is invalid", layout.Type))
	case ir.ValidityUninit:
		if layout.UninitValid {
			return nil
		}
		return ev.Machine.PanicNoUnwind(fmt.Sprintf(
			"aborted execution: attempted to leave type `%s` uninitialized, which is invalid", layout.Type))
	default:
		return invalidErr("", "unknown validity requirement %d", req)
	}
}
