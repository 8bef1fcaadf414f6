package queryir

import (
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// ValidationResult contains the problems found in a filter tree.
type ValidationResult struct {
	// Valid is true when the filter can be compiled by any backend.
	Valid bool

	// Problems lists what is wrong. Empty when Valid is true.
	Problems []string
}

// Validate checks a filter tree before compilation.
//
// Validation is backend-neutral: it rejects only filters no backend
// could answer (unknown outcome constants, inverted sequence ranges,
// empty match strings), never backend limitations.
//
// Validate is a pure function with no side effects.
func Validate(f Filter) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(f)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(f Filter) {
	if f == nil {
		v.addProblem("nil filter node")
		return
	}

	switch filter := f.(type) {
	case IntrinsicIs:
		if filter.Name == "" {
			v.addProblem("IntrinsicIs: empty intrinsic name")
		}
	case OutcomeIs:
		switch filter.Outcome {
		case ir.OutcomeHandled, ir.OutcomeUnhandled, ir.OutcomeError, ir.OutcomeAbort:
		default:
			v.addProblem("OutcomeIs: unknown outcome %q", filter.Outcome)
		}
	case ErrorKindIs:
		switch filter.Kind {
		case "UNDEFINED_BEHAVIOR", "UNSUPPORTED", "TOO_GENERIC", "INVALID_PROGRAM":
		default:
			v.addProblem("ErrorKindIs: unknown error kind %q", filter.Kind)
		}
	case ErrorRuleIs:
		if filter.Rule == "" {
			v.addProblem("ErrorRuleIs: empty rule")
		}
	case SeqRange:
		if filter.Min < 0 || filter.Max < 0 {
			v.addProblem("SeqRange: negative bound")
		}
		if filter.Max != 0 && filter.Min > filter.Max {
			v.addProblem("SeqRange: min %d exceeds max %d", filter.Min, filter.Max)
		}
	case And:
		for _, sub := range filter.Filters {
			v.validate(sub)
		}
	default:
		v.addProblem("unknown filter type: %T", f)
	}
}
