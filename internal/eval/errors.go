package eval

import (
	"errors"
	"fmt"

	"github.com/roach88/fixpoint/internal/mem"
)

// Error represents a classified evaluation failure.
//
// The evaluator never recovers silently: every failure is returned to the
// caller with a kind that decides how the outer interpreter reacts.
// Undefined behavior and aborts become hard compile-time diagnostics,
// Unsupported becomes a "not supported in this context" diagnostic, and
// TooGeneric causes deferral and retry after type substitution.
type Error struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Rule names the violated rule for undefined behavior.
	Rule Rule

	// Intrinsic is the name being evaluated when the failure occurred.
	Intrinsic string

	// Message is a human-readable description.
	Message string
}

// ErrorKind categorizes evaluation failures.
type ErrorKind string

const (
	// KindUndefinedBehavior marks a program defect: the evaluated code
	// invoked undefined behavior.
	KindUndefinedBehavior ErrorKind = "UNDEFINED_BEHAVIOR"

	// KindUnsupported marks an evaluator limitation, not a program defect:
	// the operation is recognized but cannot run in this evaluation mode.
	KindUnsupported ErrorKind = "UNSUPPORTED"

	// KindTooGeneric marks an intrinsic depending on a type parameter that
	// is not fully resolved; the caller must retry after substitution.
	KindTooGeneric ErrorKind = "TOO_GENERIC"

	// KindInvalidProgram marks a malformed intrinsic call (wrong arity,
	// mismatched operand layouts) that type checking should have rejected.
	KindInvalidProgram ErrorKind = "INVALID_PROGRAM"
)

// Rule names the specific undefined-behavior rule an Error reports.
type Rule string

const (
	// RuleNonzeroArgIsZero: a *_nonzero count intrinsic received zero.
	RuleNonzeroArgIsZero Rule = "NONZERO_ARG_IS_ZERO"

	// RuleExactDivRemainder: exact division with a nonzero remainder.
	RuleExactDivRemainder Rule = "EXACT_DIV_HAS_REMAINDER"

	// RuleDivisionByZero: division or remainder by zero.
	RuleDivisionByZero Rule = "DIVISION_BY_ZERO"

	// RuleDivisionOverflow: signed MIN / -1.
	RuleDivisionOverflow Rule = "DIVISION_OVERFLOW"

	// RulePointerArithmeticOverflow: checked pointer offset left the
	// address space.
	RulePointerArithmeticOverflow Rule = "POINTER_ARITHMETIC_OVERFLOW"

	// RuleOutOfBounds: a byte range escaped its allocation.
	RuleOutOfBounds Rule = "OUT_OF_BOUNDS"

	// RuleMisaligned: an access violated the required alignment.
	RuleMisaligned Rule = "MISALIGNED"

	// RuleUninitRead: a read touched uninitialized bytes.
	RuleUninitRead Rule = "UNINITIALIZED_READ"

	// RuleDanglingPointer: a pointer into a deallocated allocation.
	RuleDanglingPointer Rule = "DANGLING_POINTER"

	// RuleDifferentAllocations: pointer distance across two allocations.
	RuleDifferentAllocations Rule = "DIFFERENT_ALLOCATIONS"

	// RuleDifferentIntegers: pointer distance between unequal bare
	// integers.
	RuleDifferentIntegers Rule = "DIFFERENT_INTEGERS"

	// RuleDistanceUnsignedOverflow: unsigned pointer distance with the
	// first pointer past the second.
	RuleDistanceUnsignedOverflow Rule = "DISTANCE_UNSIGNED_OVERFLOW"

	// RuleDistanceUnderflow / RuleDistanceOverflow: signed pointer
	// distance outside the representable range.
	RuleDistanceUnderflow Rule = "DISTANCE_UNDERFLOW"
	RuleDistanceOverflow  Rule = "DISTANCE_OVERFLOW"

	// RuleSizeOverflow: count * element size overflowed the length
	// computation.
	RuleSizeOverflow Rule = "SIZE_OVERFLOW"

	// RuleRawEqProvenance: raw equality over provenance-bearing bytes.
	RuleRawEqProvenance Rule = "RAW_EQ_PROVENANCE"

	// RuleAssumeFalse: assume received a false condition.
	RuleAssumeFalse Rule = "ASSUME_FALSE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Rule != "" && e.Intrinsic != "":
		return fmt.Sprintf("%s: %s (rule=%s, intrinsic=%s)", e.Kind, e.Message, e.Rule, e.Intrinsic)
	case e.Intrinsic != "":
		return fmt.Sprintf("%s: %s (intrinsic=%s)", e.Kind, e.Message, e.Intrinsic)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// AbortError terminates the evaluation session immediately. It is produced
// by the Machine's panic primitive for validity-assertion failures and is
// never caught locally: it unwinds to the session owner.
type AbortError struct {
	// Message is the abort text shown to the user.
	Message string
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return e.Message
}

// IsUndefinedBehavior reports whether err is a classified UB error.
// Uses errors.As to handle wrapped errors.
func IsUndefinedBehavior(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Kind == KindUndefinedBehavior
}

// UBRule returns the violated rule of a UB error, or "" for other errors.
func UBRule(err error) Rule {
	var ee *Error
	if errors.As(err, &ee) && ee.Kind == KindUndefinedBehavior {
		return ee.Rule
	}
	return ""
}

// IsTooGeneric reports whether err signals an unresolved type parameter.
func IsTooGeneric(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Kind == KindTooGeneric
}

// IsUnsupported reports whether err signals an evaluator limitation.
func IsUnsupported(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Kind == KindUnsupported
}

// IsAbort reports whether err is a session abort.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

func ubErr(rule Rule, intrinsic, format string, args ...any) *Error {
	return &Error{
		Kind:      KindUndefinedBehavior,
		Rule:      rule,
		Intrinsic: intrinsic,
		Message:   fmt.Sprintf(format, args...),
	}
}

func tooGenericErr(intrinsic, ty string) *Error {
	return &Error{
		Kind:      KindTooGeneric,
		Intrinsic: intrinsic,
		Message:   fmt.Sprintf("type %q is not fully resolved", ty),
	}
}

func unsupportedErr(intrinsic, format string, args ...any) *Error {
	return &Error{
		Kind:      KindUnsupported,
		Intrinsic: intrinsic,
		Message:   fmt.Sprintf(format, args...),
	}
}

func invalidErr(intrinsic, format string, args ...any) *Error {
	return &Error{
		Kind:      KindInvalidProgram,
		Intrinsic: intrinsic,
		Message:   fmt.Sprintf(format, args...),
	}
}

// fromMemErr reclassifies a memory-model access error as undefined
// behavior, preserving the model's message. Non-access errors pass
// through unchanged.
func fromMemErr(intrinsic string, err error) error {
	ae, ok := mem.AsAccessError(err)
	if !ok {
		return err
	}
	rule := RuleOutOfBounds
	switch ae.Code {
	case mem.ErrCodeMisaligned:
		rule = RuleMisaligned
	case mem.ErrCodeUninitRead:
		rule = RuleUninitRead
	case mem.ErrCodeDangling:
		rule = RuleDanglingPointer
	case mem.ErrCodeProvenance:
		rule = RuleRawEqProvenance
	case mem.ErrCodeOutOfBounds, mem.ErrCodeBareDeref, mem.ErrCodeInvalidFree:
		rule = RuleOutOfBounds
	}
	return &Error{
		Kind:      KindUndefinedBehavior,
		Rule:      rule,
		Intrinsic: intrinsic,
		Message:   ae.Error(),
	}
}
