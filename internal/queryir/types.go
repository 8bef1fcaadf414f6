package queryir

// Filter represents an abstract predicate over evaluation records.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// IntrinsicIs matches records of one intrinsic.
//
// Example:
//
//	IntrinsicIs{Name: "ptr_offset_from"}
//
// Translates to SQL:
//
//	intrinsic = ?
type IntrinsicIs struct {
	Name string
}

func (IntrinsicIs) filterNode() {}

// OutcomeIs matches records by dispatch outcome
// (one of the ir.Outcome* constants).
type OutcomeIs struct {
	Outcome string
}

func (OutcomeIs) filterNode() {}

// ErrorKindIs matches failed records by error classification
// (UNDEFINED_BEHAVIOR, UNSUPPORTED, TOO_GENERIC, INVALID_PROGRAM).
type ErrorKindIs struct {
	Kind string
}

func (ErrorKindIs) filterNode() {}

// ErrorRuleIs matches undefined-behavior records by the violated rule.
type ErrorRuleIs struct {
	Rule string
}

func (ErrorRuleIs) filterNode() {}

// SeqRange matches records whose sequence position lies in [Min, Max].
// Max zero means no upper bound.
type SeqRange struct {
	Min int64
	Max int64
}

func (SeqRange) filterNode() {}

// And is a conjunction: all filters must match. An empty And matches
// every record.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}
