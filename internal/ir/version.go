package ir

// Version constants for the trace schema and the evaluator.
const (
	// IRVersion is the trace record schema version.
	IRVersion = "1"

	// EvaluatorVersion is the Fixpoint evaluator version.
	EvaluatorVersion = "0.1.0"
)
