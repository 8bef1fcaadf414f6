package ir

// Outcome values recorded for an evaluation step.
const (
	OutcomeHandled   = "handled"
	OutcomeUnhandled = "unhandled"
	OutcomeError     = "error"
	OutcomeAbort     = "abort"
)

// EvalRecord is one intrinsic evaluation in a session's trace.
//
// Records are content-addressed: ID is derived from (session_token,
// intrinsic, args, seq), so replaying the same session produces the same
// IDs and duplicate trace writes are silently absorbed by the store.
type EvalRecord struct {
	// ID is the content-addressed record identity (see RecordID).
	ID string `json:"id"`

	// SessionToken identifies the evaluation session.
	SessionToken string `json:"session_token"`

	// Seq is the logical-clock position of this evaluation in the session.
	Seq int64 `json:"seq"`

	// Intrinsic is the dispatched intrinsic name.
	Intrinsic string `json:"intrinsic"`

	// Args is a trace-value rendering of the operands (scalars as ints or
	// hex strings, pointers as "alloc<id>+<offset>" or bare addresses).
	Args Obj `json:"args"`

	// Outcome is one of the Outcome* constants.
	Outcome string `json:"outcome"`

	// ErrorKind and ErrorRule classify a failed evaluation
	// (empty for handled/unhandled outcomes).
	ErrorKind string `json:"error_kind,omitempty"`
	ErrorRule string `json:"error_rule,omitempty"`

	// Message carries the human-readable failure or abort text.
	Message string `json:"message,omitempty"`

	// Result renders the value written to the destination, if any.
	Result Obj `json:"result,omitempty"`
}

// Session describes one evaluation session in the trace store.
type Session struct {
	// Token is the session identity (UUIDv7 in production, fixed in tests).
	Token string `json:"token"`

	// EvaluatorVersion and IRVersion pin the producer for replay checks.
	EvaluatorVersion string `json:"evaluator_version"`
	IRVersion        string `json:"ir_version"`
}
