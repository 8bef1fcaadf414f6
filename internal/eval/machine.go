package eval

import "github.com/roach88/fixpoint/internal/ir"

// Machine is the capability surface that distinguishes evaluation modes.
//
// The strict compile-time mode and more permissive dynamic-analysis modes
// share every algorithm in this package; they differ only in how aborts
// are reported. Representing the difference as an interface keeps mode
// switches out of the evaluator core.
type Machine interface {
	// PanicNoUnwind reports a fatal, non-resumable evaluation termination
	// (the language-level panic equivalent). It returns the error the
	// evaluator propagates; implementations must not return nil.
	PanicNoUnwind(msg string) error
}

// StrictMachine is the compile-time evaluation mode: panics abort the
// session as hard diagnostics.
type StrictMachine struct{}

// PanicNoUnwind implements Machine.
func (StrictMachine) PanicNoUnwind(msg string) error {
	return &AbortError{Message: msg}
}

// LayoutProvider supplies type layouts from the external layout engine.
//
// A false second result means the type is not resolved in the current
// instantiation; the evaluator reports TooGeneric and the caller retries
// once substitution is complete.
type LayoutProvider interface {
	LayoutOf(ty string) (ir.Layout, bool)
}
