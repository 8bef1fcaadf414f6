package eval

import (
	"github.com/google/uuid"

	"github.com/roach88/fixpoint/internal/ir"
)

// TokenGenerator produces session tokens.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps session listings in the trace
// store chronological without a separate timestamp column.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewSession mints a session descriptor with a token from the generator
// and the current evaluator and trace schema versions.
func NewSession(gen TokenGenerator) ir.Session {
	return ir.Session{
		Token:            gen.Generate(),
		EvaluatorVersion: ir.EvaluatorVersion,
		IRVersion:        ir.IRVersion,
	}
}
