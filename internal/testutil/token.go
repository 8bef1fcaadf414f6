package testutil

// FixedTokenGenerator returns the same session token every time.
//
// This enables deterministic harness execution and golden snapshot
// comparison: the same scenario with the same token produces
// byte-identical traces. Production code uses eval.UUIDv7Generator
// instead.
//
// FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a fixed session token generator.
//
// The token is typically set in the scenario YAML:
//
//	session_token: "test-session-00000000-0000-0000-0000-000000000001"
//
// If token is empty, Generate() returns "test-session-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-session-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed session token.
//
// Implements eval.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
