package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fixpoint/internal/ir"
)

func TestValidate_ValidFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"intrinsic", IntrinsicIs{Name: "ctpop"}},
		{"outcome handled", OutcomeIs{Outcome: ir.OutcomeHandled}},
		{"outcome abort", OutcomeIs{Outcome: ir.OutcomeAbort}},
		{"error kind", ErrorKindIs{Kind: "UNDEFINED_BEHAVIOR"}},
		{"error rule", ErrorRuleIs{Rule: "DIVISION_BY_ZERO"}},
		{"seq range", SeqRange{Min: 1, Max: 10}},
		{"seq range unbounded", SeqRange{Min: 5}},
		{"empty and", And{}},
		{"nested and", And{Filters: []Filter{
			IntrinsicIs{Name: "copy"},
			OutcomeIs{Outcome: ir.OutcomeError},
			And{Filters: []Filter{SeqRange{Min: 1, Max: 2}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.filter)
			assert.True(t, res.Valid, "problems: %v", res.Problems)
			assert.Empty(t, res.Problems)
		})
	}
}

func TestValidate_InvalidFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"nil filter", nil, "nil filter node"},
		{"empty intrinsic", IntrinsicIs{}, "empty intrinsic name"},
		{"unknown outcome", OutcomeIs{Outcome: "maybe"}, "unknown outcome"},
		{"unknown kind", ErrorKindIs{Kind: "OOPS"}, "unknown error kind"},
		{"empty rule", ErrorRuleIs{}, "empty rule"},
		{"negative seq", SeqRange{Min: -1}, "negative bound"},
		{"inverted range", SeqRange{Min: 10, Max: 2}, "exceeds max"},
		{"nested problem", And{Filters: []Filter{IntrinsicIs{Name: "ok"}, OutcomeIs{Outcome: "bad"}}}, "unknown outcome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.filter)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Problems)
			assert.Contains(t, res.Problems[0], tt.want)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	res := Validate(And{Filters: []Filter{
		IntrinsicIs{},
		ErrorRuleIs{},
	}})
	assert.False(t, res.Valid)
	assert.Len(t, res.Problems, 2)
}
