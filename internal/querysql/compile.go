// Package querysql compiles trace filters to parameterized SQLite.
//
// Every compiled query reads the records table in replay order and
// parameterizes all values - filter input never reaches the SQL text.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/fixpoint/internal/queryir"
)

// recordColumns is the column list every trace query selects, matching
// the scan order in internal/store.
const recordColumns = "id, session_token, seq, intrinsic, args, outcome, error_kind, error_rule, message, result"

// Compile converts a trace filter to parameterized SQL over the records
// table, scoped to one session. A nil filter selects the whole session.
//
// Every query orders by seq ASC, id ASC COLLATE BINARY so results read
// identically across replays.
func Compile(sessionToken string, f queryir.Filter) (string, []any, error) {
	if sessionToken == "" {
		return "", nil, fmt.Errorf("cannot compile query without a session token")
	}
	if f != nil {
		if res := queryir.Validate(f); !res.Valid {
			return "", nil, fmt.Errorf("invalid filter: %s", strings.Join(res.Problems, "; "))
		}
	}

	where := []string{"session_token = ?"}
	params := []any{sessionToken}
	if f != nil {
		fragment, fragmentParams, err := compileFilter(f)
		if err != nil {
			return "", nil, err
		}
		if fragment != "" {
			where = append(where, fragment)
			params = append(params, fragmentParams...)
		}
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM records WHERE %s ORDER BY seq ASC, id COLLATE BINARY ASC",
		recordColumns,
		strings.Join(where, " AND "),
	)
	return sql, params, nil
}

// compileFilter compiles one filter node to a WHERE fragment.
// Values are never interpolated - always ? placeholders.
func compileFilter(f queryir.Filter) (string, []any, error) {
	switch filter := f.(type) {
	case queryir.IntrinsicIs:
		return "intrinsic = ?", []any{filter.Name}, nil
	case queryir.OutcomeIs:
		return "outcome = ?", []any{filter.Outcome}, nil
	case queryir.ErrorKindIs:
		return "error_kind = ?", []any{filter.Kind}, nil
	case queryir.ErrorRuleIs:
		return "error_rule = ?", []any{filter.Rule}, nil
	case queryir.SeqRange:
		if filter.Max == 0 {
			return "seq >= ?", []any{filter.Min}, nil
		}
		return "seq >= ? AND seq <= ?", []any{filter.Min, filter.Max}, nil
	case queryir.And:
		return compileAnd(filter)
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Filters) == 0 {
		return "", nil, nil // vacuous truth: no extra conditions
	}
	fragments := make([]string, 0, len(and.Filters))
	var params []any
	for _, sub := range and.Filters {
		fragment, subParams, err := compileFilter(sub)
		if err != nil {
			return "", nil, err
		}
		if fragment == "" {
			continue
		}
		fragments = append(fragments, fragment)
		params = append(params, subParams...)
	}
	if len(fragments) == 0 {
		return "", nil, nil
	}
	return "(" + strings.Join(fragments, " AND ") + ")", params, nil
}
