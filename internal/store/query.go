package store

import (
	"context"
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
	"github.com/roach88/fixpoint/internal/queryir"
	"github.com/roach88/fixpoint/internal/querysql"
)

// ReadFiltered returns a session's records matching a trace filter, in
// replay order. A nil filter reads the whole session, like ReadSession.
func (s *Store) ReadFiltered(ctx context.Context, token string, f queryir.Filter) ([]ir.EvalRecord, error) {
	query, params, err := querysql.Compile(token, f)
	if err != nil {
		return nil, fmt.Errorf("read filtered: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("read filtered: %w", err)
	}
	defer rows.Close()

	records := []ir.EvalRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filtered records: %w", err)
	}
	return records, nil
}
