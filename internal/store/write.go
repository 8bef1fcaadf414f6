package store

import (
	"context"
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// WriteSession inserts a session row.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - reopening a
// session is a no-op.
func (s *Store) WriteSession(ctx context.Context, sess ir.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, evaluator_version, ir_version)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, sess.Token, sess.EvaluatorVersion, sess.IRVersion)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Append inserts an evaluation record.
// Uses ON CONFLICT DO NOTHING for idempotency: a replayed session
// produces the same content-addressed IDs, and duplicate writes are
// silently absorbed. The session row must exist (foreign key).
//
// Append satisfies the evaluator's Recorder interface, so a Store can be
// wired into an Evaluator directly.
func (s *Store) Append(ctx context.Context, rec ir.EvalRecord) error {
	argsJSON, err := marshalObj(rec.Args)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	resultJSON, err := marshalObj(rec.Result)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
		(id, session_token, seq, intrinsic, args, outcome, error_kind, error_rule, message, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.SessionToken,
		rec.Seq,
		rec.Intrinsic,
		argsJSON,
		rec.Outcome,
		rec.ErrorKind,
		rec.ErrorRule,
		rec.Message,
		resultJSON,
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}
