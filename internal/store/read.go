package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// ErrSessionNotFound is returned when a session token has no row.
var ErrSessionNotFound = errors.New("session not found")

// GetSession returns the session row for a token.
func (s *Store) GetSession(ctx context.Context, token string) (ir.Session, error) {
	var sess ir.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, evaluator_version, ir_version
		FROM sessions
		WHERE token = ?
	`, token).Scan(&sess.Token, &sess.EvaluatorVersion, &sess.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Session{}, fmt.Errorf("get session %q: %w", token, ErrSessionNotFound)
	}
	if err != nil {
		return ir.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by token. Tokens are UUIDv7,
// so lexicographic order is creation order.
func (s *Store) ListSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, evaluator_version, ir_version
		FROM sessions
		ORDER BY token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var sess ir.Session
		if err := rows.Scan(&sess.Token, &sess.EvaluatorVersion, &sess.IRVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns all evaluation records for a session in replay
// order: seq ASC, id ASC COLLATE BINARY, so identical sessions always
// read back identically.
//
// Returns an empty slice (not nil) if the session has no records.
func (s *Store) ReadSession(ctx context.Context, token string) ([]ir.EvalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_token, seq, intrinsic, args, outcome, error_kind, error_rule, message, result
		FROM records
		WHERE session_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
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
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (ir.EvalRecord, error) {
	var rec ir.EvalRecord
	var argsJSON, resultJSON string
	err := rows.Scan(
		&rec.ID,
		&rec.SessionToken,
		&rec.Seq,
		&rec.Intrinsic,
		&argsJSON,
		&rec.Outcome,
		&rec.ErrorKind,
		&rec.ErrorRule,
		&rec.Message,
		&resultJSON,
	)
	if err != nil {
		return ir.EvalRecord{}, fmt.Errorf("scan record: %w", err)
	}
	if rec.Args, err = unmarshalObj(argsJSON); err != nil {
		return ir.EvalRecord{}, err
	}
	if rec.Result, err = unmarshalObj(resultJSON); err != nil {
		return ir.EvalRecord{}, err
	}
	return rec, nil
}
