package store

import (
	"context"
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// ReplayReport summarizes an integrity check of a stored session.
type ReplayReport struct {
	SessionToken string
	RecordCount  int

	// IDMismatches lists record IDs whose stored value does not match the
	// ID recomputed from the record's content. Non-empty means the trace
	// was tampered with or written by an incompatible producer.
	IDMismatches []string

	// SeqGaps lists sequence positions where the logical clock skipped.
	// Gaps are legal (the evaluator may consume seq values for unrecorded
	// work) but worth surfacing for inspection.
	SeqGaps []int64
}

// OK reports whether the trace verified cleanly.
func (r ReplayReport) OK() bool {
	return len(r.IDMismatches) == 0
}

// VerifySession re-derives every record ID in a session from its stored
// content and compares against the stored ID. Because IDs are
// content-addressed over (session_token, intrinsic, args, seq), this
// detects any mutation of the replay-relevant columns.
func (s *Store) VerifySession(ctx context.Context, token string) (ReplayReport, error) {
	if _, err := s.GetSession(ctx, token); err != nil {
		return ReplayReport{}, err
	}
	records, err := s.ReadSession(ctx, token)
	if err != nil {
		return ReplayReport{}, err
	}

	report := ReplayReport{
		SessionToken: token,
		RecordCount:  len(records),
	}
	lastSeq := int64(0)
	for _, rec := range records {
		want, err := ir.RecordID(rec.SessionToken, rec.Intrinsic, rec.Args, rec.Seq)
		if err != nil {
			return ReplayReport{}, fmt.Errorf("verify session: %w", err)
		}
		if want != rec.ID {
			report.IDMismatches = append(report.IDMismatches, rec.ID)
		}
		if rec.Seq != lastSeq+1 {
			report.SeqGaps = append(report.SeqGaps, rec.Seq)
		}
		lastSeq = rec.Seq
	}
	return report, nil
}

// LastSeq returns the highest sequence number recorded for a session, or
// 0 when the session has no records. Used to resume a session's clock.
func (s *Store) LastSeq(ctx context.Context, token string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM records WHERE session_token = ?
	`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
